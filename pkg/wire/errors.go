// Package wire implements the Bebop binary wire format: the buffer views
// generated encoders and decoders are written against.
//
// All integers are little-endian two's-complement. Strings, arrays, and
// maps carry a uint32 length prefix; messages and unions are framed by a
// uint32 body length so readers can skip content they do not understand.
package wire

import "errors"

// Sentinel errors for common conditions. These can be checked with
// errors.Is().
var (
	// ErrUnexpectedEOF indicates the data was truncated unexpectedly.
	ErrUnexpectedEOF = errors.New("wire: unexpected end of data")

	// ErrUnknownDiscriminator indicates a union carried a discriminator
	// the reader's schema does not know. The reader has already been
	// positioned past the union body when this is returned.
	ErrUnknownDiscriminator = errors.New("wire: unknown union discriminator")

	// ErrLengthOutOfBounds indicates a length prefix points past the end
	// of the data.
	ErrLengthOutOfBounds = errors.New("wire: length prefix out of bounds")

	// ErrWriterFrozen indicates a Writer was used after Bytes was taken.
	ErrWriterFrozen = errors.New("wire: writer used after Bytes")
)
