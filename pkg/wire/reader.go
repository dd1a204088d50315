package wire

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/google/uuid"
)

// Reader provides binary decoding with position tracking. Errors are
// sticky: after the first failure every subsequent read returns a zero
// value and Err() reports the original problem.
//
// The zero value is not ready for use; create with NewReader.
type Reader struct {
	data []byte
	pos  int
	err  error
}

// NewReader creates a new Reader for the given data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Reset resets the reader to read from new data.
func (r *Reader) Reset(data []byte) {
	r.data = data
	r.pos = 0
	r.err = nil
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error {
	return r.err
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	if r.pos >= len(r.data) {
		return 0
	}
	return len(r.data) - r.pos
}

// Pos returns the current read position.
func (r *Reader) Pos() int {
	return r.pos
}

// EOF returns true if all data has been read.
func (r *Reader) EOF() bool {
	return r.pos >= len(r.data)
}

// fail records the first error and poisons further reads.
func (r *Reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// take returns the next n bytes, or nil after recording ErrUnexpectedEOF.
func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.data) {
		r.fail(ErrUnexpectedEOF)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

// ReadBool reads one byte; any nonzero value is true.
func (r *Reader) ReadBool() bool {
	return r.ReadUInt8() != 0
}

// ReadUInt8 reads a single byte.
func (r *Reader) ReadUInt8() byte {
	b := r.take(SizeByte)
	if b == nil {
		return 0
	}
	return b[0]
}

// ReadUInt16 reads a little-endian uint16.
func (r *Reader) ReadUInt16() uint16 {
	b := r.take(SizeUInt16)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// ReadInt16 reads a little-endian int16.
func (r *Reader) ReadInt16() int16 {
	return int16(r.ReadUInt16())
}

// ReadUInt32 reads a little-endian uint32.
func (r *Reader) ReadUInt32() uint32 {
	b := r.take(SizeUInt32)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// ReadInt32 reads a little-endian int32.
func (r *Reader) ReadInt32() int32 {
	return int32(r.ReadUInt32())
}

// ReadUInt64 reads a little-endian uint64.
func (r *Reader) ReadUInt64() uint64 {
	b := r.take(SizeUInt64)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// ReadInt64 reads a little-endian int64.
func (r *Reader) ReadInt64() int64 {
	return int64(r.ReadUInt64())
}

// ReadFloat32 reads an IEEE 754 float32.
func (r *Reader) ReadFloat32() float32 {
	return math.Float32frombits(r.ReadUInt32())
}

// ReadFloat64 reads an IEEE 754 float64.
func (r *Reader) ReadFloat64() float64 {
	return math.Float64frombits(r.ReadUInt64())
}

// ReadString reads a uint32 byte length followed by that many UTF-8 bytes.
func (r *Reader) ReadString() string {
	n := r.readBoundedLength()
	b := r.take(n)
	if b == nil {
		return ""
	}
	return string(b)
}

// ReadByteArray reads a byte array written with WriteByteArray. The
// returned slice is a copy.
func (r *Reader) ReadByteArray() []byte {
	n := r.readBoundedLength()
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// ReadLength reads a uint32 element or entry count, bounds-checked against
// the remaining data so corrupt prefixes cannot drive huge allocations.
func (r *Reader) ReadLength() int {
	return r.readBoundedLength()
}

func (r *Reader) readBoundedLength() int {
	n := int(r.ReadUInt32())
	if r.err != nil {
		return 0
	}
	if n > r.Len() {
		r.fail(ErrLengthOutOfBounds)
		return 0
	}
	return n
}

// ReadGuid reads a guid in mixed-endian layout.
func (r *Reader) ReadGuid() uuid.UUID {
	b := r.take(SizeGuid)
	if b == nil {
		return uuid.UUID{}
	}
	var g uuid.UUID
	g[0], g[1], g[2], g[3] = b[3], b[2], b[1], b[0]
	g[4], g[5] = b[5], b[4]
	g[6], g[7] = b[7], b[6]
	copy(g[8:], b[8:16])
	return g
}

// ReadDate reads a date written with WriteDate.
func (r *Reader) ReadDate() time.Time {
	ticks := r.ReadInt64()
	if r.err != nil {
		return time.Time{}
	}
	return timeOf(ticks)
}

// BeginBody reads a message or union body length prefix and returns the
// position just past the body, for SeekTo after the known content.
func (r *Reader) BeginBody() int {
	n := r.readBoundedLength()
	return r.pos + n
}

// SeekTo positions the reader at an absolute offset previously derived
// from BeginBody. Readers use this to skip unknown message fields and
// unknown union branches.
func (r *Reader) SeekTo(pos int) {
	if r.err != nil {
		return
	}
	if pos < 0 || pos > len(r.data) {
		r.fail(ErrLengthOutOfBounds)
		return
	}
	r.pos = pos
}

// SkipUnknownUnion positions the reader past a union body whose
// discriminator it does not know and records ErrUnknownDiscriminator.
func (r *Reader) SkipUnknownUnion(end int) {
	r.SeekTo(end)
	r.fail(ErrUnknownDiscriminator)
}
