package wire

// Encoded sizes of the fixed-width primitives, and the framing overheads
// of the variable-size forms. These are the building blocks of minimal
// encoded size computation.
const (
	SizeBool    = 1
	SizeByte    = 1
	SizeInt16   = 2
	SizeUInt16  = 2
	SizeInt32   = 4
	SizeUInt32  = 4
	SizeInt64   = 8
	SizeUInt64  = 8
	SizeFloat32 = 4
	SizeFloat64 = 8
	SizeGuid    = 16
	SizeDate    = 8

	// SizeLengthPrefix is the uint32 length carried by strings, arrays,
	// maps, messages, and unions.
	SizeLengthPrefix = 4

	// SizeOptionTag is the presence byte of an optional value.
	SizeOptionTag = 1

	// SizeMessageOverhead is a message's length prefix plus its
	// end-of-message sentinel byte.
	SizeMessageOverhead = SizeLengthPrefix + 1

	// SizeUnionOverhead is a union's length prefix plus its
	// discriminator byte.
	SizeUnionOverhead = SizeLengthPrefix + 1
)
