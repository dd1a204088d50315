package wire

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Writer provides efficient binary encoding with buffer management.
// Writers can be reused to reduce allocations.
//
// The zero value is ready to use, but for better performance use NewWriter
// or the pool via GetWriter/PutWriter.
type Writer struct {
	buf    []byte
	frozen bool // prevents further writes after Bytes() is called
}

// writerPool provides pooled writers for reduced allocations.
var writerPool = sync.Pool{
	New: func() any {
		return &Writer{buf: make([]byte, 0, 256)}
	},
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 256)}
}

// NewWriterWithBuffer creates a Writer reusing the provided buffer's
// capacity.
func NewWriterWithBuffer(buf []byte) *Writer {
	return &Writer{buf: buf[:0]}
}

// GetWriter gets a Writer from the pool.
// The Writer should be returned with PutWriter when done.
func GetWriter() *Writer {
	w := writerPool.Get().(*Writer)
	w.Reset()
	return w
}

// PutWriter returns a Writer to the pool.
// The Writer must not be used after calling this.
func PutWriter(w *Writer) {
	if w == nil {
		return
	}
	// Don't pool large buffers to avoid memory bloat
	if cap(w.buf) > 64*1024 {
		return
	}
	w.Reset()
	writerPool.Put(w)
}

// Reset clears the writer for reuse.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
	w.frozen = false
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the encoded data and freezes the writer. Call Reset to
// reuse it.
func (w *Writer) Bytes() []byte {
	w.frozen = true
	return w.buf
}

// WriteBool writes a bool as one byte: 0 for false, 1 for true.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUInt8(1)
	} else {
		w.WriteUInt8(0)
	}
}

// WriteUInt8 writes a single byte.
func (w *Writer) WriteUInt8(v byte) {
	if w.frozen {
		panic(ErrWriterFrozen)
	}
	w.buf = append(w.buf, v)
}

// WriteUInt16 writes a little-endian uint16.
func (w *Writer) WriteUInt16(v uint16) {
	if w.frozen {
		panic(ErrWriterFrozen)
	}
	w.buf = append(w.buf, byte(v), byte(v>>8))
}

// WriteInt16 writes a little-endian int16.
func (w *Writer) WriteInt16(v int16) {
	w.WriteUInt16(uint16(v))
}

// WriteUInt32 writes a little-endian uint32.
func (w *Writer) WriteUInt32(v uint32) {
	if w.frozen {
		panic(ErrWriterFrozen)
	}
	w.buf = append(w.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// WriteInt32 writes a little-endian int32.
func (w *Writer) WriteInt32(v int32) {
	w.WriteUInt32(uint32(v))
}

// WriteUInt64 writes a little-endian uint64.
func (w *Writer) WriteUInt64(v uint64) {
	if w.frozen {
		panic(ErrWriterFrozen)
	}
	w.buf = append(w.buf,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

// WriteInt64 writes a little-endian int64.
func (w *Writer) WriteInt64(v int64) {
	w.WriteUInt64(uint64(v))
}

// WriteFloat32 writes an IEEE 754 float32.
func (w *Writer) WriteFloat32(v float32) {
	w.WriteUInt32(math.Float32bits(v))
}

// WriteFloat64 writes an IEEE 754 float64.
func (w *Writer) WriteFloat64(v float64) {
	w.WriteUInt64(math.Float64bits(v))
}

// WriteString writes a uint32 byte length followed by the UTF-8 bytes.
func (w *Writer) WriteString(v string) {
	w.WriteUInt32(uint32(len(v)))
	if w.frozen {
		panic(ErrWriterFrozen)
	}
	w.buf = append(w.buf, v...)
}

// WriteByteArray writes a byte array as a uint32 length followed by the
// raw bytes. This is the byte[] specialization: elements are not encoded
// individually.
func (w *Writer) WriteByteArray(v []byte) {
	w.WriteUInt32(uint32(len(v)))
	if w.frozen {
		panic(ErrWriterFrozen)
	}
	w.buf = append(w.buf, v...)
}

// WriteLength writes a uint32 element or entry count.
func (w *Writer) WriteLength(n int) {
	w.WriteUInt32(uint32(n))
}

// WriteGuid writes a guid in mixed-endian layout: the first three groups
// little-endian (4, 2, and 2 bytes), the final 8 bytes as-is.
func (w *Writer) WriteGuid(v uuid.UUID) {
	if w.frozen {
		panic(ErrWriterFrozen)
	}
	w.buf = append(w.buf,
		v[3], v[2], v[1], v[0],
		v[5], v[4],
		v[7], v[6],
	)
	w.buf = append(w.buf, v[8:16]...)
}

// WriteDate writes a time as a signed count of 100-nanosecond ticks since
// 0001-01-01T00:00:00 UTC.
func (w *Writer) WriteDate(v time.Time) {
	w.WriteInt64(ticksOf(v))
}

// BeginLengthPrefix reserves a uint32 slot for a message or union body
// length and returns its position for EndLengthPrefix.
func (w *Writer) BeginLengthPrefix() int {
	at := len(w.buf)
	w.WriteUInt32(0)
	return at
}

// EndLengthPrefix fills a slot reserved by BeginLengthPrefix with the
// number of bytes written since (not counting the prefix itself).
func (w *Writer) EndLengthPrefix(at int) {
	binary.LittleEndian.PutUint32(w.buf[at:], uint32(len(w.buf)-at-SizeLengthPrefix))
}
