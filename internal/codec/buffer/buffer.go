package buffer

import (
	"encoding/binary"
	"hash/crc32"
	"math"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Checksum returns the 32-bit content checksum used by integrity frames.
// It guards against accidental corruption only.
func Checksum(p []byte) uint32 {
	return crc32.Checksum(p, castagnoli)
}

// Buffer is an owned, append-only byte sequence. All fixed width writers
// are little-endian.
//
// Every mutation bumps the buffer generation; cursors created from the
// buffer capture it and refuse to read once it changes.
type Buffer struct {
	data []byte
	gen  uint64
}

func New() *Buffer {
	return &Buffer{data: make([]byte, 0, 64)}
}

// FromBytes copies p into a new buffer.
func FromBytes(p []byte) *Buffer {
	data := make([]byte, len(p))
	copy(data, p)
	return &Buffer{data: data}
}

func (b *Buffer) Len() int {
	return len(b.data)
}

// Bytes returns the buffer contents. The slice aliases the buffer and must
// not be modified.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Clone returns a copy of the contents.
func (b *Buffer) Clone() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Generation identifies the current contents of the buffer.
func (b *Buffer) Generation() uint64 {
	return b.gen
}

// Reset drops the contents and invalidates every derived cursor.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
	b.gen++
}

func (b *Buffer) Checksum() uint32 {
	return Checksum(b.data)
}

func (b *Buffer) WriteRaw(p []byte) {
	if len(p) == 0 {
		return
	}
	b.data = append(b.data, p...)
	b.gen++
}

// Append concatenates the contents of other onto b.
func (b *Buffer) Append(other *Buffer) {
	if other == nil {
		return
	}
	b.WriteRaw(other.data)
}

func (b *Buffer) WriteUint8(v uint8) {
	b.data = append(b.data, v)
	b.gen++
}

func (b *Buffer) WriteUint16(v uint16) {
	b.data = binary.LittleEndian.AppendUint16(b.data, v)
	b.gen++
}

func (b *Buffer) WriteUint32(v uint32) {
	b.data = binary.LittleEndian.AppendUint32(b.data, v)
	b.gen++
}

func (b *Buffer) WriteUint64(v uint64) {
	b.data = binary.LittleEndian.AppendUint64(b.data, v)
	b.gen++
}

func (b *Buffer) WriteInt8(v int8)   { b.WriteUint8(uint8(v)) }
func (b *Buffer) WriteInt16(v int16) { b.WriteUint16(uint16(v)) }
func (b *Buffer) WriteInt32(v int32) { b.WriteUint32(uint32(v)) }
func (b *Buffer) WriteInt64(v int64) { b.WriteUint64(uint64(v)) }

func (b *Buffer) WriteFloat32(v float32) {
	b.WriteUint32(math.Float32bits(v))
}

func (b *Buffer) WriteFloat64(v float64) {
	b.WriteUint64(math.Float64bits(v))
}

func (b *Buffer) WriteBool(v bool) {
	var bt byte
	if v {
		bt = 1
	}
	b.WriteUint8(bt)
}
