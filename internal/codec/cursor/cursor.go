package cursor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/danmuck/suitcase/internal/codec/buffer"
)

var (
	ErrOutOfBounds = errors.New("cursor: out of bounds")
	ErrStale       = errors.New("cursor: source buffer changed")
	ErrInvalidBool = errors.New("cursor: invalid bool value")
)

// BoundsError reports a read or seek outside a region.
type BoundsError struct {
	Op   string
	Pos  int
	Want int
	Size int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("cursor: %s out of bounds: pos=%d want=%d size=%d", e.Op, e.Pos, e.Want, e.Size)
}

func (e *BoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}

// Region is a bounds-checked read cursor over a borrowed byte range.
// It never copies or owns the bytes it reads.
type Region struct {
	data  []byte
	start int
	end   int
	pos   int

	owner *buffer.Buffer
	gen   uint64
}

// New returns a region spanning all of data.
func New(data []byte) *Region {
	return &Region{data: data, end: len(data)}
}

// FromBuffer borrows the current contents of b. Reads fail with ErrStale
// once b is written to or reset.
func FromBuffer(b *buffer.Buffer) *Region {
	data := b.Bytes()
	return &Region{data: data, end: len(data), owner: b, gen: b.Generation()}
}

func (r *Region) Size() int     { return r.end - r.start }
func (r *Region) Position() int { return r.pos }
func (r *Region) Rest() int     { return r.Size() - r.pos }
func (r *Region) Reset()        { r.pos = 0 }

// Seek moves the read position to pos within [0, Size].
func (r *Region) Seek(pos int) error {
	if pos < 0 || pos > r.Size() {
		return &BoundsError{Op: "seek", Pos: r.pos, Want: pos, Size: r.Size()}
	}
	r.pos = pos
	return nil
}

func (r *Region) Advance(delta int) error {
	return r.Seek(r.pos + delta)
}

func (r *Region) valid() error {
	if r.owner != nil && r.owner.Generation() != r.gen {
		return ErrStale
	}
	return nil
}

// take returns the next n bytes and advances, or fails without moving.
func (r *Region) take(n int) ([]byte, error) {
	if err := r.valid(); err != nil {
		return nil, err
	}
	if n < 0 || n > r.Rest() {
		return nil, &BoundsError{Op: "read", Pos: r.pos, Want: n, Size: r.Size()}
	}
	at := r.start + r.pos
	r.pos += n
	return r.data[at : at+n : at+n], nil
}

// ReadRaw carves the next n bytes out as a sub-region sharing the same
// underlying bytes, and advances past them.
func (r *Region) ReadRaw(n int) (*Region, error) {
	at := r.start + r.pos
	if _, err := r.take(n); err != nil {
		return nil, err
	}
	return &Region{data: r.data, start: at, end: at + n, owner: r.owner, gen: r.gen}, nil
}

// ReadInto copies len(p) bytes into p.
func (r *Region) ReadInto(p []byte) error {
	b, err := r.take(len(p))
	if err != nil {
		return err
	}
	copy(p, b)
	return nil
}

func (r *Region) ReadUint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Region) ReadUint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Region) ReadUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Region) ReadUint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Region) ReadInt8() (int8, error) {
	v, err := r.ReadUint8()
	return int8(v), err
}

func (r *Region) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

func (r *Region) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Region) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

func (r *Region) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

func (r *Region) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	return math.Float64frombits(v), err
}

func (r *Region) ReadBool() (bool, error) {
	if err := r.valid(); err != nil {
		return false, err
	}
	if r.Rest() < 1 {
		return false, &BoundsError{Op: "read", Pos: r.pos, Want: 1, Size: r.Size()}
	}
	switch r.data[r.start+r.pos] {
	case 0:
		r.pos++
		return false, nil
	case 1:
		r.pos++
		return true, nil
	default:
		return false, ErrInvalidBool
	}
}

// Bytes returns the whole mapped range, independent of the read position.
func (r *Region) Bytes() []byte {
	return r.data[r.start:r.end:r.end]
}

// Remaining returns the unread part of the region.
func (r *Region) Remaining() []byte {
	return r.data[r.start+r.pos : r.end : r.end]
}

// Checksum hashes the whole mapped range.
func (r *Region) Checksum() uint32 {
	return buffer.Checksum(r.Bytes())
}
