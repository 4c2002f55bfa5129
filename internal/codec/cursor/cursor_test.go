package cursor

import (
	"errors"
	"testing"

	"github.com/danmuck/suitcase/internal/codec/buffer"
)

func TestReadScalarsAdvance(t *testing.T) {
	b := buffer.New()
	b.WriteUint16(0xBEEF)
	b.WriteInt32(-7)
	b.WriteFloat64(2.5)
	b.WriteBool(true)

	r := FromBuffer(b)
	u16, err := r.ReadUint16()
	if err != nil || u16 != 0xBEEF {
		t.Fatalf("read u16: v=%x err=%v", u16, err)
	}
	i32, err := r.ReadInt32()
	if err != nil || i32 != -7 {
		t.Fatalf("read i32: v=%d err=%v", i32, err)
	}
	f64, err := r.ReadFloat64()
	if err != nil || f64 != 2.5 {
		t.Fatalf("read f64: v=%v err=%v", f64, err)
	}
	ok, err := r.ReadBool()
	if err != nil || !ok {
		t.Fatalf("read bool: v=%v err=%v", ok, err)
	}
	if r.Rest() != 0 || r.Position() != r.Size() {
		t.Fatalf("expected exhausted region: pos=%d size=%d", r.Position(), r.Size())
	}
}

func TestReadPastEndLeavesPosition(t *testing.T) {
	r := New([]byte{1, 2, 3})
	if _, err := r.ReadUint8(); err != nil {
		t.Fatalf("read u8: %v", err)
	}
	_, err := r.ReadUint32()
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	var be *BoundsError
	if !errors.As(err, &be) || be.Want != 4 || be.Pos != 1 {
		t.Fatalf("unexpected bounds error: %+v", be)
	}
	if r.Position() != 1 {
		t.Fatalf("position moved on failed read: %d", r.Position())
	}
	if _, err := r.ReadRaw(3); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds for raw read, got %v", err)
	}
	if r.Position() != 1 {
		t.Fatalf("position moved on failed raw read: %d", r.Position())
	}
}

func TestReadRawIsScopedAndZeroCopy(t *testing.T) {
	data := []byte{0xAA, 1, 2, 3, 4, 0xBB}
	r := New(data)
	if err := r.Advance(1); err != nil {
		t.Fatalf("advance: %v", err)
	}
	sub, err := r.ReadRaw(4)
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	if sub.Size() != 4 || r.Position() != 5 {
		t.Fatalf("unexpected sizes: sub=%d parent pos=%d", sub.Size(), r.Position())
	}
	if _, err := sub.ReadUint32(); err != nil {
		t.Fatalf("read inside sub-region: %v", err)
	}
	if _, err := sub.ReadUint8(); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("sub-region leaked past its end: %v", err)
	}
	data[1] = 9
	if sub.Bytes()[0] != 9 {
		t.Fatalf("sub-region does not alias the source bytes")
	}
	tail, err := r.ReadUint8()
	if err != nil || tail != 0xBB {
		t.Fatalf("parent read after slice: v=%x err=%v", tail, err)
	}
}

func TestSeekBounds(t *testing.T) {
	r := New(make([]byte, 4))
	if err := r.Seek(4); err != nil {
		t.Fatalf("seek to end: %v", err)
	}
	if err := r.Seek(5); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if err := r.Advance(-5); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds for negative, got %v", err)
	}
	if r.Position() != 4 {
		t.Fatalf("failed seek moved position: %d", r.Position())
	}
	r.Reset()
	if r.Position() != 0 {
		t.Fatalf("reset did not rewind")
	}
}

func TestStaleBufferIsRejected(t *testing.T) {
	b := buffer.New()
	b.WriteUint32(1)
	r := FromBuffer(b)
	sub, err := r.ReadRaw(2)
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	b.WriteUint8(5)
	if _, err := r.ReadUint8(); !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale on parent, got %v", err)
	}
	if _, err := sub.ReadUint8(); !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale on sub-region, got %v", err)
	}
}

func TestReadBoolRejectsGarbage(t *testing.T) {
	r := New([]byte{2})
	if _, err := r.ReadBool(); !errors.Is(err, ErrInvalidBool) {
		t.Fatalf("expected ErrInvalidBool, got %v", err)
	}
	if r.Position() != 0 {
		t.Fatalf("invalid bool advanced the cursor")
	}
}

func TestChecksumCoversMappedRange(t *testing.T) {
	r := New([]byte("xxpayloadxx"))
	_ = r.Advance(2)
	sub, err := r.ReadRaw(7)
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	if sub.Checksum() != buffer.Checksum([]byte("payload")) {
		t.Fatalf("checksum does not match mapped bytes")
	}
	if string(sub.Remaining()) != "payload" {
		t.Fatalf("unexpected remaining: %q", sub.Remaining())
	}
}
