package buffer

import (
	"bytes"
	"testing"
)

func TestWritersAreLittleEndian(t *testing.T) {
	b := New()
	b.WriteUint8(0x01)
	b.WriteUint16(0x0302)
	b.WriteUint32(0x07060504)
	b.WriteUint64(0x0f0e0d0c0b0a0908)
	b.WriteBool(true)
	b.WriteInt8(-1)

	want := []byte{
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
		0x01,
		0xff,
	}
	if !bytes.Equal(b.Bytes(), want) {
		t.Fatalf("unexpected bytes: got=%x want=%x", b.Bytes(), want)
	}
}

func TestAppendConcatenates(t *testing.T) {
	a := FromBytes([]byte("head-"))
	other := FromBytes([]byte("tail"))
	a.Append(other)
	a.Append(nil)
	if string(a.Bytes()) != "head-tail" {
		t.Fatalf("unexpected contents: %q", a.Bytes())
	}
	if other.Len() != 4 {
		t.Fatalf("append must not consume the source, len=%d", other.Len())
	}
}

func TestChecksumIsDeterministic(t *testing.T) {
	a := FromBytes([]byte("payload"))
	b := FromBytes([]byte("payload"))
	if a.Checksum() != b.Checksum() {
		t.Fatalf("checksum differs for equal contents")
	}
	b.WriteUint8(0)
	if a.Checksum() == b.Checksum() {
		t.Fatalf("checksum did not change after write")
	}
	if Checksum(nil) != New().Checksum() {
		t.Fatalf("empty checksum mismatch")
	}
}

func TestGenerationTracksMutation(t *testing.T) {
	b := New()
	g0 := b.Generation()
	b.WriteRaw(nil)
	if b.Generation() != g0 {
		t.Fatalf("empty write must not bump generation")
	}
	b.WriteUint32(7)
	g1 := b.Generation()
	if g1 == g0 {
		t.Fatalf("write did not bump generation")
	}
	b.Reset()
	if b.Len() != 0 || b.Generation() == g1 {
		t.Fatalf("reset did not clear and bump generation: len=%d gen=%d", b.Len(), b.Generation())
	}
}

func TestFromBytesCopies(t *testing.T) {
	src := []byte{1, 2, 3}
	b := FromBytes(src)
	src[0] = 9
	if b.Bytes()[0] != 1 {
		t.Fatalf("FromBytes aliased its input")
	}
	clone := b.Clone()
	clone[1] = 9
	if b.Bytes()[1] != 2 {
		t.Fatalf("Clone aliased the buffer")
	}
}
