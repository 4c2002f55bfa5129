package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/danmuck/suitcase/internal/codec/buffer"
	"github.com/danmuck/suitcase/internal/codec/cursor"
)

const (
	MagicLen  = 8
	HeaderLen = 8 + 4 + MagicLen + 8
)

// Magic identifies a suitcase frame on the wire.
var Magic = [MagicLen]byte{'S', 'U', 'I', 'T', 'C', 'A', 'S', 'E'}

var (
	ErrIntegrity        = errors.New("frame: integrity check failed")
	ErrBadMagic         = fmt.Errorf("%w: magic mismatch", ErrIntegrity)
	ErrBadFlags         = fmt.Errorf("%w: reserved flags set", ErrIntegrity)
	ErrChecksum         = fmt.Errorf("%w: checksum mismatch", ErrIntegrity)
	ErrPayloadTooLarge  = errors.New("frame: payload too large")
	ErrShortHeader      = errors.New("frame: short header")
	ErrTruncatedPayload = errors.New("frame: truncated payload")
)

// Header is the fixed wire header preceding every protected payload.
type Header struct {
	PayloadSize uint64
	Checksum    uint32
	Magic       [MagicLen]byte
	Flags       uint64
}

// Frame is one complete protected value.
type Frame struct {
	Header  Header
	Payload []byte
}

// Limits constrains decode memory use.
type Limits struct {
	MaxPayloadBytes uint64
}

func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: 64 * 1024 * 1024}
}

// readChunk bounds the up-front allocation of a streamed payload.
const readChunk = 64 * 1024

// maxAddressable is the largest payload a slice can hold on this platform.
const maxAddressable = uint64(math.MaxInt)

func (l Limits) Check(size uint64) error {
	if size > maxAddressable {
		return fmt.Errorf("%w: %d bytes exceeds addressable size", ErrPayloadTooLarge, size)
	}
	if l.MaxPayloadBytes > 0 && size > l.MaxPayloadBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit %d", ErrPayloadTooLarge, size, l.MaxPayloadBytes)
	}
	return nil
}

// HeaderFor builds the header describing payload.
func HeaderFor(payload []byte) Header {
	return Header{
		PayloadSize: uint64(len(payload)),
		Checksum:    buffer.Checksum(payload),
		Magic:       Magic,
	}
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderLen)
	binary.LittleEndian.PutUint64(buf[0:8], h.PayloadSize)
	binary.LittleEndian.PutUint32(buf[8:12], h.Checksum)
	copy(buf[12:20], h.Magic[:])
	binary.LittleEndian.PutUint64(buf[20:28], h.Flags)
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) != HeaderLen {
		return Header{}, fmt.Errorf("frame: invalid header length: %d", len(b))
	}
	var h Header
	h.PayloadSize = binary.LittleEndian.Uint64(b[0:8])
	h.Checksum = binary.LittleEndian.Uint32(b[8:12])
	copy(h.Magic[:], b[12:20])
	h.Flags = binary.LittleEndian.Uint64(b[20:28])
	return h, nil
}

// Validate checks the header fields that do not depend on the payload.
func (h Header) Validate(limits Limits) error {
	if h.Magic != Magic {
		return ErrBadMagic
	}
	if h.Flags != 0 {
		return ErrBadFlags
	}
	return limits.Check(h.PayloadSize)
}

// Seal writes header and payload to dst.
func Seal(dst *buffer.Buffer, payload []byte) {
	dst.WriteRaw(EncodeHeader(HeaderFor(payload)))
	dst.WriteRaw(payload)
}

// Open parses a frame at the cursor position and returns the validated
// payload as a sub-region of r.
func Open(r *cursor.Region, limits Limits) (*cursor.Region, Header, error) {
	var raw [HeaderLen]byte
	if err := r.ReadInto(raw[:]); err != nil {
		return nil, Header{}, fmt.Errorf("%w: %w", ErrShortHeader, err)
	}
	h, err := DecodeHeader(raw[:])
	if err != nil {
		return nil, Header{}, err
	}
	if err := h.Validate(limits); err != nil {
		return nil, h, err
	}
	payload, err := r.ReadRaw(int(h.PayloadSize))
	if err != nil {
		return nil, h, fmt.Errorf("%w: %w", ErrTruncatedPayload, err)
	}
	if payload.Checksum() != h.Checksum {
		return nil, h, ErrChecksum
	}
	return payload, h, nil
}

// ReadFrame reads and validates one frame from a stream.
func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var raw [HeaderLen]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return Frame{}, ErrShortHeader
		}
		return Frame{}, err
	}
	h, err := DecodeHeader(raw[:])
	if err != nil {
		return Frame{}, err
	}
	if err := h.Validate(limits); err != nil {
		return Frame{Header: h}, err
	}

	// The declared size is untrusted: grow with the bytes actually read.
	var body bytes.Buffer
	body.Grow(int(min(h.PayloadSize, readChunk)))
	if _, err := io.CopyN(&body, r, int64(h.PayloadSize)); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return Frame{Header: h}, ErrTruncatedPayload
		}
		return Frame{Header: h}, err
	}
	payload := body.Bytes()
	if buffer.Checksum(payload) != h.Checksum {
		return Frame{Header: h}, ErrChecksum
	}
	return Frame{Header: h, Payload: payload}, nil
}

// WriteFrame writes payload to w wrapped in a fresh header.
func WriteFrame(w io.Writer, payload []byte, limits Limits) error {
	if err := limits.Check(uint64(len(payload))); err != nil {
		return err
	}
	if _, err := w.Write(EncodeHeader(HeaderFor(payload))); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
	return nil
}
