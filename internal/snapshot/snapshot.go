// Package snapshot persists codec values as protected frames on disk.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/danmuck/suitcase/internal/codec"
	"github.com/danmuck/suitcase/internal/codec/frame"
)

// FrameType labels observations of frames read without a Go type.
const FrameType = "frame"

// Write encodes v and writes it to w as one frame. opts.Observer sees one
// protected encode covering the whole frame.
func Write[T any](w io.Writer, v *T, opts codec.Options) error {
	body, err := codec.MarshalWith(v, false, unobserved(opts))
	if err == nil {
		err = frame.WriteFrame(w, body, opts.Limits)
	}
	observe(opts, "encode", reflect.TypeFor[T]().String(), frame.HeaderLen+len(body), err)
	return err
}

// Read consumes one frame from r and decodes its payload. Short streams
// report codec.ErrBounds; damaged frames report codec.ErrIntegrity.
func Read[T any](r io.Reader, opts codec.Options) (T, error) {
	var zero T
	typ := reflect.TypeFor[T]().String()
	f, err := readFrame(r, opts.Limits)
	if err != nil {
		observe(opts, "decode", typ, frame.HeaderLen+len(f.Payload), err)
		return zero, err
	}
	out, err := codec.UnmarshalWith[T](f.Payload, false, unobserved(opts))
	observe(opts, "decode", typ, frame.HeaderLen+len(f.Payload), err)
	if err != nil {
		return zero, err
	}
	return out, nil
}

func readFrame(r io.Reader, limits frame.Limits) (frame.Frame, error) {
	f, err := frame.ReadFrame(r, limits)
	if err != nil {
		if errors.Is(err, frame.ErrShortHeader) || errors.Is(err, frame.ErrTruncatedPayload) {
			return f, fmt.Errorf("snapshot: %w: %w", codec.ErrBounds, err)
		}
		return f, fmt.Errorf("snapshot: %w", err)
	}
	return f, nil
}

func unobserved(opts codec.Options) codec.Options {
	opts.Observer = nil
	return opts
}

func observe(opts codec.Options, op, typ string, size int, err error) {
	if opts.Observer == nil {
		return
	}
	if op == "encode" {
		opts.Observer.ObserveEncode(typ, true, size, err)
		return
	}
	opts.Observer.ObserveDecode(typ, true, size, err)
}

// Save writes v to path atomically: the frame goes to a temp file in the
// same directory which is then renamed over path.
func Save[T any](path string, v *T, opts codec.Options) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Write(tmp, v, opts); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	codec.Logger().Debug().Str("path", path).Msg("snapshot saved")
	return nil
}

func Load[T any](path string, opts codec.Options) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()
	out, err := Read[T](f, opts)
	if err != nil {
		return zero, fmt.Errorf("snapshot load (%s): %w", path, err)
	}
	return out, nil
}

// Inspect reads the frame stored at path and reports its header along
// with whether the payload passed validation. The check is reported to
// opts.Observer as a decode of FrameType.
func Inspect(path string, opts codec.Options) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Report{}, err
	}
	fr, err := readFrame(f, opts.Limits)
	observe(opts, "decode", FrameType, frame.HeaderLen+len(fr.Payload), err)
	report := newReport(path, info.Size(), fr.Header)
	if err != nil {
		report.Error = err.Error()
		return report, err
	}
	report.Valid = true
	return report, nil
}

// Report describes a snapshot file on disk.
type Report struct {
	Path        string `json:"path"`
	FileBytes   int64  `json:"file_bytes"`
	PayloadSize uint64 `json:"payload_size"`
	Checksum    string `json:"checksum"`
	Magic       string `json:"magic"`
	Flags       uint64 `json:"flags"`
	Valid       bool   `json:"valid"`
	Error       string `json:"error,omitempty"`
}

func newReport(path string, size int64, h frame.Header) Report {
	return Report{
		Path:        path,
		FileBytes:   size,
		PayloadSize: h.PayloadSize,
		Checksum:    fmt.Sprintf("%08x", h.Checksum),
		Magic:       strings.TrimRight(string(h.Magic[:]), "\x00"),
		Flags:       h.Flags,
	}
}
