package codec

import (
	"errors"
	"reflect"

	"github.com/danmuck/suitcase/internal/codec/buffer"
	"github.com/danmuck/suitcase/internal/codec/cursor"
	"github.com/danmuck/suitcase/internal/codec/frame"
)

// reservedTypeID fills the per-type identifier slot of every top-level
// body. It is written as zero and skipped on read.
const reservedTypeID uint32 = 0

// Observer receives the outcome of every top-level call.
type Observer interface {
	ObserveEncode(typ string, protected bool, size int, err error)
	ObserveDecode(typ string, protected bool, size int, err error)
}

// Options control a top-level encode or decode.
type Options struct {
	Registry *Registry
	Limits   frame.Limits
	Observer Observer
}

func DefaultOptions() Options {
	return Options{
		Registry: DefaultRegistry,
		Limits:   frame.DefaultLimits(),
	}
}

func (o Options) registry() *Registry {
	if o.Registry == nil {
		return DefaultRegistry
	}
	return o.Registry
}

// Marshal encodes v. A protected encoding wraps the body in a checksummed
// frame; an unprotected one is the bare body.
func Marshal[T any](v *T, protected bool) ([]byte, error) {
	return MarshalWith(v, protected, DefaultOptions())
}

func MarshalWith[T any](v *T, protected bool, opts Options) ([]byte, error) {
	t := reflect.TypeFor[T]()
	out, err := marshal(t, v, protected, opts)
	if opts.Observer != nil {
		opts.Observer.ObserveEncode(t.String(), protected, len(out), err)
	}
	if err != nil {
		return nil, &Error{Op: "encode", Type: t.String(), Err: err}
	}
	return out, nil
}

func marshal[T any](t reflect.Type, v *T, protected bool, opts Options) ([]byte, error) {
	if v == nil {
		return nil, ErrNilValue
	}
	s := &session{reg: opts.registry()}
	d, err := s.reg.resolve(t)
	if err != nil {
		return nil, err
	}

	body := buffer.New()
	if d.tagged {
		body.WriteUint8(d.current())
	}
	body.WriteUint32(reservedTypeID)
	if err := s.encodeBody(d, v, body); err != nil {
		return nil, err
	}
	if !protected {
		return body.Bytes(), nil
	}

	out := buffer.New()
	if err := opts.Limits.Check(uint64(body.Len())); err != nil {
		return nil, err
	}
	frame.Seal(out, body.Bytes())
	return out.Bytes(), nil
}

// Unmarshal decodes a value of T written by Marshal with the same
// protection mode.
func Unmarshal[T any](data []byte, protected bool) (T, error) {
	return UnmarshalWith[T](data, protected, DefaultOptions())
}

func UnmarshalWith[T any](data []byte, protected bool, opts Options) (T, error) {
	var out T
	err := UnmarshalIntoWith(data, &out, protected, opts)
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// UnmarshalInto decodes into dst. dst is replaced only when the whole
// decode succeeds; on error it is left untouched.
func UnmarshalInto[T any](data []byte, dst *T, protected bool) error {
	return UnmarshalIntoWith(data, dst, protected, DefaultOptions())
}

func UnmarshalIntoWith[T any](data []byte, dst *T, protected bool, opts Options) error {
	t := reflect.TypeFor[T]()
	err := unmarshal(t, data, dst, protected, opts)
	if opts.Observer != nil {
		opts.Observer.ObserveDecode(t.String(), protected, len(data), err)
	}
	if err != nil {
		if errors.Is(err, ErrIntegrity) {
			logger.Warn().Err(err).Str("type", t.String()).Msg("integrity check failed")
		}
		return &Error{Op: "decode", Type: t.String(), Err: err}
	}
	return nil
}

func unmarshal[T any](t reflect.Type, data []byte, dst *T, protected bool, opts Options) error {
	if dst == nil {
		return ErrNilValue
	}
	s := &session{reg: opts.registry()}
	d, err := s.reg.resolve(t)
	if err != nil {
		return err
	}

	body := cursor.New(data)
	if protected {
		body, _, err = frame.Open(body, opts.Limits)
		if err != nil {
			return err
		}
	}

	tag, hasTag, err := readTag(d, body)
	if err != nil {
		return err
	}
	if _, err := body.ReadUint32(); err != nil {
		return err
	}

	var tmp T
	if err := s.migrate(d, body, tag, hasTag, &tmp); err != nil {
		return err
	}
	*dst = tmp
	return nil
}
