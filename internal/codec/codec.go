package codec

import (
	"fmt"
	"reflect"

	"github.com/danmuck/suitcase/internal/codec/buffer"
	"github.com/danmuck/suitcase/internal/codec/cursor"
)

// Marshaler is implemented by types that write their own body.
type Marshaler interface {
	MarshalSuit(buf *buffer.Buffer) error
}

// Unmarshaler is implemented by types that read their own body.
type Unmarshaler interface {
	UnmarshalSuit(r *cursor.Region) error
}

// FieldLister is implemented by structured types that expose their fields
// in wire order. The same list drives both encode and decode, so the order
// is the compatibility contract of the type.
type FieldLister interface {
	SuitFields() []Field
}

// Versioned is implemented by types with a schema history.
type Versioned interface {
	SuitHistory() History
}

type strategy uint8

const (
	strategyNative strategy = iota + 1
	strategyHandler
	strategyFields
	strategyScalar
)

func (s strategy) String() string {
	switch s {
	case strategyNative:
		return "native"
	case strategyHandler:
		return "handler"
	case strategyFields:
		return "fields"
	case strategyScalar:
		return "scalar"
	default:
		return "none"
	}
}

// descriptor is the resolved encoding plan for one Go type.
type descriptor struct {
	typ      reflect.Type
	strategy strategy
	tagged   bool
	history  *History
	handler  *handlerFuncs
}

// current is the version tag written for values of this type.
func (d *descriptor) current() uint8 {
	if d.history == nil {
		return 0
	}
	return uint8(d.history.Current())
}

var (
	marshalerType   = reflect.TypeFor[Marshaler]()
	unmarshalerType = reflect.TypeFor[Unmarshaler]()
	fieldListerType = reflect.TypeFor[FieldLister]()
	versionedType   = reflect.TypeFor[Versioned]()
)

// resolve picks exactly one strategy for t: native methods first, then a
// registered handler, then a field list, then the scalar bit pattern.
func (reg *Registry) resolve(t reflect.Type) (*descriptor, error) {
	if d, ok := reg.cache.Load(t); ok {
		return d.(*descriptor), nil
	}

	ptr := reflect.PointerTo(t)
	d := &descriptor{typ: t}
	if ptr.Implements(marshalerType) != ptr.Implements(unmarshalerType) {
		logger.Error().Str("type", t.String()).Msg("incomplete native codec")
		return nil, fmt.Errorf("%w: %s defines only one of MarshalSuit and UnmarshalSuit", ErrNoStrategy, t)
	}
	switch {
	case ptr.Implements(marshalerType) && ptr.Implements(unmarshalerType):
		d.strategy = strategyNative
	case reg.handlerFor(t) != nil:
		d.strategy = strategyHandler
		d.handler = reg.handlerFor(t)
	case ptr.Implements(fieldListerType):
		d.strategy = strategyFields
	case isScalarKind(t.Kind()):
		d.strategy = strategyScalar
	default:
		logger.Error().Str("type", t.String()).Msg("no encoding strategy")
		return nil, fmt.Errorf("%w: %s", ErrNoStrategy, t)
	}

	if ptr.Implements(versionedType) {
		h := reflect.New(t).Interface().(Versioned).SuitHistory()
		if err := h.validate(t); err != nil {
			logger.Error().Err(err).Str("type", t.String()).Msg("invalid version history")
			return nil, err
		}
		d.history = &h
	}
	d.tagged = d.history != nil || t.Kind() == reflect.Struct

	logger.Debug().
		Str("type", t.String()).
		Stringer("strategy", d.strategy).
		Bool("tagged", d.tagged).
		Bool("versioned", d.history != nil).
		Msg("resolved descriptor")
	actual, _ := reg.cache.LoadOrStore(t, d)
	return actual.(*descriptor), nil
}

// session carries per-call state through nested encode/decode.
type session struct {
	reg *Registry
}

func (s *session) encodeBody(d *descriptor, ptr any, buf *buffer.Buffer) error {
	switch d.strategy {
	case strategyNative:
		return ptr.(Marshaler).MarshalSuit(buf)
	case strategyHandler:
		data, err := d.handler.encode(ptr)
		if err != nil {
			return err
		}
		buf.WriteRaw(data)
		return nil
	case strategyFields:
		for i, f := range ptr.(FieldLister).SuitFields() {
			if err := f.encode(s, buf); err != nil {
				return fmt.Errorf("field %d: %w", i, err)
			}
		}
		return nil
	case strategyScalar:
		return encodeScalar(reflect.ValueOf(ptr).Elem(), buf)
	}
	return fmt.Errorf("%w: %s", ErrNoStrategy, d.typ)
}

func (s *session) decodeBody(d *descriptor, r *cursor.Region, ptr any) error {
	switch d.strategy {
	case strategyNative:
		return ptr.(Unmarshaler).UnmarshalSuit(r)
	case strategyHandler:
		return d.handler.decode(r, ptr)
	case strategyFields:
		for i, f := range ptr.(FieldLister).SuitFields() {
			if err := f.decode(s, r); err != nil {
				return fmt.Errorf("field %d: %w", i, err)
			}
		}
		return nil
	case strategyScalar:
		return decodeScalar(r, reflect.ValueOf(ptr).Elem())
	}
	return fmt.Errorf("%w: %s", ErrNoStrategy, d.typ)
}

// encodeNested writes the lightweight form of a value: its version tag,
// if the type carries one, followed by its body. Nested values never get
// an integrity frame or the reserved type slot.
func (s *session) encodeNested(t reflect.Type, ptr any, buf *buffer.Buffer) error {
	d, err := s.reg.resolve(t)
	if err != nil {
		return err
	}
	if d.tagged {
		buf.WriteUint8(d.current())
	}
	return s.encodeBody(d, ptr, buf)
}

func (s *session) decodeNested(t reflect.Type, r *cursor.Region, ptr any) error {
	d, err := s.reg.resolve(t)
	if err != nil {
		return err
	}
	tag, hasTag, err := readTag(d, r)
	if err != nil {
		return err
	}
	return s.migrate(d, r, tag, hasTag, ptr)
}

func readTag(d *descriptor, r *cursor.Region) (uint8, bool, error) {
	if !d.tagged {
		return 0, false, nil
	}
	tag, err := r.ReadUint8()
	if err != nil {
		return 0, false, err
	}
	return tag, true, nil
}

// EncodeNested writes v in lightweight form using the default registry.
// Native MarshalSuit implementations use it for their composite members.
func EncodeNested[T any](buf *buffer.Buffer, v *T) error {
	if v == nil {
		return ErrNilValue
	}
	s := &session{reg: DefaultRegistry}
	return s.encodeNested(reflect.TypeFor[T](), v, buf)
}

// DecodeNested is the mirror of EncodeNested.
func DecodeNested[T any](r *cursor.Region, v *T) error {
	if v == nil {
		return ErrNilValue
	}
	s := &session{reg: DefaultRegistry}
	return s.decodeNested(reflect.TypeFor[T](), r, v)
}

// DecodeBody decodes a value of T from its strategy alone, without a
// version tag, reserved slot or frame.
func DecodeBody[T any](r *cursor.Region) (T, error) {
	var out, zero T
	s := &session{reg: DefaultRegistry}
	d, err := s.reg.resolve(reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	if err := s.decodeBody(d, r, &out); err != nil {
		return zero, err
	}
	return out, nil
}
