package codec

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/danmuck/suitcase/internal/codec/buffer"
	"github.com/danmuck/suitcase/internal/codec/cursor"
)

// Handler is an externally supplied encode/decode pair for a type that has
// neither native methods nor a field list.
type Handler[T any] struct {
	Encode func(v *T) ([]byte, error)
	Decode func(r *cursor.Region, v *T) error
}

type handlerFuncs struct {
	encode func(ptr any) ([]byte, error)
	decode func(r *cursor.Region, ptr any) error
}

// Registry holds handlers and the per-type descriptors resolved against
// them. It is populated at startup and read-only afterwards.
type Registry struct {
	mu       sync.RWMutex
	handlers map[reflect.Type]*handlerFuncs
	cache    sync.Map // reflect.Type -> *descriptor
}

// DefaultRegistry is used by the package level functions. It ships with
// handlers for string, []byte and time.Time.
var DefaultRegistry = NewRegistry()

// NewRegistry returns a registry with the built-in handlers installed.
func NewRegistry() *Registry {
	reg := &Registry{handlers: make(map[reflect.Type]*handlerFuncs)}
	MustRegister(reg, Handler[string]{Encode: encodeString, Decode: decodeString})
	MustRegister(reg, Handler[[]byte]{Encode: encodeBytes, Decode: decodeBytes})
	MustRegister(reg, Handler[time.Time]{Encode: encodeTime, Decode: decodeTime})
	return reg
}

// Register installs h as the handler for T. Types with native methods
// keep using them; a handler only applies when none are defined.
func Register[T any](reg *Registry, h Handler[T]) error {
	if h.Encode == nil || h.Decode == nil {
		return ErrInvalidHandler
	}
	t := reflect.TypeFor[T]()

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.handlers[t]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, t)
	}
	reg.handlers[t] = &handlerFuncs{
		encode: func(ptr any) ([]byte, error) { return h.Encode(ptr.(*T)) },
		decode: func(r *cursor.Region, ptr any) error { return h.Decode(r, ptr.(*T)) },
	}
	reg.cache.Delete(t)
	return nil
}

func MustRegister[T any](reg *Registry, h Handler[T]) {
	if err := Register(reg, h); err != nil {
		panic(err)
	}
}

func (reg *Registry) handlerFor(t reflect.Type) *handlerFuncs {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.handlers[t]
}

// Has reports whether a handler is registered for T.
func Has[T any](reg *Registry) bool {
	return reg.handlerFor(reflect.TypeFor[T]()) != nil
}

// readLen reads a u64 length prefix and checks it against the bytes left.
func readLen(r *cursor.Region) (int, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return 0, err
	}
	if n > uint64(r.Rest()) {
		_ = r.Advance(-8)
		return 0, &cursor.BoundsError{Op: "read", Pos: r.Position(), Want: int(min(n, uint64(^uint(0)>>1))), Size: r.Size()}
	}
	return int(n), nil
}

func lengthPrefixed(p []byte) []byte {
	b := buffer.New()
	b.WriteUint64(uint64(len(p)))
	b.WriteRaw(p)
	return b.Bytes()
}

func encodeString(v *string) ([]byte, error) {
	return lengthPrefixed([]byte(*v)), nil
}

func decodeString(r *cursor.Region, v *string) error {
	n, err := readLen(r)
	if err != nil {
		return err
	}
	raw, err := r.ReadRaw(n)
	if err != nil {
		return err
	}
	*v = string(raw.Bytes())
	return nil
}

func encodeBytes(v *[]byte) ([]byte, error) {
	return lengthPrefixed(*v), nil
}

func decodeBytes(r *cursor.Region, v *[]byte) error {
	n, err := readLen(r)
	if err != nil {
		return err
	}
	raw, err := r.ReadRaw(n)
	if err != nil {
		return err
	}
	if n == 0 {
		*v = nil
		return nil
	}
	*v = append([]byte(nil), raw.Bytes()...)
	return nil
}

func encodeTime(v *time.Time) ([]byte, error) {
	data, err := v.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return lengthPrefixed(data), nil
}

func decodeTime(r *cursor.Region, v *time.Time) error {
	var data []byte
	if err := decodeBytes(r, &data); err != nil {
		return err
	}
	return v.UnmarshalBinary(data)
}
