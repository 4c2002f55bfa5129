package codec

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"

	"github.com/danmuck/suitcase/internal/codec/buffer"
	"github.com/danmuck/suitcase/internal/codec/cursor"
	"go.hasen.dev/generic"
)

// Field is a typed accessor for one member of a structured value. Build
// fields with F, SliceOf and MapOf from a SuitFields method:
//
//	func (r *Record) SuitFields() []codec.Field {
//	    return []codec.Field{
//	        codec.F(&r.ID),
//	        codec.F(&r.Name),
//	        codec.SliceOf(&r.Tags),
//	    }
//	}
type Field struct {
	encode func(s *session, buf *buffer.Buffer) error
	decode func(s *session, r *cursor.Region) error
}

// F dispatches the field at p through the strategy of its own type.
func F[T any](p *T) Field {
	t := reflect.TypeFor[T]()
	return Field{
		encode: func(s *session, buf *buffer.Buffer) error {
			return s.encodeNested(t, p, buf)
		},
		decode: func(s *session, r *cursor.Region) error {
			return s.decodeNested(t, r, p)
		},
	}
}

// SliceOf encodes a u64 element count followed by every element in order.
// Nil and empty slices share the zero count and both decode to nil.
func SliceOf[E any](p *[]E) Field {
	t := reflect.TypeFor[E]()
	return Field{
		encode: func(s *session, buf *buffer.Buffer) error {
			buf.WriteUint64(uint64(len(*p)))
			for i := range *p {
				if err := s.encodeNested(t, &(*p)[i], buf); err != nil {
					return fmt.Errorf("element %d: %w", i, err)
				}
			}
			return nil
		},
		decode: func(s *session, r *cursor.Region) error {
			n, err := readLen(r)
			if err != nil {
				return err
			}
			if n == 0 {
				*p = nil
				return nil
			}
			out := make([]E, n)
			for i := range out {
				if err := s.decodeNested(t, r, &out[i]); err != nil {
					return fmt.Errorf("element %d: %w", i, err)
				}
			}
			*p = out
			return nil
		},
	}
}

// MapOf encodes a u64 entry count followed by key/value pairs. Entries are
// ordered by their encoded key bytes so equal maps produce equal output.
// Nil and empty maps both decode to nil, and a repeated key fails decode
// with ErrDuplicateKey.
func MapOf[K comparable, V any](p *map[K]V) Field {
	kt := reflect.TypeFor[K]()
	vt := reflect.TypeFor[V]()
	return Field{
		encode: func(s *session, buf *buffer.Buffer) error {
			type entry struct {
				key []byte
				val V
			}
			entries := make([]entry, 0, len(*p))
			for k, v := range *p {
				kb := buffer.New()
				if err := s.encodeNested(kt, &k, kb); err != nil {
					return fmt.Errorf("key: %w", err)
				}
				entries = append(entries, entry{key: kb.Bytes(), val: v})
			}
			sort.Slice(entries, func(i, j int) bool {
				return bytes.Compare(entries[i].key, entries[j].key) < 0
			})

			buf.WriteUint64(uint64(len(entries)))
			for i := range entries {
				buf.WriteRaw(entries[i].key)
				if err := s.encodeNested(vt, &entries[i].val, buf); err != nil {
					return fmt.Errorf("value: %w", err)
				}
			}
			return nil
		},
		decode: func(s *session, r *cursor.Region) error {
			n, err := readLen(r)
			if err != nil {
				return err
			}
			if n == 0 {
				*p = nil
				return nil
			}
			var out map[K]V
			generic.InitMap(&out)
			for i := 0; i < n; i++ {
				var k K
				var v V
				if err := s.decodeNested(kt, r, &k); err != nil {
					return fmt.Errorf("key %d: %w", i, err)
				}
				if _, dup := out[k]; dup {
					return fmt.Errorf("key %d: %w", i, ErrDuplicateKey)
				}
				if err := s.decodeNested(vt, r, &v); err != nil {
					return fmt.Errorf("value %d: %w", i, err)
				}
				out[k] = v
			}
			*p = out
			return nil
		},
	}
}
