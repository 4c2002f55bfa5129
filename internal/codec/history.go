package codec

import (
	"fmt"
	"math"
	"reflect"
)

// Version is one slot of a type's schema history.
type Version struct {
	typ     reflect.Type
	from    reflect.Type
	convert func(dst, src any)
}

// Initial declares the oldest shape of a type. It must occupy slot 0.
func Initial[V any]() Version {
	return Version{typ: reflect.TypeFor[V]()}
}

// Then declares shape V as the successor of P. V converts only from its
// direct predecessor.
func Then[V, P any, PV interface {
	*V
	ConvertFrom(prev *P)
}]() Version {
	return Version{
		typ:  reflect.TypeFor[V](),
		from: reflect.TypeFor[P](),
		convert: func(dst, src any) {
			PV(dst.(*V)).ConvertFrom(src.(*P))
		},
	}
}

// History is the ordered list of shapes a type has been written in. The
// last slot is the current type itself.
type History struct {
	versions []Version
}

// NewHistory builds a history from the oldest slot to the current one.
func NewHistory(versions ...Version) History {
	return History{versions: versions}
}

// Current is the index of the current shape, written as the version tag.
func (h History) Current() int {
	return len(h.versions) - 1
}

func (h History) Len() int {
	return len(h.versions)
}

// TypeAt returns the Go type stored in slot i.
func (h History) TypeAt(i int) reflect.Type {
	return h.versions[i].typ
}

func (h History) validate(current reflect.Type) error {
	if len(h.versions) == 0 {
		return fmt.Errorf("%w: %s declares an empty history", ErrBrokenChain, current)
	}
	if len(h.versions) > math.MaxUint8+1 {
		return fmt.Errorf("%w: %s declares %d versions, tag holds %d", ErrBrokenChain, current, len(h.versions), math.MaxUint8+1)
	}
	if last := h.versions[h.Current()].typ; last != current {
		return fmt.Errorf("%w: %s history ends with %s", ErrBrokenChain, current, last)
	}
	for i, v := range h.versions {
		if i == 0 {
			continue
		}
		prev := h.versions[i-1].typ
		if v.convert == nil || v.from != prev {
			return fmt.Errorf("%w: %s slot %d (%s) does not convert from %s", ErrBrokenChain, current, i, v.typ, prev)
		}
	}
	return nil
}
