package codec

import (
	"fmt"
	"reflect"

	"github.com/danmuck/suitcase/internal/codec/cursor"
)

// migrate decodes the body at r into dst. For a versioned type the payload
// may have been written under an older shape; it is decoded as that shape
// and converted forward one slot at a time until it reaches the current
// type.
func (s *session) migrate(d *descriptor, r *cursor.Region, tag uint8, hasTag bool, dst any) error {
	if d.history == nil {
		if hasTag && tag != 0 {
			logger.Error().Str("type", d.typ.String()).Uint8("tag", tag).Msg("nonzero tag on unversioned type")
			return fmt.Errorf("%w: %s tag=%d", ErrNonZeroTag, d.typ, tag)
		}
		return s.decodeBody(d, r, dst)
	}
	if !hasTag {
		return s.decodeBody(d, r, dst)
	}

	h := d.history
	n := h.Current()
	serialized := int(tag)
	if serialized > n {
		logger.Error().
			Str("type", d.typ.String()).
			Int("serialized", serialized).
			Int("current", n).
			Msg("serialized version is newer than current")
		return fmt.Errorf("%w: %s serialized=%d current=%d", ErrFutureVersion, d.typ, serialized, n)
	}

	for i := 0; i <= n; i++ {
		if i < serialized {
			continue
		}
		if i == n {
			return s.decodeBody(d, r, dst)
		}

		slot := h.versions[i]
		sd, err := s.reg.resolve(slot.typ)
		if err != nil {
			return fmt.Errorf("version %d: %w", i, err)
		}
		prev := reflect.New(slot.typ).Interface()
		if err := s.decodeBody(sd, r, prev); err != nil {
			return fmt.Errorf("version %d: %w", i, err)
		}
		for j := i + 1; j < n; j++ {
			next := reflect.New(h.versions[j].typ).Interface()
			h.versions[j].convert(next, prev)
			prev = next
		}
		h.versions[n].convert(dst, prev)
		logger.Debug().
			Str("type", d.typ.String()).
			Int("from", i).
			Int("to", n).
			Msg("migrated value")
		return nil
	}
	return fmt.Errorf("%w: %s has no slot for version %d", ErrBrokenChain, d.typ, serialized)
}
