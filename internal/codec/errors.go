package codec

import (
	"errors"
	"fmt"

	"github.com/danmuck/suitcase/internal/codec/cursor"
	"github.com/danmuck/suitcase/internal/codec/frame"
)

var (
	ErrIntegrity = frame.ErrIntegrity
	ErrTooLarge  = frame.ErrPayloadTooLarge
	ErrBounds    = cursor.ErrOutOfBounds

	ErrSchema        = errors.New("codec: schema defect")
	ErrNoStrategy    = fmt.Errorf("%w: no encoding strategy", ErrSchema)
	ErrFutureVersion = fmt.Errorf("%w: serialized version is newer than current", ErrSchema)
	ErrBrokenChain   = fmt.Errorf("%w: broken version chain", ErrSchema)
	ErrNonZeroTag    = fmt.Errorf("%w: nonzero version tag on unversioned type", ErrSchema)

	ErrNilValue         = errors.New("codec: nil value")
	ErrDuplicateKey     = errors.New("codec: duplicate map key")
	ErrInvalidHandler   = errors.New("codec: handler requires encode and decode funcs")
	ErrDuplicateHandler = errors.New("codec: handler already registered")
)

// Error wraps a failure of a top-level encode or decode with the operation
// and Go type involved.
type Error struct {
	Op   string
	Type string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("codec: %s %s: %v", e.Op, e.Type, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
