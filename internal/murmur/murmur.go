// Package murmur holds the domain types shared by the feed core and the
// stores that persist them.
package murmur

import (
	"errors"
	"fmt"
)

// Error kinds returned by the core operations. Callers match them with
// [errors.Is]; the transport layer is the only place they become statuses.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrDataCorruption  = errors.New("data corruption")
	ErrInternal        = errors.New("internal error")
)

// ErrHeadMoved is returned by a store when an append names a predecessor that
// is no longer its author's head. It has no kind of its own and surfaces as
// [ErrInternal].
var ErrHeadMoved = errors.New("timeline head moved")

// Internal wraps a storage failure so it matches [ErrInternal] while keeping
// the original error in the chain. Errors that already carry a kind pass
// through untouched.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrNotFound, ErrInvalidArgument, ErrDataCorruption, ErrInternal} {
		if errors.Is(err, kind) {
			return err
		}
	}

	return fmt.Errorf("%w: %w", ErrInternal, err)
}

// Repository is the external record store the core is built on.
//
// Implementations only need to make each call atomic on its own; the
// cross-call contracts (timestamps increasing along a timeline, one edge per
// pair) are held by the core components.
type Repository interface {
	UserRepo
	PostRepo
	FollowRepo
}
