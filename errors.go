package tallbag

import (
	"errors"
	"fmt"
)

var (
	ErrNotStarted     = errors.New("tallbag: call before start")
	ErrAlreadyStarted = errors.New("tallbag: start on started connection")
	ErrEnded          = errors.New("tallbag: call after end")
	ErrNilPeer        = errors.New("tallbag: start without peer")
)

func violation(base error, s State, k Kind, d Direction) error {
	return fmt.Errorf("%w: %s %s in state %s", base, d, k, s)
}

// violationReason maps a violation to a short metric label.
func violationReason(err error) string {
	switch {
	case errors.Is(err, ErrNotStarted):
		return "not_started"
	case errors.Is(err, ErrAlreadyStarted):
		return "already_started"
	case errors.Is(err, ErrEnded):
		return "ended"
	case errors.Is(err, ErrNilPeer):
		return "nil_peer"
	default:
		return "other"
	}
}
