package tallbag

import "strconv"

// State is the lifecycle phase of one connection.
type State uint8

const (
	StateIdle State = iota
	StateStarting
	StateActive
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateActive:
		return "active"
	case StateEnded:
		return "ended"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Direction tells which party sent a message.
type Direction uint8

const (
	// Downstream messages travel from source to sink.
	Downstream Direction = iota
	// Upstream messages travel from sink to source.
	Upstream
)

func (d Direction) String() string {
	if d == Upstream {
		return "upstream"
	}
	return "downstream"
}

// Next returns the state after a message of kind k travelling in direction d.
//
// Illegal calls return the unchanged state and an error wrapping
// ErrNotStarted, ErrAlreadyStarted or ErrEnded. END on an ended connection is
// legal and leaves it ended; callers detect the absorbed END by comparing
// with the previous state. Reserved kinds never change state.
func (s State) Next(k Kind, d Direction) (State, error) {
	if k.Reserved() {
		return s, nil
	}
	switch s {
	case StateIdle:
		if k == KindStart && d == Upstream {
			return StateStarting, nil
		}
		return s, violation(ErrNotStarted, s, k, d)

	case StateStarting:
		switch k {
		case KindStart:
			if d == Upstream {
				return s, violation(ErrAlreadyStarted, s, k, d)
			}
			return StateActive, nil
		case KindData:
			return StateActive, nil
		default:
			return StateEnded, nil
		}

	case StateActive:
		switch k {
		case KindStart:
			return s, violation(ErrAlreadyStarted, s, k, d)
		case KindData:
			return StateActive, nil
		default:
			return StateEnded, nil
		}

	default:
		if k == KindEnd {
			return StateEnded, nil
		}
		return StateEnded, violation(ErrEnded, s, k, d)
	}
}
