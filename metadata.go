package tallbag

// MetaChannel is the optional auxiliary callable a sink offers at START. A
// source may invoke it any number of times while the connection is open; it
// has no ordering relationship with DATA.
type MetaChannel[M any] func(M)

// Signal invokes c when present.
func (c MetaChannel[M]) Signal(v M) {
	if c == nil {
		return
	}
	c(v)
}

// Fanout returns a channel delivering each signal to every non-nil channel in
// order. It returns nil when no channel is present.
func Fanout[M any](chs ...MetaChannel[M]) MetaChannel[M] {
	live := make([]MetaChannel[M], 0, len(chs))
	for _, ch := range chs {
		if ch != nil {
			live = append(live, ch)
		}
	}
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	}
	return func(v M) {
		for _, ch := range live {
			ch(v)
		}
	}
}
