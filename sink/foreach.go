package sink

import (
	"github.com/danmuck/tallbag"
)

// ForEach is a terminal consumer: fn runs for every value, reserved kinds are
// discarded and done, when non-nil, receives the END reason exactly once.
func ForEach[T, M any](fn func(T), done func(err error)) tallbag.Sink[T, M] {
	return &forEach[T, M]{fn: fn, done: done}
}

type forEach[T, M any] struct {
	fn       func(T)
	done     func(error)
	finished bool
}

func (f *forEach[T, M]) Handle(msg tallbag.Message[T, tallbag.Void, M]) {
	if f.finished {
		return
	}
	switch msg.Kind {
	case tallbag.KindData:
		if f.fn != nil {
			f.fn(msg.Value)
		}
	case tallbag.KindEnd:
		f.finished = true
		if f.done != nil {
			f.done(msg.Err)
		}
	}
}
