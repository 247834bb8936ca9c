package source

import (
	"github.com/danmuck/tallbag"
)

// FromSlice delivers values in order, then END(nil).
func FromSlice[T, M any](values []T) tallbag.Source[T, M] {
	return FromFunc[T, M](func(emit func(T) bool) error {
		for _, v := range values {
			if !emit(v) {
				return nil
			}
		}
		return nil
	})
}

// FromFunc runs gen when started. emit delivers one value and reports false
// once the sink has ended the connection; gen should return then. A non-nil
// error from gen ends the connection with that reason.
func FromFunc[T, M any](gen func(emit func(T) bool) error) tallbag.Source[T, M] {
	return tallbag.Guard[T, M](&generator[T, M]{gen: gen})
}

// Empty completes immediately.
func Empty[T, M any]() tallbag.Source[T, M] {
	return FromFunc[T, M](func(func(T) bool) error { return nil })
}

// Fail ends immediately with err.
func Fail[T, M any](err error) tallbag.Source[T, M] {
	return FromFunc[T, M](func(func(T) bool) error { return err })
}

// Never starts and stays silent until the sink ends it.
func Never[T, M any]() tallbag.Source[T, M] {
	return tallbag.Guard[T, M](tallbag.Func[tallbag.Void, T, M](func(tallbag.Message[tallbag.Void, T, M]) {}))
}

type generator[T, M any] struct {
	gen   func(emit func(T) bool) error
	sink  tallbag.Sink[T, M]
	ended bool
}

func (g *generator[T, M]) Handle(msg tallbag.Message[tallbag.Void, T, M]) {
	switch msg.Kind {
	case tallbag.KindStart:
		g.sink = msg.Peer
		g.run()
	case tallbag.KindEnd:
		// May arrive from inside emit; run observes it before the next value.
		g.ended = true
	}
}

func (g *generator[T, M]) run() {
	err := g.gen(func(v T) bool {
		if g.ended {
			return false
		}
		tallbag.Data(g.sink, v)
		return !g.ended
	})
	if g.ended {
		return
	}
	g.ended = true
	tallbag.End(g.sink, err)
}
