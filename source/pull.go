package source

import (
	"iter"

	"github.com/danmuck/tallbag"
)

// Iterate is the pull variant: on START it replies with a handle, and every
// DATA on that handle delivers the next value of seq. Exhaustion ends the
// connection with END(nil); END on the handle stops the iterator.
func Iterate[T, M any](seq iter.Seq[T]) tallbag.Source[T, M] {
	return tallbag.Guard[T, M](&puller[T, M]{seq: seq})
}

type puller[T, M any] struct {
	seq  iter.Seq[T]
	next func() (T, bool)
	stop func()
	sink tallbag.Sink[T, M]
	done bool
}

func (p *puller[T, M]) Handle(msg tallbag.Message[tallbag.Void, T, M]) {
	if msg.Kind != tallbag.KindStart {
		return
	}
	p.sink = msg.Peer
	p.next, p.stop = iter.Pull(p.seq)
	tallbag.Start[T, tallbag.Void, M](p.sink, handle[T, M]{p}, nil)
}

// handle is the control callable handed back to the sink.
type handle[T, M any] struct{ p *puller[T, M] }

func (h handle[T, M]) Handle(msg tallbag.Message[tallbag.Void, T, M]) {
	p := h.p
	if p.done {
		return
	}
	switch msg.Kind {
	case tallbag.KindData:
		v, ok := p.next()
		if !ok {
			p.finish()
			tallbag.End(p.sink, nil)
			return
		}
		tallbag.Data(p.sink, v)
	case tallbag.KindEnd:
		p.finish()
	}
}

func (p *puller[T, M]) finish() {
	p.done = true
	p.stop()
}
