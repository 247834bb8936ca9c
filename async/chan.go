package async

import (
	"sync"
	"sync/atomic"

	"github.com/danmuck/tallbag"
)

// FromChan delivers the values received from ch on its own goroutine and ends
// with END(nil) once ch is closed. It replies to START with a handle so the
// sink can cancel from any goroutine; END on the handle stops the reader.
// The source is single use.
func FromChan[T, M any](ch <-chan T) tallbag.Source[T, M] {
	return &chanSource[T, M]{ch: ch, stop: make(chan struct{})}
}

type chanSource[T, M any] struct {
	ch       <-chan T
	stop     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
}

func (s *chanSource[T, M]) Handle(msg tallbag.Message[tallbag.Void, T, M]) {
	if msg.Kind != tallbag.KindStart || msg.Peer == nil {
		return
	}
	if !s.started.CompareAndSwap(false, true) {
		tallbag.End(msg.Peer, tallbag.ErrAlreadyStarted)
		return
	}
	sink := msg.Peer
	tallbag.Start[T, tallbag.Void, M](sink, chanHandle[T, M]{s}, nil)
	go s.run(sink)
}

func (s *chanSource[T, M]) run(sink tallbag.Sink[T, M]) {
	for {
		select {
		case <-s.stop:
			return
		case v, ok := <-s.ch:
			if !ok {
				if s.cancel() {
					tallbag.End(sink, nil)
				}
				return
			}
			select {
			case <-s.stop:
				return
			default:
			}
			tallbag.Data(sink, v)
		}
	}
}

// cancel reports whether this call stopped the reader.
func (s *chanSource[T, M]) cancel() bool {
	stopped := false
	s.stopOnce.Do(func() {
		close(s.stop)
		stopped = true
	})
	return stopped
}

type chanHandle[T, M any] struct{ s *chanSource[T, M] }

func (h chanHandle[T, M]) Handle(msg tallbag.Message[tallbag.Void, T, M]) {
	if msg.Kind == tallbag.KindEnd {
		h.s.cancel()
	}
}
