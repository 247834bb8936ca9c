// Package operator holds the minimal operators needed to exercise the
// protocol through a stacked party: a pass-through relay, a mapper and a
// metadata tap. It is not an operator library.
package operator

import (
	"github.com/danmuck/tallbag"
)

// Observer receives the kind and direction of every message a relay forwards.
type Observer func(k tallbag.Kind, d tallbag.Direction)

// PassThrough forwards every message between src and the sink that starts it
// unchanged, reserved kinds included. observe may be nil.
func PassThrough[T, M any](src tallbag.Source[T, M], observe Observer) tallbag.Source[T, M] {
	return &relay[T, M]{src: src, observe: observe}
}

// Tap forwards like PassThrough and, before each DATA, signals fn(v) on the
// metadata channel the sink offered at START, when fn reports ok. Without a
// channel the tap is a plain relay.
func Tap[T, M any](src tallbag.Source[T, M], fn func(T) (M, bool)) tallbag.Source[T, M] {
	return &relay[T, M]{src: src, tap: fn}
}

type relay[T, M any] struct {
	src     tallbag.Source[T, M]
	observe Observer
	tap     func(T) (M, bool)

	sink tallbag.Sink[T, M]
	meta tallbag.MetaChannel[M]
}

// Handle receives calls from the sink side.
func (r *relay[T, M]) Handle(msg tallbag.Message[tallbag.Void, T, M]) {
	r.report(msg.Kind, tallbag.Upstream)
	if msg.Kind == tallbag.KindStart {
		r.sink = msg.Peer
		r.meta = msg.Meta
		tallbag.Start[tallbag.Void, T, M](r.src, relayDown[T, M]{r}, msg.Meta)
		return
	}
	tallbag.Forward(r.src, msg)
}

type relayDown[T, M any] struct{ r *relay[T, M] }

// Handle receives calls from the source side.
func (d relayDown[T, M]) Handle(msg tallbag.Message[T, tallbag.Void, M]) {
	r := d.r
	r.report(msg.Kind, tallbag.Downstream)
	if msg.Kind == tallbag.KindData && r.tap != nil && r.meta != nil {
		if m, ok := r.tap(msg.Value); ok {
			r.meta(m)
		}
	}
	tallbag.Forward(r.sink, msg)
}

func (r *relay[T, M]) report(k tallbag.Kind, d tallbag.Direction) {
	if r.observe != nil {
		r.observe(k, d)
	}
}
