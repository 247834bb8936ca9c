package operator

import (
	"github.com/danmuck/tallbag"
)

// Map transforms every DATA value with fn. Control handles are adapted in
// both directions and reserved kinds keep their kind and payload.
func Map[T, R, M any](src tallbag.Source[T, M], fn func(T) R) tallbag.Source[R, M] {
	return &mapper[T, R, M]{src: src, fn: fn}
}

type mapper[T, R, M any] struct {
	src  tallbag.Source[T, M]
	fn   func(T) R
	sink tallbag.Sink[R, M]
}

func (m *mapper[T, R, M]) Handle(msg tallbag.Message[tallbag.Void, R, M]) {
	if msg.Kind == tallbag.KindStart {
		m.sink = msg.Peer
		tallbag.Start[tallbag.Void, T, M](m.src, mapDown[T, R, M]{m}, msg.Meta)
		return
	}
	m.src.Handle(convertUp[T](msg))
}

type mapDown[T, R, M any] struct{ m *mapper[T, R, M] }

func (d mapDown[T, R, M]) Handle(msg tallbag.Message[T, tallbag.Void, M]) {
	sink := d.m.sink
	if sink == nil {
		return
	}
	switch msg.Kind {
	case tallbag.KindStart:
		var peer tallbag.Source[R, M]
		if msg.Peer != nil {
			peer = mapHandle[T, R, M]{h: msg.Peer}
		}
		tallbag.Start[R, tallbag.Void, M](sink, peer, nil)
	case tallbag.KindData:
		tallbag.Data(sink, d.m.fn(msg.Value))
	case tallbag.KindEnd:
		tallbag.End(sink, msg.Err)
	default:
		tallbag.Reserved(sink, msg.Kind, msg.Payload)
	}
}

// mapHandle adapts the source's control handle to the mapped value type.
type mapHandle[T, R, M any] struct{ h tallbag.Source[T, M] }

func (h mapHandle[T, R, M]) Handle(msg tallbag.Message[tallbag.Void, R, M]) {
	h.h.Handle(convertUp[T](msg))
}

// convertUp retypes a sink-side control message. START is never converted:
// callers route it separately.
func convertUp[T, R, M any](msg tallbag.Message[tallbag.Void, R, M]) tallbag.Message[tallbag.Void, T, M] {
	return tallbag.Message[tallbag.Void, T, M]{
		Kind:    msg.Kind,
		Value:   msg.Value,
		Err:     msg.Err,
		Payload: msg.Payload,
	}
}
