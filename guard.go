package tallbag

import (
	"sync"

	"github.com/danmuck/tallbag/internal/observability"
	"github.com/rs/zerolog"
)

// Guard wraps a single-use source so misuse fails deterministically:
//   - START on a started or ended instance is answered with END(reason) to
//     the caller; the running connection is not touched.
//   - DATA or END before START is logged and ignored.
//   - a second END is absorbed.
//   - DATA the wrapped source sends after END is dropped, including after the
//     sink cancelled through a handle the source replied with.
func Guard[T, M any](src Source[T, M], opts ...Option) Source[T, M] {
	cfg := applyOptions(opts)
	lctx := cfg.logger.With().Str("party", "guard")
	if cfg.name != "" {
		lctx = lctx.Str("name", cfg.name)
	}
	return &guard[T, M]{
		inner: src,
		cfg:   cfg,
		log:   lctx.Logger(),
	}
}

type guard[T, M any] struct {
	inner Source[T, M]
	cfg   config
	log   zerolog.Logger

	mu    sync.Mutex
	state State
	sink  Sink[T, M]
}

func (g *guard[T, M]) Handle(msg Message[Void, T, M]) {
	g.mu.Lock()
	prev := g.state
	next, err := prev.Next(msg.Kind, Upstream)
	if err != nil {
		g.mu.Unlock()
		g.report(msg.Kind, Upstream, err)
		if msg.Kind == KindStart && msg.Peer != nil {
			End(msg.Peer, err)
		}
		return
	}
	if prev == StateEnded || (prev == StateIdle && msg.Kind.Reserved()) {
		g.mu.Unlock()
		return
	}
	if msg.Kind == KindStart {
		if msg.Peer == nil {
			g.mu.Unlock()
			g.report(msg.Kind, Upstream, violation(ErrNilPeer, prev, msg.Kind, Upstream))
			return
		}
		g.sink = msg.Peer
	}
	g.state = next
	g.mu.Unlock()

	if msg.Kind == KindStart {
		g.inner.Handle(StartMessage[Void, T, M](guardSink[T, M]{g}, msg.Meta))
		return
	}
	g.inner.Handle(msg)
}

type guardSink[T, M any] struct{ g *guard[T, M] }

func (s guardSink[T, M]) Handle(msg Message[T, Void, M]) {
	s.g.fromInner(msg)
}

func (g *guard[T, M]) fromInner(msg Message[T, Void, M]) {
	g.mu.Lock()
	prev := g.state
	next, err := prev.Next(msg.Kind, Downstream)
	if err != nil {
		g.mu.Unlock()
		g.report(msg.Kind, Downstream, err)
		return
	}
	if prev == StateEnded {
		g.mu.Unlock()
		return
	}
	g.state = next
	sink := g.sink
	g.mu.Unlock()

	if msg.Kind == KindStart && msg.Peer != nil {
		msg.Peer = guardHandle[T, M]{g: g, h: msg.Peer}
	}
	sink.Handle(msg)
}

// guardHandle wraps a handle the inner source replied with, so the sink's
// pulls and END are checked and tracked like calls on the guard itself.
type guardHandle[T, M any] struct {
	g *guard[T, M]
	h Source[T, M]
}

func (h guardHandle[T, M]) Handle(msg Message[Void, T, M]) {
	g := h.g
	g.mu.Lock()
	prev := g.state
	next, err := prev.Next(msg.Kind, Upstream)
	if err != nil {
		g.mu.Unlock()
		g.report(msg.Kind, Upstream, err)
		return
	}
	if prev == StateEnded {
		g.mu.Unlock()
		return
	}
	g.state = next
	g.mu.Unlock()

	h.h.Handle(msg)
}

func (g *guard[T, M]) report(k Kind, d Direction, err error) {
	if g.cfg.metrics {
		observability.RecordViolation(violationReason(err))
	}
	g.log.Warn().
		Str("kind", k.String()).
		Str("dir", d.String()).
		Err(err).
		Msg("tallbag.Guard protocol violation")
}
