package tallbag

import (
	"sync"
	"sync/atomic"

	"github.com/danmuck/tallbag/internal/observability"
	"github.com/gammazero/deque"
	"github.com/rs/zerolog"
)

// Outcome classifies how a connection ended.
type Outcome string

const (
	OutcomeComplete  Outcome = "complete"
	OutcomeError     Outcome = "error"
	OutcomeCancelled Outcome = "cancelled"
)

var connIDs atomic.Uint64

// Conn is the handshake engine for one source/sink pair.
//
// The source sees the Conn as its sink; the sink sees a control handle whose
// DATA and END travel back to the source. Calls into the sink are strictly
// sequential: a call arriving while the sink is running is queued.
type Conn[T, M any] struct {
	id     uint64
	source Source[T, M]
	sink   Sink[T, M]
	meta   MetaChannel[M]
	cfg    config
	log    zerolog.Logger
	done   chan struct{}

	mu          sync.Mutex
	state       State
	handle      Source[T, M]
	queue       *deque.Deque[delivery[T, M]]
	draining    bool
	counted     bool
	sinkStarted bool
	sinkEnded   bool
	// held keeps metadata signalled before the sink's START.
	held    []M
	outcome Outcome
	err     error
}

// delivery is one queued call towards the sink: a message, or a metadata
// signal when meta is set.
type delivery[T, M any] struct {
	msg    Message[T, Void, M]
	meta   bool
	signal M
}

// Connect starts src with sink and returns once src's START handler returns.
// meta may be nil. Synchronous sources have usually completed by then; Done
// reports the end of asynchronous ones.
func Connect[T, M any](src Source[T, M], sink Sink[T, M], meta MetaChannel[M], opts ...Option) *Conn[T, M] {
	cfg := applyOptions(opts)
	c := &Conn[T, M]{
		id:     connIDs.Add(1),
		source: src,
		sink:   sink,
		meta:   meta,
		cfg:    cfg,
		done:   make(chan struct{}),
	}
	lctx := cfg.logger.With().Uint64("conn", c.id)
	if cfg.name != "" {
		lctx = lctx.Str("name", cfg.name)
	}
	c.log = lctx.Logger()

	if sink == nil {
		c.mu.Lock()
		c.state = StateEnded
		c.sinkEnded = true
		c.finishLocked(OutcomeError, ErrNilPeer)
		c.mu.Unlock()
		c.reportViolation(KindStart, Upstream, ErrNilPeer)
		return c
	}

	c.mu.Lock()
	c.state, _ = c.state.Next(KindStart, Upstream)
	c.counted = cfg.metrics
	c.mu.Unlock()
	if cfg.metrics {
		observability.RecordConnStarted()
	}
	c.log.Debug().Msg("tallbag.Connect start")

	if src == nil {
		err := violation(ErrNilPeer, StateStarting, KindStart, Upstream)
		c.reportViolation(KindStart, Upstream, err)
		c.fail(err)
		return c
	}

	var gated MetaChannel[M]
	if meta != nil {
		gated = c.signal
	}
	src.Handle(StartMessage[Void, T, M](downstream[T, M]{c}, gated))

	c.mu.Lock()
	if c.state == StateStarting {
		// The source neither replied nor pushed; hand the sink its handle now.
		c.state = StateActive
		c.startSinkLocked()
	}
	c.drainLocked()
	return c
}

func (c *Conn[T, M]) ID() uint64 {
	return c.id
}

func (c *Conn[T, M]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Done is closed once the connection ends. Messages queued for the sink
// before the END may still be in delivery when it closes.
func (c *Conn[T, M]) Done() <-chan struct{} {
	return c.done
}

// Err returns the END reason, nil while open or after normal completion.
func (c *Conn[T, M]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Outcome is empty while the connection is open.
func (c *Conn[T, M]) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// End terminates the connection from the sink side. It is the sink's only
// cancellation primitive; a timeout is an End with the deadline error.
func (c *Conn[T, M]) End(err error) {
	c.fromSink(EndMessage[Void, T, M](err))
}

type downstream[T, M any] struct{ c *Conn[T, M] }

func (d downstream[T, M]) Handle(msg Message[T, Void, M]) {
	d.c.fromSource(msg)
}

type upstream[T, M any] struct{ c *Conn[T, M] }

func (u upstream[T, M]) Handle(msg Message[Void, T, M]) {
	u.c.fromSink(msg)
}

func (c *Conn[T, M]) fromSource(msg Message[T, Void, M]) {
	c.mu.Lock()
	prev := c.state
	next, err := prev.Next(msg.Kind, Downstream)
	if err != nil {
		c.mu.Unlock()
		c.reportViolation(msg.Kind, Downstream, err)
		if msg.Kind == KindStart && prev != StateEnded {
			c.fail(err)
		}
		return
	}
	if prev == StateEnded {
		c.mu.Unlock()
		c.log.Debug().Str("kind", msg.Kind.String()).Str("dir", Downstream.String()).
			Msg("tallbag.Conn ignored call on ended connection")
		return
	}
	c.countMessage(msg.Kind, Downstream)

	switch msg.Kind {
	case KindStart:
		if msg.Peer == nil {
			c.mu.Unlock()
			err := violation(ErrNilPeer, prev, msg.Kind, Downstream)
			c.reportViolation(msg.Kind, Downstream, err)
			c.fail(err)
			return
		}
		c.state = next
		c.handle = msg.Peer
		c.startSinkLocked()

	case KindEnd:
		c.state = next
		if !c.sinkStarted {
			c.startSinkLocked()
		}
		c.enqueueLocked(msg)
		outcome := OutcomeComplete
		if msg.Err != nil {
			outcome = OutcomeError
		}
		c.finishLocked(outcome, msg.Err)

	default:
		// DATA and reserved kinds; either one acknowledges START implicitly.
		if !c.sinkStarted {
			c.startSinkLocked()
		}
		c.state = StateActive
		c.enqueueLocked(msg)
	}
	c.drainLocked()
}

func (c *Conn[T, M]) fromSink(msg Message[Void, T, M]) {
	c.mu.Lock()
	prev := c.state
	next, err := prev.Next(msg.Kind, Upstream)
	if err != nil {
		c.mu.Unlock()
		c.reportViolation(msg.Kind, Upstream, err)
		if msg.Kind == KindStart && prev != StateEnded {
			c.fail(err)
		}
		return
	}
	if prev == StateEnded {
		c.mu.Unlock()
		c.log.Debug().Str("kind", msg.Kind.String()).Str("dir", Upstream.String()).
			Msg("tallbag.Conn ignored call on ended connection")
		return
	}
	c.countMessage(msg.Kind, Upstream)
	c.state = next
	if msg.Kind == KindEnd {
		c.sinkEnded = true
		c.finishLocked(OutcomeCancelled, msg.Err)
	}
	target := c.upstreamTargetLocked()
	c.mu.Unlock()

	if target != nil {
		target.Handle(msg)
	}
}

// fail ends the connection with err towards both parties.
func (c *Conn[T, M]) fail(err error) {
	c.mu.Lock()
	if c.state == StateEnded {
		c.mu.Unlock()
		return
	}
	c.state = StateEnded
	if !c.sinkEnded {
		if !c.sinkStarted {
			c.startSinkLocked()
		}
		c.enqueueLocked(EndMessage[T, Void, M](err))
	}
	target := c.upstreamTargetLocked()
	c.finishLocked(OutcomeError, err)
	c.drainLocked()

	if target != nil {
		target.Handle(EndMessage[Void, T, M](err))
	}
}

func (c *Conn[T, M]) upstreamTargetLocked() Source[T, M] {
	if c.handle != nil {
		return c.handle
	}
	return c.source
}

// startSinkLocked queues the sink's START followed by any metadata the
// source signalled before it.
func (c *Conn[T, M]) startSinkLocked() {
	c.sinkStarted = true
	c.enqueueLocked(StartMessage[T, Void, M](upstream[T, M]{c}, nil))
	for _, v := range c.held {
		c.push(delivery[T, M]{meta: true, signal: v})
	}
	c.held = nil
}

func (c *Conn[T, M]) enqueueLocked(msg Message[T, Void, M]) {
	c.push(delivery[T, M]{msg: msg})
}

func (c *Conn[T, M]) push(d delivery[T, M]) {
	if c.queue == nil {
		c.queue = deque.New[delivery[T, M]]()
	}
	c.queue.PushBack(d)
}

// drainLocked delivers queued messages to the sink unless another call is
// already doing so. It must be called with c.mu held and releases it.
func (c *Conn[T, M]) drainLocked() {
	if c.draining || c.queue == nil {
		c.mu.Unlock()
		return
	}
	c.draining = true
	for c.queue.Len() > 0 {
		d := c.queue.PopFront()
		if c.sinkEnded {
			if d.meta {
				c.recordSignal(false)
			}
			continue
		}
		c.mu.Unlock()
		if d.meta {
			c.recordSignal(true)
			c.meta(d.signal)
		} else {
			c.sink.Handle(d.msg)
		}
		c.mu.Lock()
	}
	c.draining = false
	c.mu.Unlock()
}

func (c *Conn[T, M]) finishLocked(outcome Outcome, err error) {
	if c.outcome != "" {
		return
	}
	c.outcome = outcome
	c.err = err
	close(c.done)
	if c.cfg.metrics {
		observability.RecordConnEnded(string(outcome), c.counted)
	}
	ev := c.log.Debug().Str("outcome", string(outcome))
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("tallbag.Conn end")
}

// signal gates the sink's metadata channel. Signals share the sink's queue,
// so they reach the sink after its START, in order with DATA and END, and
// never once the connection has ended.
func (c *Conn[T, M]) signal(v M) {
	c.mu.Lock()
	if c.state == StateEnded {
		c.mu.Unlock()
		c.recordSignal(false)
		c.log.Debug().Msg("tallbag.Conn dropped metadata after end")
		return
	}
	if !c.sinkStarted {
		c.held = append(c.held, v)
		c.mu.Unlock()
		return
	}
	c.push(delivery[T, M]{meta: true, signal: v})
	c.drainLocked()
}

func (c *Conn[T, M]) recordSignal(delivered bool) {
	if c.cfg.metrics {
		observability.RecordMetaSignal(delivered)
	}
}

func (c *Conn[T, M]) countMessage(k Kind, d Direction) {
	if c.cfg.metrics {
		observability.RecordMessage(k.String(), d.String())
	}
}

func (c *Conn[T, M]) reportViolation(k Kind, d Direction, err error) {
	if c.cfg.metrics {
		observability.RecordViolation(violationReason(err))
	}
	c.log.Warn().
		Str("kind", k.String()).
		Str("dir", d.String()).
		Err(err).
		Msg("tallbag.Conn protocol violation")
}
