// Package sink provides reference sinks for the tallbag protocol.
package sink

import (
	"sync"

	"github.com/danmuck/tallbag"
)

// Event is one call observed by a Recorder.
type Event[T any] struct {
	Kind    tallbag.Kind
	Value   T
	Err     error
	Payload any
}

// Recorder records every call it receives, reserved kinds included, and the
// metadata signals delivered to its channel. It is meant for tests and
// diagnostics and is safe under concurrent use.
type Recorder[T, M any] struct {
	cfg recorderConfig

	mu     sync.Mutex
	handle tallbag.Source[T, M]
	events []Event[T]
	meta   []M
	data   int
	ended  bool
}

type recorderConfig struct {
	pull       bool
	endOnStart bool
	endAfter   int
}

// RecorderOption configures a Recorder.
type RecorderOption func(*recorderConfig)

// PullOnStart makes the recorder request a value on START and after every
// DATA.
func PullOnStart() RecorderOption {
	return func(c *recorderConfig) {
		c.pull = true
	}
}

// EndOnStart makes the recorder end the connection as soon as it is started.
func EndOnStart() RecorderOption {
	return func(c *recorderConfig) {
		c.endOnStart = true
	}
}

// EndAfter makes the recorder end the connection after n DATA calls.
func EndAfter(n int) RecorderOption {
	return func(c *recorderConfig) {
		c.endAfter = n
	}
}

func NewRecorder[T, M any](opts ...RecorderOption) *Recorder[T, M] {
	r := &Recorder[T, M]{}
	for _, opt := range opts {
		if opt != nil {
			opt(&r.cfg)
		}
	}
	return r
}

func (r *Recorder[T, M]) Handle(msg tallbag.Message[T, tallbag.Void, M]) {
	r.mu.Lock()
	r.events = append(r.events, Event[T]{
		Kind:    msg.Kind,
		Value:   msg.Value,
		Err:     msg.Err,
		Payload: msg.Payload,
	})
	var (
		handle tallbag.Source[T, M]
		end    bool
		pull   bool
	)
	switch msg.Kind {
	case tallbag.KindStart:
		r.handle = msg.Peer
		handle = r.handle
		end = r.cfg.endOnStart
		pull = !end && r.cfg.pull
	case tallbag.KindData:
		r.data++
		handle = r.handle
		end = r.cfg.endAfter > 0 && r.data >= r.cfg.endAfter
		pull = !end && r.cfg.pull
	case tallbag.KindEnd:
		r.ended = true
	}
	if end {
		r.ended = true
	}
	r.mu.Unlock()

	if handle == nil {
		return
	}
	if end {
		tallbag.End(handle, nil)
		return
	}
	if pull {
		tallbag.Pull(handle)
	}
}

// Meta returns a metadata channel that records into r.
func (r *Recorder[T, M]) Meta() tallbag.MetaChannel[M] {
	return func(v M) {
		r.mu.Lock()
		r.meta = append(r.meta, v)
		r.mu.Unlock()
	}
}

// End terminates the connection through the handle received at START. It
// reports false when no handle has been received yet.
func (r *Recorder[T, M]) End(err error) bool {
	r.mu.Lock()
	handle := r.handle
	if handle != nil {
		r.ended = true
	}
	r.mu.Unlock()
	if handle == nil {
		return false
	}
	tallbag.End(handle, err)
	return true
}

// Events returns a snapshot copy of the recorded calls.
func (r *Recorder[T, M]) Events() []Event[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event[T], len(r.events))
	copy(out, r.events)
	return out
}

// Values returns the DATA values in arrival order.
func (r *Recorder[T, M]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, 0, r.data)
	for _, ev := range r.events {
		if ev.Kind == tallbag.KindData {
			out = append(out, ev.Value)
		}
	}
	return out
}

// Kinds returns the kinds of the recorded calls in order.
func (r *Recorder[T, M]) Kinds() []tallbag.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]tallbag.Kind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

// Signals returns a snapshot copy of the recorded metadata.
func (r *Recorder[T, M]) Signals() []M {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]M, len(r.meta))
	copy(out, r.meta)
	return out
}

// Ended reports whether the recorder received or sent END.
func (r *Recorder[T, M]) Ended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ended
}

// Reset clears recorded calls and signals.
func (r *Recorder[T, M]) Reset() {
	r.mu.Lock()
	r.events = nil
	r.meta = nil
	r.data = 0
	r.mu.Unlock()
}
