// Package pipeline builds and runs the configurable demonstration pipeline
// shared by tallbagctl and the admin server.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/danmuck/tallbag"
	"github.com/danmuck/tallbag/async"
	"github.com/danmuck/tallbag/internal/config"
	"github.com/danmuck/tallbag/metatrace"
	"github.com/danmuck/tallbag/operator"
	"github.com/danmuck/tallbag/sink"
	"github.com/danmuck/tallbag/source"
	"github.com/rs/zerolog/log"
)

type Event struct {
	Kind  string `json:"kind"`
	Value string `json:"value,omitempty"`
	Err   string `json:"error,omitempty"`
}

// Report describes one finished run.
type Report struct {
	ID         uint64    `json:"id"`
	Mode       string    `json:"mode"`
	Events     []Event   `json:"events"`
	Values     []string  `json:"values"`
	Signals    []string  `json:"signals"`
	Outcome    string    `json:"outcome"`
	Err        string    `json:"error,omitempty"`
	Started    time.Time `json:"started"`
	DurationMS int64     `json:"duration_ms"`
	TraceFile  string    `json:"trace_file,omitempty"`
	Traced     uint64    `json:"traced,omitempty"`
}

// Failed reports whether the source ended the run with an error.
func (r Report) Failed() bool {
	return r.Outcome == string(tallbag.OutcomeError)
}

// Build returns the source described by p: the reference source for p.Mode,
// upper-cased when p.Upper is set, tapped so every value is also signalled
// as metadata. ctx bounds the feeder goroutine of chan mode.
func Build(ctx context.Context, p config.PipelineConfig) (tallbag.Source[string, string], error) {
	if err := config.ValidatePipeline(p); err != nil {
		return nil, err
	}
	values := slices.Clone(p.Values)

	var src tallbag.Source[string, string]
	switch p.Mode {
	case config.ModePush:
		if p.Fail == "" {
			src = source.FromSlice[string, string](values)
			break
		}
		reason := errors.New(p.Fail)
		src = source.FromFunc[string, string](func(emit func(string) bool) error {
			for _, v := range values {
				if !emit(v) {
					return nil
				}
			}
			return reason
		})
	case config.ModePull:
		src = source.Iterate[string, string](slices.Values(values))
	case config.ModeChan:
		ch := make(chan string)
		go func() {
			defer close(ch)
			for _, v := range values {
				select {
				case ch <- v:
				case <-ctx.Done():
					return
				}
			}
		}()
		src = async.FromChan[string, string](ch)
	}

	var ops []tallbag.Operator[string, string, string]
	if p.Upper {
		ops = append(ops, operator.Mapping[string, string, string](strings.ToUpper))
	}
	ops = append(ops,
		operator.Tapping[string, string](func(v string) (string, bool) {
			return "data:" + v, true
		}),
		operator.Observing[string, string](func(k tallbag.Kind, d tallbag.Direction) {
			log.Trace().Str("kind", k.String()).Str("dir", d.String()).Msg("pipeline hop")
		}),
	)
	return tallbag.Chain(src, ops...), nil
}

// Run builds the pipeline, connects it to a recording sink and waits until
// the run ends or p.Timeout elapses, in which case the sink ends the
// connection with the deadline error. The returned error covers setup only;
// the END reason is part of the report.
func Run(ctx context.Context, p config.PipelineConfig, opts ...tallbag.Option) (Report, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	src, err := Build(ctx, p)
	if err != nil {
		return Report{}, err
	}

	var recOpts []sink.RecorderOption
	if p.Mode == config.ModePull {
		recOpts = append(recOpts, sink.PullOnStart())
	}
	if p.Take > 0 {
		recOpts = append(recOpts, sink.EndAfter(p.Take))
	}
	rec := sink.NewRecorder[string, string](recOpts...)

	meta := rec.Meta()
	var (
		trace     *metatrace.Writer[string]
		traceFile *os.File
	)
	if p.TraceFile != "" {
		traceFile, err = os.Create(p.TraceFile)
		if err != nil {
			return Report{}, fmt.Errorf("open trace file: %w", err)
		}
		defer traceFile.Close()
		trace, err = metatrace.NewWriter[string](traceFile)
		if err != nil {
			return Report{}, err
		}
		meta = tallbag.Fanout(meta, trace.Channel())
	}

	finished := make(chan struct{})
	var once sync.Once
	watched := tallbag.Func[string, tallbag.Void, string](func(msg tallbag.Message[string, tallbag.Void, string]) {
		rec.Handle(msg)
		if msg.Kind == tallbag.KindEnd || rec.Ended() {
			once.Do(func() { close(finished) })
		}
	})

	started := time.Now()
	conn := tallbag.Connect(src, tallbag.Sink[string, string](watched), meta, opts...)
	select {
	case <-finished:
	case <-ctx.Done():
		conn.End(ctx.Err())
	}

	report := Report{
		ID:         conn.ID(),
		Mode:       p.Mode,
		Values:     rec.Values(),
		Signals:    rec.Signals(),
		Outcome:    string(conn.Outcome()),
		Started:    started,
		DurationMS: time.Since(started).Milliseconds(),
	}
	if err := conn.Err(); err != nil {
		report.Err = err.Error()
	}
	for _, ev := range rec.Events() {
		out := Event{Kind: ev.Kind.String()}
		if ev.Kind == tallbag.KindData {
			out.Value = ev.Value
		}
		if ev.Err != nil {
			out.Err = ev.Err.Error()
		}
		report.Events = append(report.Events, out)
	}
	if trace != nil {
		report.TraceFile = p.TraceFile
		report.Traced = trace.Count()
		if err := trace.Err(); err != nil {
			log.Warn().Str("path", p.TraceFile).Err(err).Msg("metadata trace incomplete")
		}
	}
	log.Debug().
		Uint64("conn", report.ID).
		Str("mode", report.Mode).
		Str("outcome", report.Outcome).
		Int("values", len(report.Values)).
		Msg("pipeline run finished")
	return report, nil
}
