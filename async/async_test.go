package async

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/danmuck/tallbag"
	"github.com/danmuck/tallbag/internal/testutil/testlog"
	"github.com/danmuck/tallbag/sink"
	"github.com/danmuck/tallbag/source"
)

func TestCollectFromChan(t *testing.T) {
	testlog.Start(t)

	ch := make(chan int)
	go func() {
		defer close(ch)
		for i := 1; i <= 5; i++ {
			ch <- i
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := Collect(ctx, FromChan[int, string](ch), nil)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if !slices.Equal(got, []int{1, 2, 3, 4, 5}) {
		t.Fatalf("unexpected values %v", got)
	}
}

func TestCollectTimeoutEndsConnection(t *testing.T) {
	testlog.Start(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	got, err := Collect(ctx, source.Never[int, string](), nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("unexpected values %v", got)
	}
}

func TestFromChanCancelStopsReader(t *testing.T) {
	testlog.Start(t)

	ch := make(chan int)
	src := FromChan[int, string](ch)
	rec := sink.NewRecorder[int, string]()
	conn := tallbag.Connect(src, tallbag.Sink[int, string](rec), nil)

	ch <- 1
	deadline := time.Now().Add(time.Second)
	for len(rec.Values()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !rec.End(nil) {
		t.Fatalf("recorder had no handle")
	}
	<-conn.Done()

	select {
	case ch <- 2:
		t.Fatalf("reader still running after cancel")
	case <-time.After(50 * time.Millisecond):
	}
	if got := rec.Values(); !slices.Equal(got, []int{1}) {
		t.Fatalf("unexpected values %v", got)
	}
}

func TestFromChanIsSingleUse(t *testing.T) {
	testlog.Start(t)

	ch := make(chan int)
	close(ch)
	src := FromChan[int, string](ch)
	first := tallbag.Connect(src, tallbag.Sink[int, string](sink.NewRecorder[int, string]()), nil)
	<-first.Done()

	second := tallbag.Connect(src, tallbag.Sink[int, string](sink.NewRecorder[int, string]()), nil)
	if !errors.Is(second.Err(), tallbag.ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", second.Err())
	}
}

func TestCollectAllIsolatesFailures(t *testing.T) {
	testlog.Start(t)

	boom := errors.New("boom")
	srcs := []tallbag.Source[int, string]{
		source.FromSlice[int, string]([]int{1, 2}),
		source.Fail[int, string](boom),
		source.FromSlice[int, string]([]int{3}),
	}
	results, err := CollectAll(context.Background(), 2, srcs)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !slices.Equal(results[0].Values, []int{1, 2}) || results[0].Err != nil {
		t.Fatalf("first result disturbed: %+v", results[0])
	}
	if !errors.Is(results[1].Err, boom) {
		t.Fatalf("second result: %+v", results[1])
	}
	if !slices.Equal(results[2].Values, []int{3}) || results[2].Err != nil {
		t.Fatalf("third result disturbed: %+v", results[2])
	}
}
