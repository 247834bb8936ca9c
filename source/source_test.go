package source

import (
	"errors"
	"slices"
	"testing"

	"github.com/danmuck/tallbag"
	"github.com/danmuck/tallbag/internal/testutil/testlog"
	"github.com/danmuck/tallbag/sink"
)

func TestFromFuncErrorEndsConnection(t *testing.T) {
	testlog.Start(t)

	broken := errors.New("broken")
	src := FromFunc[int, string](func(emit func(int) bool) error {
		emit(1)
		return broken
	})
	rec := sink.NewRecorder[int, string]()
	conn := tallbag.Connect(src, tallbag.Sink[int, string](rec), nil)

	if got := rec.Values(); !slices.Equal(got, []int{1}) {
		t.Fatalf("unexpected values %v", got)
	}
	if !errors.Is(conn.Err(), broken) {
		t.Fatalf("expected broken, got %v", conn.Err())
	}
}

func TestFromSliceSinkEndsMidway(t *testing.T) {
	testlog.Start(t)

	rec := sink.NewRecorder[int, string](sink.EndAfter(2))
	conn := tallbag.Connect(FromSlice[int, string]([]int{1, 2, 3, 4}), tallbag.Sink[int, string](rec), nil)

	if got := rec.Values(); !slices.Equal(got, []int{1, 2}) {
		t.Fatalf("unexpected values %v", got)
	}
	if conn.Outcome() != tallbag.OutcomeCancelled {
		t.Fatalf("unexpected outcome %q", conn.Outcome())
	}
}

func TestNeverWaitsForSink(t *testing.T) {
	testlog.Start(t)

	rec := sink.NewRecorder[int, string]()
	conn := tallbag.Connect(Never[int, string](), tallbag.Sink[int, string](rec), nil)
	if conn.State() != tallbag.StateActive {
		t.Fatalf("unexpected state %s", conn.State())
	}
	if !rec.End(nil) {
		t.Fatalf("recorder had no handle")
	}
	if conn.State() != tallbag.StateEnded {
		t.Fatalf("unexpected state %s", conn.State())
	}
}

func TestIterateExhaustsToEnd(t *testing.T) {
	testlog.Start(t)

	rec := sink.NewRecorder[string, string](sink.PullOnStart())
	tallbag.Connect(Iterate[string, string](slices.Values([]string{"a"})), tallbag.Sink[string, string](rec), nil)

	want := []tallbag.Kind{tallbag.KindStart, tallbag.KindData, tallbag.KindEnd}
	if got := rec.Kinds(); !slices.Equal(got, want) {
		t.Fatalf("unexpected kinds %v", got)
	}
}

func TestIterateWaitsForPull(t *testing.T) {
	testlog.Start(t)

	rec := sink.NewRecorder[int, string]()
	conn := tallbag.Connect(Iterate[int, string](slices.Values([]int{1, 2})), tallbag.Sink[int, string](rec), nil)
	if got := rec.Values(); len(got) != 0 {
		t.Fatalf("pull source pushed %v", got)
	}
	rec.End(nil)
	if conn.Outcome() != tallbag.OutcomeCancelled {
		t.Fatalf("unexpected outcome %q", conn.Outcome())
	}
}
