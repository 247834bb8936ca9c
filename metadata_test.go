package tallbag_test

import (
	"slices"
	"testing"

	"github.com/danmuck/tallbag"
)

func TestFanout(t *testing.T) {
	if tallbag.Fanout[string]() != nil {
		t.Fatalf("empty fanout should be nil")
	}
	if tallbag.Fanout[string](nil, nil) != nil {
		t.Fatalf("nil-only fanout should be nil")
	}

	var a, b []string
	ch := tallbag.Fanout[string](
		tallbag.MetaChannel[string](func(v string) { a = append(a, v) }),
		nil,
		tallbag.MetaChannel[string](func(v string) { b = append(b, v) }),
	)
	ch.Signal("x")
	ch.Signal("y")
	if !slices.Equal(a, []string{"x", "y"}) || !slices.Equal(b, []string{"x", "y"}) {
		t.Fatalf("unexpected fanout a=%v b=%v", a, b)
	}
}

func TestNilMetaChannelSignal(t *testing.T) {
	var ch tallbag.MetaChannel[int]
	ch.Signal(1)
}

func TestMessageFailed(t *testing.T) {
	if tallbag.EndMessage[int, tallbag.Void, string](nil).Failed() {
		t.Fatalf("END(nil) is normal completion")
	}
	if !tallbag.EndMessage[int, tallbag.Void, string](tallbag.ErrEnded).Failed() {
		t.Fatalf("END(err) is failure")
	}
	if tallbag.DataMessage[int, tallbag.Void, string](1).Failed() {
		t.Fatalf("DATA is never a failure")
	}
}
