package tallbag

import (
	"errors"
	"testing"
)

func TestStateNextTable(t *testing.T) {
	cases := []struct {
		name string
		from State
		kind Kind
		dir  Direction
		want State
		err  error
	}{
		{"idle start", StateIdle, KindStart, Upstream, StateStarting, nil},
		{"idle data", StateIdle, KindData, Downstream, StateIdle, ErrNotStarted},
		{"idle end", StateIdle, KindEnd, Downstream, StateIdle, ErrNotStarted},
		{"idle pull", StateIdle, KindData, Upstream, StateIdle, ErrNotStarted},
		{"starting reply", StateStarting, KindStart, Downstream, StateActive, nil},
		{"starting restart", StateStarting, KindStart, Upstream, StateStarting, ErrAlreadyStarted},
		{"starting push", StateStarting, KindData, Downstream, StateActive, nil},
		{"starting end", StateStarting, KindEnd, Downstream, StateEnded, nil},
		{"starting cancel", StateStarting, KindEnd, Upstream, StateEnded, nil},
		{"active data", StateActive, KindData, Downstream, StateActive, nil},
		{"active pull", StateActive, KindData, Upstream, StateActive, nil},
		{"active restart", StateActive, KindStart, Upstream, StateActive, ErrAlreadyStarted},
		{"active second reply", StateActive, KindStart, Downstream, StateActive, ErrAlreadyStarted},
		{"active end", StateActive, KindEnd, Downstream, StateEnded, nil},
		{"ended end", StateEnded, KindEnd, Upstream, StateEnded, nil},
		{"ended data", StateEnded, KindData, Downstream, StateEnded, ErrEnded},
		{"ended start", StateEnded, KindStart, Upstream, StateEnded, ErrEnded},
		{"reserved idle", StateIdle, KindReserved3, Downstream, StateIdle, nil},
		{"reserved active", StateActive, KindReserved9, Upstream, StateActive, nil},
		{"unknown numeric", StateActive, Kind(42), Downstream, StateActive, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.from.Next(tc.kind, tc.dir)
			if got != tc.want {
				t.Fatalf("state got=%s want=%s", got, tc.want)
			}
			if tc.err == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.err != nil && !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
		})
	}
}

func TestKindClassification(t *testing.T) {
	for k := KindStart; k <= KindEnd; k++ {
		if !k.Defined() || k.Reserved() {
			t.Fatalf("kind %d should be defined", k)
		}
	}
	for k := KindReserved3; k <= MaxKind; k++ {
		if k.Defined() || !k.Reserved() {
			t.Fatalf("kind %d should be reserved", k)
		}
	}
	if !Kind(200).Reserved() {
		t.Fatalf("numeric kinds past MaxKind must be reserved")
	}
}

func TestKindString(t *testing.T) {
	want := map[Kind]string{
		KindStart:     "start",
		KindData:      "data",
		KindEnd:       "end",
		KindReserved3: "reserved3",
		KindReserved9: "reserved9",
		Kind(12):      "reserved(12)",
	}
	for k, s := range want {
		if got := k.String(); got != s {
			t.Fatalf("Kind(%d).String() got=%q want=%q", k, got, s)
		}
	}
}

func TestViolationReason(t *testing.T) {
	err := violation(ErrEnded, StateEnded, KindData, Downstream)
	if got := violationReason(err); got != "ended" {
		t.Fatalf("unexpected reason: %q", got)
	}
	if got := err.Error(); got != "tallbag: call after end: downstream data in state ended" {
		t.Fatalf("unexpected message: %q", got)
	}
}
