package calls

import "testing"

func TestParseStatus(t *testing.T) {
	cases := map[string]CallStatus{
		"completed":   CallStatusCompleted,
		"In-Progress": CallStatusInProgress,
		"no_answer":   CallStatusNoAnswer,
		"answered":    CallStatusInProgress,
	}
	for in, want := range cases {
		got, ok := ParseStatus(in)
		if !ok || got != want {
			t.Fatalf("ParseStatus(%q) = %q %v, want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseStatus("exploded"); ok {
		t.Fatalf("expected unknown status to be rejected")
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []CallStatus{CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer, CallStatusBusy, CallStatusCanceled} {
		if !s.Terminal() {
			t.Fatalf("expected %q to be terminal", s)
		}
	}
	for _, s := range []CallStatus{CallStatusQueued, CallStatusInitiated, CallStatusRinging, CallStatusInProgress} {
		if s.Terminal() {
			t.Fatalf("expected %q to be non-terminal", s)
		}
	}
}
