package exchange

import "testing"

func TestConnState_String(t *testing.T) {
	cases := map[ConnState]string{
		StateDisconnected: "disconnected",
		StateConnecting:   "connecting",
		StateSubscribing:  "subscribing",
		StateReceiving:    "receiving",
		StateBackoff:      "backoff",
		ConnState(99):     "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("ConnState(%d).String() = %q, want %q", state, got, want)
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to ConnState }{
		{StateDisconnected, StateConnecting},
		{StateConnecting, StateSubscribing},
		{StateConnecting, StateBackoff},
		{StateSubscribing, StateReceiving},
		{StateSubscribing, StateBackoff},
		{StateReceiving, StateBackoff},
		{StateBackoff, StateConnecting},
	}
	for _, tr := range allowed {
		if !CanTransition(tr.from, tr.to) {
			t.Errorf("expected %s -> %s to be allowed", tr.from, tr.to)
		}
	}

	forbidden := []struct{ from, to ConnState }{
		{StateDisconnected, StateReceiving},
		{StateReceiving, StateSubscribing},
		{StateBackoff, StateReceiving},
		{StateConnecting, StateReceiving},
	}
	for _, tr := range forbidden {
		if CanTransition(tr.from, tr.to) {
			t.Errorf("expected %s -> %s to be rejected", tr.from, tr.to)
		}
	}
}
