package replay

import (
	"path/filepath"
	"testing"
)

func runFixture(t *testing.T, name string) (*Fixture, Result) {
	t.Helper()
	f, err := LoadFixture(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	res, err := Replay(f)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	return f, res
}

func TestReplayCommuteFixture(t *testing.T) {
	f, res := runFixture(t, "commute.json")

	if err := Verify(f, res); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(res.Trips) != 1 {
		t.Fatalf("expected one completed trip, got %d", len(res.Trips))
	}

	// Only the two fresh known callers reply; the duplicate ring, the
	// withheld number, the urgent repeat, and the VIP all stay silent.
	var smsCount int
	for _, a := range res.Actions {
		if a.Kind == "send_sms" {
			smsCount++
		}
	}
	if smsCount != 2 {
		t.Fatalf("expected 2 auto-replies, got %d (%v)", smsCount, res.Actions)
	}
}

func TestReplayVoiceConfirmFixture(t *testing.T) {
	f, res := runFixture(t, "voice_confirm.json")

	if err := Verify(f, res); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	var kinds []string
	for _, a := range res.Actions {
		kinds = append(kinds, a.Kind)
	}
	want := []string{"speak", "capture_voice", "accept_call"}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("action %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}
}

func TestReplayDeterministic(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "commute.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}

	first, err := Replay(f)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	second, err := Replay(f)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}

	if len(first.Outcomes) != len(second.Outcomes) {
		t.Fatalf("runs differ: %d vs %d outcomes", len(first.Outcomes), len(second.Outcomes))
	}
	for i := range first.Outcomes {
		a, b := first.Outcomes[i], second.Outcomes[i]
		if a.Caller != b.Caller || a.Status != b.Status || !a.At.Equal(b.At) {
			t.Fatalf("outcome %d differs between runs: %v vs %v", i, a, b)
		}
	}
	if len(first.Actions) != len(second.Actions) {
		t.Fatalf("runs differ: %d vs %d actions", len(first.Actions), len(second.Actions))
	}
}

func TestSummarize(t *testing.T) {
	_, res := runFixture(t, "commute.json")

	s := Summarize(res)
	if s.TotalCalls != 5 {
		t.Fatalf("expected 5 calls, got %d", s.TotalCalls)
	}
	if s.ByStatus["replied"] != 2 || s.ByStatus["urgent_alert"] != 1 {
		t.Fatalf("unexpected status counts: %v", s.ByStatus)
	}
	if s.Trips != 1 {
		t.Fatalf("expected 1 trip, got %d", s.Trips)
	}
}

func TestReplayUnknownEventKind(t *testing.T) {
	f := &Fixture{Events: []FixtureEvent{{Kind: "teleport"}}}
	if _, err := Replay(f); err == nil {
		t.Fatal("expected error for unknown event kind")
	}
}
