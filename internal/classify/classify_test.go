package classify

import (
	"testing"
	"time"

	"github.com/danielpatrickdp/drivesafe-controller/internal/callerid"
	"github.com/danielpatrickdp/drivesafe-controller/internal/history"
)

func TestFirstContactNotUrgent(t *testing.T) {
	h := history.New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	res := Classify(h, "5551234567", now, DefaultConfig())

	if res.IsUrgent {
		t.Fatal("first contact must not be urgent")
	}
	if !res.IsFirstContact {
		t.Fatal("expected first contact")
	}
	if h.Count("5551234567") != 1 {
		t.Fatalf("expected history append, got %d entries", h.Count("5551234567"))
	}
}

func TestRepeatWithinThresholdIsUrgent(t *testing.T) {
	h := history.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cfg := Config{UrgencyThreshold: 120 * time.Second}

	Classify(h, "5551234567", base, cfg)
	res := Classify(h, "5551234567", base.Add(90*time.Second), cfg)

	if !res.IsUrgent {
		t.Fatal("repeat at +90s with 120s threshold must be urgent")
	}
	if res.IsFirstContact {
		t.Fatal("urgent repeat is not a first contact")
	}
}

func TestRepeatBeyondThresholdNotUrgent(t *testing.T) {
	h := history.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cfg := Config{UrgencyThreshold: 120 * time.Second}

	Classify(h, "5551234567", base, cfg)
	res := Classify(h, "5551234567", base.Add(150*time.Second), cfg)

	if res.IsUrgent {
		t.Fatal("repeat at +150s with 120s threshold must not be urgent")
	}
}

func TestRepeatAtExactThresholdNotUrgent(t *testing.T) {
	h := history.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cfg := Config{UrgencyThreshold: 120 * time.Second}

	Classify(h, "5551234567", base, cfg)
	res := Classify(h, "5551234567", base.Add(120*time.Second), cfg)

	if res.IsUrgent {
		t.Fatal("threshold comparison is strict; exact boundary is not urgent")
	}
}

func TestUnknownRepeatsFlagUrgent(t *testing.T) {
	h := history.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	Classify(h, callerid.Unknown, base, DefaultConfig())
	res := Classify(h, callerid.Unknown, base.Add(time.Minute), DefaultConfig())

	if !res.IsUrgent {
		t.Fatal("repeated unknown calls within the window classify urgent")
	}
}

func TestCountryCodeVariantIsUrgentRepeat(t *testing.T) {
	h := history.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	Classify(h, "+15551234567", base, DefaultConfig())
	res := Classify(h, "5551234567", base.Add(time.Minute), DefaultConfig())

	if !res.IsUrgent {
		t.Fatal("suffix-matching number must share urgency history")
	}
}
