package resolver

import (
	"testing"
	"time"

	"github.com/danielpatrickdp/drivesafe-controller/internal/callerid"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func ringing(caller string, at time.Time) RawNotification {
	return RawNotification{Kind: KindRinging, Caller: caller, At: at}
}

func TestKnownCallerResolvesImmediately(t *testing.T) {
	r := New(DefaultConfig())

	res, ok := r.Observe(ringing("+15551234567", t0))
	if !ok {
		t.Fatal("known caller must resolve immediately")
	}
	if res.Caller != callerid.CallerID("+15551234567") {
		t.Fatalf("expected +15551234567, got %s", res.Caller)
	}
	if !res.ObservedAt.Equal(t0) {
		t.Fatalf("expected observedAt=%v, got %v", t0, res.ObservedAt)
	}
}

func TestDuplicateWithinWindowSuppressed(t *testing.T) {
	r := New(DefaultConfig())

	if _, ok := r.Observe(ringing("5551234567", t0)); !ok {
		t.Fatal("first notification must resolve")
	}
	if _, ok := r.Observe(ringing("5551234567", t0.Add(500*time.Millisecond))); ok {
		t.Fatal("duplicate within dedup window must be suppressed")
	}
}

func TestDuplicateBeyondWindowResolves(t *testing.T) {
	r := New(DefaultConfig())

	r.Observe(ringing("5551234567", t0))
	res, ok := r.Observe(ringing("5551234567", t0.Add(2500*time.Millisecond)))
	if !ok {
		t.Fatal("notification beyond dedup window is a new physical call")
	}
	if res.Caller != callerid.CallerID("5551234567") {
		t.Fatalf("unexpected caller %s", res.Caller)
	}
}

func TestDuplicateCountryCodeVariantSuppressed(t *testing.T) {
	r := New(DefaultConfig())

	r.Observe(ringing("+15551234567", t0))
	if _, ok := r.Observe(ringing("5551234567", t0.Add(300*time.Millisecond))); ok {
		t.Fatal("suffix-matching duplicate must be suppressed")
	}
}

func TestUnknownBuffersThenFires(t *testing.T) {
	cfg := DefaultConfig()
	r := New(cfg)

	if _, ok := r.Observe(ringing("", t0)); ok {
		t.Fatal("unknown caller must not resolve immediately")
	}

	fireAt, gen, ok := r.Deadline()
	if !ok {
		t.Fatal("expected a pending deadline")
	}
	if !fireAt.Equal(t0.Add(cfg.UnknownGrace)) {
		t.Fatalf("expected fire at t0+%v, got %v", cfg.UnknownGrace, fireAt)
	}

	res, ok := r.FireTimer(gen)
	if !ok {
		t.Fatal("timer fire must resolve the buffered unknown")
	}
	if !res.Caller.IsUnknown() {
		t.Fatalf("expected Unknown, got %s", res.Caller)
	}
	if !res.ObservedAt.Equal(fireAt) {
		t.Fatalf("expected observedAt=%v, got %v", fireAt, res.ObservedAt)
	}
	if _, _, ok := r.Deadline(); ok {
		t.Fatal("deadline must clear after fire")
	}
}

func TestLateKnownNumberSupersedesUnknown(t *testing.T) {
	r := New(DefaultConfig())

	r.Observe(ringing("", t0))
	_, gen, _ := r.Deadline()

	res, ok := r.Observe(ringing("+15551234567", t0.Add(300*time.Millisecond)))
	if !ok {
		t.Fatal("late-arriving known number must resolve immediately")
	}
	if res.Caller != callerid.CallerID("+15551234567") {
		t.Fatalf("expected known number, got %s", res.Caller)
	}

	if _, _, ok := r.Deadline(); ok {
		t.Fatal("pending buffer must be cancelled by the known number")
	}
	if _, ok := r.FireTimer(gen); ok {
		t.Fatal("cancelled timer firing late must be a no-op")
	}
}

func TestSecondUnknownRidesExistingBuffer(t *testing.T) {
	r := New(DefaultConfig())

	r.Observe(ringing("", t0))
	first, gen, _ := r.Deadline()

	r.Observe(ringing("", t0.Add(200*time.Millisecond)))
	fireAt, gen2, ok := r.Deadline()
	if !ok {
		t.Fatal("expected buffer to survive")
	}
	if gen2 != gen || !fireAt.Equal(first) {
		t.Fatal("second unknown must not reschedule the buffer")
	}

	if res, ok := r.FireTimer(gen); !ok || !res.Caller.IsUnknown() {
		t.Fatal("buffer fires exactly once")
	}
}

func TestDisconnectedCancelsBuffer(t *testing.T) {
	r := New(DefaultConfig())

	r.Observe(ringing("", t0))
	_, gen, _ := r.Deadline()

	r.Observe(RawNotification{Kind: KindDisconnected, At: t0.Add(400 * time.Millisecond)})

	if _, _, ok := r.Deadline(); ok {
		t.Fatal("disconnect mid-grace must cancel the buffer")
	}
	if _, ok := r.FireTimer(gen); ok {
		t.Fatal("no event may resolve for a call that disconnected mid-grace")
	}
}

func TestDisconnectedProducesNoEvent(t *testing.T) {
	r := New(DefaultConfig())
	if _, ok := r.Observe(RawNotification{Kind: KindDisconnected, At: t0}); ok {
		t.Fatal("disconnected must not resolve an event")
	}
}

func TestOffhookIgnored(t *testing.T) {
	r := New(DefaultConfig())
	if _, ok := r.Observe(RawNotification{Kind: KindOffhook, Caller: "5551234567", At: t0}); ok {
		t.Fatal("offhook carries no new caller information")
	}
}

func TestKnownAfterResolvedUnknownWithinWindow(t *testing.T) {
	// Grace expired, unknown resolved; the real number then arrives within
	// the dedup window. It is preferred information for the same physical
	// call and resolves (Unknown never matches for dedup purposes).
	r := New(DefaultConfig())

	r.Observe(ringing("", t0))
	_, gen, _ := r.Deadline()
	r.FireTimer(gen)

	res, ok := r.Observe(ringing("9876543210", t0.Add(time.Second)))
	if !ok {
		t.Fatal("known number after a resolved unknown must resolve")
	}
	if res.Caller != callerid.CallerID("9876543210") {
		t.Fatalf("expected known number, got %s", res.Caller)
	}
}

func TestCancelPending(t *testing.T) {
	r := New(DefaultConfig())
	r.Observe(ringing("", t0))
	_, gen, _ := r.Deadline()

	r.CancelPending()

	if _, _, ok := r.Deadline(); ok {
		t.Fatal("expected no deadline after cancel")
	}
	if _, ok := r.FireTimer(gen); ok {
		t.Fatal("stale fire after cancel must be a no-op")
	}
}

func TestResetClearsSuppression(t *testing.T) {
	r := New(DefaultConfig())
	r.Observe(ringing("5551234567", t0))
	r.Reset()

	if _, ok := r.Observe(ringing("5551234567", t0.Add(100*time.Millisecond))); !ok {
		t.Fatal("reset must clear dedup suppression state")
	}
}
