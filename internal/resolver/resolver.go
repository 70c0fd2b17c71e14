// Package resolver turns the raw telephony notification stream into at most
// one resolved event per physical call.
//
// Mobile telephony stacks routinely deliver a blank caller id first and the
// real number a fraction of a second later, plus duplicate ringing
// transitions for the same call. The resolver absorbs both: duplicates are
// suppressed inside a dedup window, and unknown-caller notifications are
// buffered for a short grace period in case the real number arrives late.
//
// The Resolver holds no timer of its own. It exposes the pending deadline
// and a generation token; the owning event loop arms the timer and calls
// FireTimer. A fire carrying a stale generation is a guaranteed no-op, which
// is what makes cancellation race-free under the single-goroutine model.
package resolver

// #region imports
import (
	"time"

	"github.com/danielpatrickdp/drivesafe-controller/internal/callerid"
)

// #endregion

// #region raw-notification

// Kind tags a raw telephony notification.
type Kind string

const (
	KindRinging      Kind = "ringing"
	KindIncoming     Kind = "incoming"
	KindOffhook      Kind = "offhook"
	KindDisconnected Kind = "disconnected"
)

// RawNotification is one noisy event from the telephony layer. Caller may be
// empty or garbage; At is the arrival time.
type RawNotification struct {
	Kind   Kind
	Caller string
	At     time.Time
}

// #endregion

// #region resolved

// Resolved is the single canonical representation of a physical call.
type Resolved struct {
	Caller     callerid.CallerID
	ObservedAt time.Time
}

// #endregion

// #region config

// Config holds the resolver timing windows. Both absorb telephony-stack
// notification jitter and are tunable.
type Config struct {
	DedupWindow  time.Duration // duplicate transitions inside this window collapse
	UnknownGrace time.Duration // how long an unknown caller waits for a late number
}

// DefaultConfig returns the empirically chosen windows.
func DefaultConfig() Config {
	return Config{
		DedupWindow:  2000 * time.Millisecond,
		UnknownGrace: 800 * time.Millisecond,
	}
}

// #endregion

// #region pending

// pendingUnknown is the single buffered unknown-caller notification awaiting
// its grace window. At most one exists at a time.
type pendingUnknown struct {
	scheduledAt time.Time
	fireAt      time.Time
	gen         uint64
}

// #endregion

// #region resolver

// Resolver deduplicates and resolves raw notifications. Not goroutine-safe;
// owned by the engine's event goroutine.
type Resolver struct {
	cfg     Config
	pending *pendingUnknown
	last    *Resolved // most recent resolved event, for suppression only
	gen     uint64    // increments on every schedule/cancel
}

// New returns a Resolver with the given windows.
func New(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// #endregion

// #region observe

// Observe processes one raw notification. It returns the resolved event and
// true when the notification resolves immediately; unknown callers resolve
// later via FireTimer.
func (r *Resolver) Observe(ev RawNotification) (Resolved, bool) {
	switch ev.Kind {
	case KindRinging, KindIncoming:
		return r.observeRinging(ev)
	case KindDisconnected:
		// Call ended before resolution: the buffered unknown never fires.
		r.cancelPending()
		return Resolved{}, false
	default:
		// Offhook and anything else carry no caller information.
		return Resolved{}, false
	}
}

func (r *Resolver) observeRinging(ev RawNotification) (Resolved, bool) {
	caller := callerid.Normalize(ev.Caller)

	if caller.IsUnknown() {
		// One buffer per physical call; a second unknown transition rides
		// the existing one.
		if r.pending == nil {
			r.gen++
			r.pending = &pendingUnknown{
				scheduledAt: ev.At,
				fireAt:      ev.At.Add(r.cfg.UnknownGrace),
				gen:         r.gen,
			}
		}
		return Resolved{}, false
	}

	// A known number supersedes any buffered unknown for the same physical
	// call: the later-known number is strictly preferred information.
	r.cancelPending()

	if r.last != nil && !r.last.Caller.IsUnknown() &&
		callerid.Match(r.last.Caller, caller) &&
		ev.At.Sub(r.last.ObservedAt) < r.cfg.DedupWindow {
		// Duplicate transition of the same physical call.
		return Resolved{}, false
	}

	res := Resolved{Caller: caller, ObservedAt: ev.At}
	r.last = &res
	return res, true
}

// #endregion

// #region timer

// Deadline returns the fire time and generation of the pending unknown
// buffer, if one exists. The owning loop arms its timer from this.
func (r *Resolver) Deadline() (time.Time, uint64, bool) {
	if r.pending == nil {
		return time.Time{}, 0, false
	}
	return r.pending.fireAt, r.pending.gen, true
}

// FireTimer resolves the pending unknown buffer. A gen that does not match
// the current buffer identifies a cancelled timer firing late; that is a
// guaranteed no-op, never an error.
func (r *Resolver) FireTimer(gen uint64) (Resolved, bool) {
	if r.pending == nil || r.pending.gen != gen {
		return Resolved{}, false
	}
	res := Resolved{Caller: callerid.Unknown, ObservedAt: r.pending.fireAt}
	r.pending = nil
	r.last = &res
	return res, true
}

// CancelPending drops any buffered unknown call. Used when driving mode
// stops with a grace window in flight.
func (r *Resolver) CancelPending() {
	r.cancelPending()
}

func (r *Resolver) cancelPending() {
	if r.pending != nil {
		r.pending = nil
		r.gen++
	}
}

// #endregion

// #region reset

// Reset clears the pending buffer and the suppression state.
func (r *Resolver) Reset() {
	r.cancelPending()
	r.last = nil
}

// #endregion
