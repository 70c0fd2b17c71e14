// Package history tracks per-caller call timestamps for urgency decisions.
//
// CallHistory is an explicitly owned instance: the engine creates one at
// startup and resets it only on an explicit user action. It is not
// goroutine-safe; in this architecture all mutation happens on the single
// event-processing goroutine.
package history

// #region imports
import (
	"time"

	"github.com/danielpatrickdp/drivesafe-controller/internal/callerid"
)

// #endregion

// #region call-history

// CallHistory maps each caller id to its ascending call timestamps.
// Entries are append-only until Reset.
type CallHistory struct {
	calls map[callerid.CallerID][]time.Time
}

// New returns an empty CallHistory.
func New() *CallHistory {
	return &CallHistory{calls: make(map[callerid.CallerID][]time.Time)}
}

// #endregion

// #region append

// Append records a call from the caller at t. If t precedes the caller's
// last recorded timestamp it is clamped up to it, keeping the per-caller
// sequence monotonically non-decreasing.
func (h *CallHistory) Append(caller callerid.CallerID, t time.Time) {
	key := h.keyFor(caller)
	seq := h.calls[key]
	if n := len(seq); n > 0 && t.Before(seq[n-1]) {
		t = seq[n-1]
	}
	h.calls[key] = append(seq, t)
}

// #endregion

// #region lookup

// Last returns the most recent timestamp recorded for the caller.
func (h *CallHistory) Last(caller callerid.CallerID) (time.Time, bool) {
	seq := h.calls[h.keyFor(caller)]
	if len(seq) == 0 {
		return time.Time{}, false
	}
	return seq[len(seq)-1], true
}

// Count returns how many calls are recorded for the caller.
func (h *CallHistory) Count(caller callerid.CallerID) int {
	return len(h.calls[h.keyFor(caller)])
}

// Callers returns the number of distinct caller identities tracked.
func (h *CallHistory) Callers() int {
	return len(h.calls)
}

// #endregion

// #region reset

// Reset discards all recorded history.
func (h *CallHistory) Reset() {
	h.calls = make(map[callerid.CallerID][]time.Time)
}

// #endregion

// #region key

// keyFor collapses callers that match by suffix containment onto one map
// key, so "+15551234567" and "5551234567" share a history sequence.
func (h *CallHistory) keyFor(caller callerid.CallerID) callerid.CallerID {
	if caller.IsUnknown() {
		return callerid.Unknown
	}
	for key := range h.calls {
		if callerid.Match(key, caller) {
			return key
		}
	}
	return caller
}

// #endregion
