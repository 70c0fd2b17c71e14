package classify

// #region imports
import (
	"time"

	"github.com/danielpatrickdp/drivesafe-controller/internal/callerid"
	"github.com/danielpatrickdp/drivesafe-controller/internal/history"
)

// #endregion

// #region result

// Result is the urgency classification for one resolved call.
// IsUrgent and IsFirstContact are mutually exclusive and exhaustive: a call
// is either an urgent repeat or a fresh contact. Threshold carries the
// window the call was judged against, so downstream messages can name it.
type Result struct {
	Caller         callerid.CallerID
	ObservedAt     time.Time
	IsUrgent       bool
	IsFirstContact bool
	Threshold      time.Duration
}

// #endregion

// #region config

// Config holds the urgency threshold.
type Config struct {
	UrgencyThreshold time.Duration // repeat within this window is urgent
}

// DefaultConfig returns the 2-minute threshold used by the original app.
func DefaultConfig() Config {
	return Config{UrgencyThreshold: 2 * time.Minute}
}

// #endregion

// #region classify

// Classify decides whether a call is an urgent repeat or a first contact,
// then appends now to the caller's history unconditionally.
//
// The unconditional append includes Unknown, so repeated withheld-number
// calls in quick succession also classify urgent. This conflates physically
// distinct unknown callers; it is a known accuracy limitation carried over
// deliberately, not a bug.
func Classify(h *history.CallHistory, caller callerid.CallerID, now time.Time, cfg Config) Result {
	var urgent bool
	if last, ok := h.Last(caller); ok {
		urgent = now.Sub(last) < cfg.UrgencyThreshold
	}

	h.Append(caller, now)

	return Result{
		Caller:         caller,
		ObservedAt:     now,
		IsUrgent:       urgent,
		IsFirstContact: !urgent,
		Threshold:      cfg.UrgencyThreshold,
	}
}

// #endregion
