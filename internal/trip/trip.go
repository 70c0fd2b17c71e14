package trip

// #region imports
import (
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/drivesafe-controller/internal/policy"
)

// #endregion

// #region records

// CallOutcome is the immutable per-call record appended while a trip is
// active.
type CallOutcome struct {
	Caller string         `json:"caller"`
	Status policy.Outcome `json:"status"`
	Reason string         `json:"reason,omitempty"`
	At     time.Time      `json:"at"`
}

// EventKind tags a non-call trip log entry.
type EventKind string

const (
	EventStarted       EventKind = "started"
	EventStopped       EventKind = "stopped"
	EventDispatchError EventKind = "dispatch_error"
	EventVoiceAccept   EventKind = "voice_accept"
	EventVoiceDecline  EventKind = "voice_decline"
)

// Event is an auxiliary trip log entry: status transitions, dispatch
// failures, voice actions.
type Event struct {
	Kind   EventKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// Session is one continuous interval of driving mode.
type Session struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
	Calls     []CallOutcome `json:"calls"`
	Events    []Event       `json:"events,omitempty"`
}

// #endregion

// #region mode

// Mode is the aggregator state.
type Mode string

const (
	ModeIdle   Mode = "idle"
	ModeActive Mode = "active"
)

// #endregion

// #region config

// Config bounds the retained trip history.
type Config struct {
	MaxHistory int // completed sessions kept, most-recent-first
}

// DefaultConfig keeps the 20 most recent trips.
func DefaultConfig() Config {
	return Config{MaxHistory: 20}
}

// #endregion

// #region aggregator

// Aggregator owns the live trip session and the bounded history. Not
// goroutine-safe; owned by the engine's event goroutine, which makes each
// outcome append atomic with respect to the event stream.
type Aggregator struct {
	cfg         Config
	mode        Mode
	current     *Session
	history     []Session // most-recent-first
	alertActive bool
}

// NewAggregator starts idle with previously persisted history.
func NewAggregator(cfg Config, loaded []Session) *Aggregator {
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = DefaultConfig().MaxHistory
	}
	hist := make([]Session, len(loaded))
	copy(hist, loaded)
	if len(hist) > cfg.MaxHistory {
		hist = hist[:cfg.MaxHistory]
	}
	return &Aggregator{cfg: cfg, mode: ModeIdle, history: hist}
}

// Mode returns the current aggregator state.
func (a *Aggregator) Mode() Mode { return a.mode }

// #endregion

// #region start-stop

// Start begins a new trip session. A start while already active is an
// idempotent no-op and returns false.
func (a *Aggregator) Start(now time.Time) bool {
	if a.mode == ModeActive {
		return false
	}
	a.mode = ModeActive
	a.current = &Session{
		ID:        uuid.New().String(),
		StartedAt: now,
		Calls:     []CallOutcome{},
	}
	a.current.Events = append(a.current.Events, Event{Kind: EventStarted, At: now})
	return true
}

// Stop completes the live session: stamps the end time, moves it to the
// front of history, truncates to the configured bound, and clears the
// urgent-alert indicator. A stop while idle is an idempotent no-op and
// returns false.
func (a *Aggregator) Stop(now time.Time) (Session, bool) {
	if a.mode != ModeActive {
		return Session{}, false
	}
	s := a.current
	s.Events = append(s.Events, Event{Kind: EventStopped, At: now})
	ended := now
	s.EndedAt = &ended

	a.history = append([]Session{*s}, a.history...)
	if len(a.history) > a.cfg.MaxHistory {
		a.history = a.history[:a.cfg.MaxHistory]
	}

	a.mode = ModeIdle
	a.current = nil
	a.alertActive = false
	return *s, true
}

// #endregion

// #region record

// Record appends a call outcome to the live session in arrival order.
// Returns false when no trip is active.
func (a *Aggregator) Record(out CallOutcome) bool {
	if a.mode != ModeActive {
		return false
	}
	a.current.Calls = append(a.current.Calls, out)
	return true
}

// AddEvent appends an auxiliary entry to the live session log. Dropped
// silently while idle.
func (a *Aggregator) AddEvent(ev Event) {
	if a.mode != ModeActive {
		return
	}
	a.current.Events = append(a.current.Events, ev)
}

// ClearLiveLog empties the live session's call and event log without
// touching completed history. Fresh slices, not a truncation: snapshots
// handed out by Current must not see entries appended after the clear.
func (a *Aggregator) ClearLiveLog() {
	if a.mode != ModeActive {
		return
	}
	a.current.Calls = []CallOutcome{}
	a.current.Events = nil
}

// #endregion

// #region alert

// SetAlert marks the urgent-alert indicator active.
func (a *Aggregator) SetAlert() { a.alertActive = true }

// DismissAlert clears the indicator.
func (a *Aggregator) DismissAlert() { a.alertActive = false }

// AlertActive reports the indicator state.
func (a *Aggregator) AlertActive() bool { return a.alertActive }

// #endregion

// #region accessors

// Current returns a copy of the live session, if any.
func (a *Aggregator) Current() (Session, bool) {
	if a.current == nil {
		return Session{}, false
	}
	return *a.current, true
}

// History returns the completed sessions, most-recent-first.
func (a *Aggregator) History() []Session {
	out := make([]Session, len(a.history))
	copy(out, a.history)
	return out
}

// #endregion
