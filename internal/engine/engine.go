// Package engine coordinates the call arbitration pipeline: raw telephony
// notifications flow through the resolver, the classifier, and the
// disposition policy, and the resulting effects are dispatched to the
// device while the trip aggregator and call log record what happened.
//
// The Engine itself is synchronous and single-threaded: every method takes
// an explicit time and mutates state deterministically, which is what makes
// replay and testing exact. Loop wraps it with a goroutine, a channel, and
// the real grace timer.
package engine

// #region imports
import (
	"log"
	"time"

	"github.com/danielpatrickdp/drivesafe-controller/internal/callerid"
	"github.com/danielpatrickdp/drivesafe-controller/internal/classify"
	"github.com/danielpatrickdp/drivesafe-controller/internal/history"
	"github.com/danielpatrickdp/drivesafe-controller/internal/logging"
	"github.com/danielpatrickdp/drivesafe-controller/internal/policy"
	"github.com/danielpatrickdp/drivesafe-controller/internal/resolver"
	"github.com/danielpatrickdp/drivesafe-controller/internal/settings"
	"github.com/danielpatrickdp/drivesafe-controller/internal/store"
	"github.com/danielpatrickdp/drivesafe-controller/internal/trip"
)

// #endregion

// #region config

// Config aggregates the tunables of every pipeline stage.
type Config struct {
	Classify classify.Config
	Resolver resolver.Config
	Trip     trip.Config
}

// DefaultConfig returns the stock windows and bounds.
func DefaultConfig() Config {
	return Config{
		Classify: classify.DefaultConfig(),
		Resolver: resolver.DefaultConfig(),
		Trip:     trip.DefaultConfig(),
	}
}

// #endregion

// #region engine-struct

// Engine is the single-threaded arbitration core. Not goroutine-safe; owned
// by one event goroutine (see Loop) or driven directly by replay and tests.
type Engine struct {
	cfg      Config
	settings settings.Settings
	history  *history.CallHistory
	resolver *resolver.Resolver
	trips    *trip.Aggregator
	disp     Dispatcher
	st       *store.Store // nil in replay: no persistence, no call log

	// caller awaiting a voice answer/decline, if any
	voicePending callerid.CallerID
}

// #endregion

// #region constructor

// New builds an engine, loading persisted settings and trip history when a
// store is given. A corrupt settings blob falls back to defaults; a failed
// trip load starts with empty history. Neither is fatal.
func New(cfg Config, disp Dispatcher, st *store.Store) *Engine {
	set := settings.Default()
	var loaded []trip.Session

	if st != nil {
		var err error
		set, err = st.LoadSettings()
		if err != nil {
			log.Printf("[ENGINE] settings load failed, using defaults: %v", err)
		}
		loaded, err = st.LoadTrips()
		if err != nil {
			log.Printf("[ENGINE] trip history load failed, starting empty: %v", err)
			loaded = nil
		}
	}

	return &Engine{
		cfg:          cfg,
		settings:     set,
		history:      history.New(),
		resolver:     resolver.New(cfg.Resolver),
		trips:        trip.NewAggregator(cfg.Trip, loaded),
		disp:         disp,
		st:           st,
		voicePending: callerid.Unknown,
	}
}

// #endregion

// #region start-stop

// Start enters driving mode. Idempotent: a redundant start changes nothing.
// Urgency history survives trip boundaries: a caller who retries during a
// short stop still classifies as an urgent repeat. Only ResetHistory wipes
// it.
func (e *Engine) Start(now time.Time) bool {
	if !e.trips.Start(now) {
		return false
	}
	e.voicePending = callerid.Unknown
	log.Printf("[ENGINE] driving mode started")
	return true
}

// Stop leaves driving mode: any in-flight grace window is cancelled, the
// session is archived, and the trip history is persisted. Idempotent.
func (e *Engine) Stop(now time.Time) bool {
	if e.trips.Mode() != trip.ModeActive {
		return false
	}
	e.resolver.CancelPending()
	e.voicePending = callerid.Unknown

	done, _ := e.trips.Stop(now)
	log.Printf("[ENGINE] driving mode stopped: trip=%s calls=%d", done.ID, len(done.Calls))

	if e.st != nil {
		if err := e.st.SaveTrips(e.trips.History()); err != nil {
			log.Printf("[ENGINE] trip persist failed: %v", err)
		}
	}
	return true
}

// Active reports whether driving mode is on.
func (e *Engine) Active() bool {
	return e.trips.Mode() == trip.ModeActive
}

// #endregion

// #region pipeline

// HandleRaw feeds one raw telephony notification into the pipeline. Raw
// events arriving while driving mode is off are dropped.
func (e *Engine) HandleRaw(ev resolver.RawNotification) {
	if !e.Active() {
		return
	}
	if res, ok := e.resolver.Observe(ev); ok {
		e.handleResolved(res)
	}
}

// GraceDeadline exposes the pending grace-window deadline for the owning
// loop's timer.
func (e *Engine) GraceDeadline() (time.Time, uint64, bool) {
	return e.resolver.Deadline()
}

// FireGraceTimer resolves the buffered unknown call. Stale generations are
// no-ops, so a timer that fires after cancellation or stop is harmless.
func (e *Engine) FireGraceTimer(gen uint64) {
	if !e.Active() {
		return
	}
	if res, ok := e.resolver.FireTimer(gen); ok {
		e.handleResolved(res)
	}
}

// handleResolved runs one resolved call through classification, disposition,
// dispatch, and recording. Exactly one outcome is recorded per resolved call.
func (e *Engine) handleResolved(res resolver.Resolved) {
	cls := classify.Classify(e.history, res.Caller, res.ObservedAt, e.cfg.Classify)
	dec := policy.Decide(cls, e.settings)

	log.Printf("[ENGINE] call=%s urgent=%v → outcome=%s effects=%d",
		cls.Caller, cls.IsUrgent, dec.Outcome, len(dec.Effects))

	for _, eff := range dec.Effects {
		if err := e.dispatch(eff, res.Caller); err != nil {
			// Dispatch failures are transient: note them on the trip log and
			// keep going, the decision itself stands.
			log.Printf("[ENGINE] dispatch %s failed: %v", eff.Kind, err)
			e.trips.AddEvent(trip.Event{
				Kind:   trip.EventDispatchError,
				Detail: string(eff.Kind) + ": " + err.Error(),
				At:     res.ObservedAt,
			})
		}
	}

	e.trips.Record(trip.CallOutcome{
		Caller: string(res.Caller),
		Status: dec.Outcome,
		Reason: dec.Reason,
		At:     res.ObservedAt,
	})
	if dec.Outcome == policy.OutcomeUrgentAlert {
		e.trips.SetAlert()
	}

	e.logCall(res, cls, dec)
}

func (e *Engine) dispatch(eff policy.Effect, caller callerid.CallerID) error {
	switch eff.Kind {
	case policy.EffectSendSMS:
		return e.disp.SendSMS(eff.Caller, eff.Text)
	case policy.EffectDeclineCall:
		return e.disp.DeclineCall()
	case policy.EffectAcceptCall:
		return e.disp.AcceptCall()
	case policy.EffectSpeak:
		return e.disp.Speak(eff.Text)
	case policy.EffectCaptureVoice:
		e.voicePending = caller
		return e.disp.CaptureVoice()
	case policy.EffectLocalAlert:
		return e.disp.LocalAlert(eff.Caller, eff.Text)
	case policy.EffectVibrate:
		return e.disp.Vibrate(eff.Pattern)
	case policy.EffectNotify:
		return e.disp.Notify(eff.Title, eff.Text)
	default:
		return nil
	}
}

// #endregion

// #region call-log

func (e *Engine) logCall(res resolver.Resolved, cls classify.Result, dec policy.Decision) {
	if e.st == nil {
		return
	}

	hash, err := logging.ContextHash(logging.CallContext{
		Caller:         string(cls.Caller),
		IsUrgent:       cls.IsUrgent,
		IsFirstContact: cls.IsFirstContact,
		AutoDecline:    e.settings.AutoDecline,
		VoiceConfirm:   e.settings.VoiceConfirm,
		VIPNumbers:     e.settings.VIPNumbers,
		AutoReply:      e.settings.AutoReplyMessage,
	})
	if err != nil {
		log.Printf("[ENGINE] context hash failed: %v", err)
	}

	tripID := ""
	if cur, ok := e.trips.Current(); ok {
		tripID = cur.ID
	}

	err = logging.LogCall(e.st.DB(), logging.CallEntry{
		TripID:      tripID,
		Caller:      string(res.Caller),
		Outcome:     string(dec.Outcome),
		Reason:      dec.Reason,
		ContextHash: hash,
		ObservedAt:  res.ObservedAt,
	})
	if err != nil {
		log.Printf("[ENGINE] call log write failed: %v", err)
	}
}

// #endregion

// #region voice

// VoiceCommand resolves a pending voice confirmation with recognized text.
// Unrecognized text leaves the call pending; a recognized command accepts or
// declines the call and notes it on the trip log.
func (e *Engine) VoiceCommand(text string, now time.Time) policy.VoiceAction {
	if !e.Active() || e.voicePending.IsUnknown() {
		return policy.VoiceNone
	}

	action := policy.MatchVoiceCommand(text)
	switch action {
	case policy.VoiceAnswer:
		if err := e.disp.AcceptCall(); err != nil {
			log.Printf("[ENGINE] accept call failed: %v", err)
		}
		e.trips.AddEvent(trip.Event{Kind: trip.EventVoiceAccept, Detail: string(e.voicePending), At: now})
		e.voicePending = callerid.Unknown
	case policy.VoiceDecline:
		if err := e.disp.DeclineCall(); err != nil {
			log.Printf("[ENGINE] decline call failed: %v", err)
		}
		e.trips.AddEvent(trip.Event{Kind: trip.EventVoiceDecline, Detail: string(e.voicePending), At: now})
		e.voicePending = callerid.Unknown
	}
	return action
}

// #endregion

// #region settings-mutators

// Settings returns the active configuration.
func (e *Engine) Settings() settings.Settings {
	return e.settings
}

// AddVIP adds a number to the VIP list and persists.
func (e *Engine) AddVIP(raw string) bool {
	if !e.settings.AddVIP(raw) {
		return false
	}
	e.persistSettings()
	return true
}

// RemoveVIP removes a number from the VIP list and persists.
func (e *Engine) RemoveVIP(raw string) bool {
	if !e.settings.RemoveVIP(raw) {
		return false
	}
	e.persistSettings()
	return true
}

// SetAutoReply replaces the auto-reply text and persists. Blank text is
// rejected so the policy never sends an empty SMS.
func (e *Engine) SetAutoReply(text string) bool {
	if text == "" {
		return false
	}
	e.settings.AutoReplyMessage = text
	e.persistSettings()
	return true
}

// SetAutoDecline toggles auto-decline and persists.
func (e *Engine) SetAutoDecline(on bool) {
	e.settings.AutoDecline = on
	e.persistSettings()
}

// SetVoiceConfirm toggles voice confirmation and persists.
func (e *Engine) SetVoiceConfirm(on bool) {
	e.settings.VoiceConfirm = on
	e.persistSettings()
}

func (e *Engine) persistSettings() {
	if e.st == nil {
		return
	}
	if err := e.st.SaveSettings(e.settings); err != nil {
		log.Printf("[ENGINE] settings persist failed: %v", err)
	}
}

// #endregion

// #region accessors

// CurrentTrip returns a copy of the live session, if any.
func (e *Engine) CurrentTrip() (trip.Session, bool) {
	return e.trips.Current()
}

// TripHistory returns completed sessions, most-recent-first.
func (e *Engine) TripHistory() []trip.Session {
	return e.trips.History()
}

// AlertActive reports the urgent-alert indicator.
func (e *Engine) AlertActive() bool {
	return e.trips.AlertActive()
}

// DismissAlert clears the urgent-alert indicator.
func (e *Engine) DismissAlert() {
	e.trips.DismissAlert()
}

// ClearLiveLog empties the live trip's call and event log.
func (e *Engine) ClearLiveLog() {
	e.trips.ClearLiveLog()
}

// ResetHistory wipes the urgency history and the resolver's dedup state, so
// the next call from any number classifies as first contact.
func (e *Engine) ResetHistory() {
	e.history.Reset()
	e.resolver.Reset()
}

// #endregion
