package replay

// #region imports
import (
	"fmt"
	"time"

	"github.com/danielpatrickdp/drivesafe-controller/internal/engine"
	"github.com/danielpatrickdp/drivesafe-controller/internal/settings"
	"github.com/danielpatrickdp/drivesafe-controller/internal/trip"
)

// #endregion

// #region recorder

// Action is one recorded dispatcher call.
type Action struct {
	Kind   string `json:"kind"`
	Number string `json:"number,omitempty"`
	Text   string `json:"text,omitempty"`
}

// Recorder is a dispatcher that records every requested effect instead of
// touching a device. All dispatches succeed.
type Recorder struct {
	Actions []Action
}

func (r *Recorder) record(kind, number, text string) error {
	r.Actions = append(r.Actions, Action{Kind: kind, Number: number, Text: text})
	return nil
}

func (r *Recorder) SendSMS(number, text string) error    { return r.record("send_sms", number, text) }
func (r *Recorder) DeclineCall() error                   { return r.record("decline_call", "", "") }
func (r *Recorder) AcceptCall() error                    { return r.record("accept_call", "", "") }
func (r *Recorder) Speak(text string) error              { return r.record("speak", "", text) }
func (r *Recorder) CaptureVoice() error                  { return r.record("capture_voice", "", "") }
func (r *Recorder) LocalAlert(caller, text string) error { return r.record("local_alert", caller, text) }
func (r *Recorder) Vibrate(pattern string) error         { return r.record("vibrate", "", pattern) }
func (r *Recorder) Notify(title, text string) error      { return r.record("notify", title, text) }

// #endregion recorder

// #region result

// Result captures one replayed run.
type Result struct {
	Outcomes []trip.CallOutcome // every call recorded, across all trips, in order
	Actions  []Action           // every dispatched effect, in order
	Trips    []trip.Session     // completed sessions, most-recent-first
}

// Summary aggregates a run for reporting.
type Summary struct {
	TotalCalls int
	ByStatus   map[string]int
	Actions    int
	Trips      int
}

// Summarize reduces a result to counts.
func Summarize(res Result) Summary {
	s := Summary{
		TotalCalls: len(res.Outcomes),
		ByStatus:   map[string]int{},
		Actions:    len(res.Actions),
		Trips:      len(res.Trips),
	}
	for _, o := range res.Outcomes {
		s.ByStatus[string(o.Status)]++
	}
	return s
}

// #endregion result

// #region replay

// replayBase anchors the virtual clock. Fixtures are pure offsets, so any
// fixed instant produces identical runs.
var replayBase = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Replay drives a fixture through a fresh engine on a virtual clock.
// Between events, any grace deadline that falls due is fired exactly when it
// would have in real time, so unknown-caller resolution is deterministic.
// Operates entirely in-memory: no store, no device.
func Replay(f *Fixture) (Result, error) {
	rec := &Recorder{}
	eng := engine.New(f.Config.ToEngineConfig(), rec, nil)

	applySettings(eng, f.Settings.ToSettings())

	var outcomes []trip.CallOutcome
	for i, ev := range f.Events {
		at := replayBase.Add(time.Duration(ev.AtMS) * time.Millisecond)
		fireDue(eng, at)

		switch ev.Kind {
		case "start":
			eng.Start(at)
		case "stop":
			if cur, ok := eng.CurrentTrip(); ok {
				outcomes = append(outcomes, cur.Calls...)
			}
			eng.Stop(at)
		case "voice":
			eng.VoiceCommand(ev.Text, at)
		default:
			raw, ok := ev.ToRawNotification(replayBase)
			if !ok {
				return Result{}, fmt.Errorf("event %d: unknown kind %q", i, ev.Kind)
			}
			eng.HandleRaw(raw)
		}
	}

	// Drain a grace window still pending after the last event.
	if _, gen, ok := eng.GraceDeadline(); ok {
		eng.FireGraceTimer(gen)
	}
	if cur, ok := eng.CurrentTrip(); ok {
		outcomes = append(outcomes, cur.Calls...)
	}

	return Result{
		Outcomes: outcomes,
		Actions:  rec.Actions,
		Trips:    eng.TripHistory(),
	}, nil
}

// Verify checks a result against the fixture's expected outcomes.
func Verify(f *Fixture, res Result) error {
	if len(res.Outcomes) != len(f.ExpectedOutcomes) {
		return fmt.Errorf("expected %d outcomes, got %d", len(f.ExpectedOutcomes), len(res.Outcomes))
	}
	for i, want := range f.ExpectedOutcomes {
		if !want.Matches(res.Outcomes[i]) {
			return fmt.Errorf("outcome %d: expected %s/%s, got %s/%s",
				i, want.Caller, want.Status, res.Outcomes[i].Caller, res.Outcomes[i].Status)
		}
	}
	return nil
}

// applySettings pushes a fixture's settings snapshot through the engine's
// mutators so replay and live runs share one configuration path.
func applySettings(eng *engine.Engine, s settings.Settings) {
	eng.SetAutoReply(s.AutoReplyMessage)
	for _, v := range s.VIPNumbers {
		eng.AddVIP(v)
	}
	eng.SetAutoDecline(s.AutoDecline)
	eng.SetVoiceConfirm(s.VoiceConfirm)
}

// fireDue fires every grace deadline that falls at or before the given
// virtual instant.
func fireDue(eng *engine.Engine, at time.Time) {
	for {
		deadline, gen, ok := eng.GraceDeadline()
		if !ok || deadline.After(at) {
			return
		}
		eng.FireGraceTimer(gen)
	}
}

// #endregion replay
