package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/danielpatrickdp/drivesafe-controller/internal/classify"
	"github.com/danielpatrickdp/drivesafe-controller/internal/engine"
	"github.com/danielpatrickdp/drivesafe-controller/internal/resolver"
	"github.com/danielpatrickdp/drivesafe-controller/internal/settings"
	"github.com/danielpatrickdp/drivesafe-controller/internal/trip"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a settings
// snapshot, the pipeline windows, and a timed stream of telephony and user
// events with the outcomes the run must produce.
type Fixture struct {
	Description      string           `json:"description"`
	Settings         FixtureSettings  `json:"settings"`
	Config           FixtureConfig    `json:"config"`
	Events           []FixtureEvent   `json:"events"`
	ExpectedOutcomes []FixtureOutcome `json:"expected_outcomes"`
}

// FixtureSettings mirrors settings.Settings with JSON tags.
type FixtureSettings struct {
	AutoReplyMessage string   `json:"auto_reply_message,omitempty"`
	VIPNumbers       []string `json:"vip_numbers,omitempty"`
	AutoDecline      bool     `json:"auto_decline"`
	VoiceConfirm     bool     `json:"voice_confirm"`
}

// FixtureConfig holds the pipeline windows in milliseconds. Zero values fall
// back to the defaults.
type FixtureConfig struct {
	UrgencyThresholdMS int64 `json:"urgency_threshold_ms,omitempty"`
	DedupWindowMS      int64 `json:"dedup_window_ms,omitempty"`
	UnknownGraceMS     int64 `json:"unknown_grace_ms,omitempty"`
}

// FixtureEvent is one timed input. AtMS is the offset from the virtual run
// start; Kind is start, stop, ringing, incoming, offhook, disconnected, or
// voice.
type FixtureEvent struct {
	AtMS   int64  `json:"at_ms"`
	Kind   string `json:"kind"`
	Caller string `json:"caller,omitempty"`
	Text   string `json:"text,omitempty"`
}

// FixtureOutcome is the expected per-call record, in arrival order.
type FixtureOutcome struct {
	Caller string `json:"caller"`
	Status string `json:"status"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToSettings converts fixture settings to the domain type, filling defaults.
func (fs *FixtureSettings) ToSettings() settings.Settings {
	s := settings.Default()
	if fs.AutoReplyMessage != "" {
		s.AutoReplyMessage = fs.AutoReplyMessage
	}
	for _, v := range fs.VIPNumbers {
		s.AddVIP(v)
	}
	s.AutoDecline = fs.AutoDecline
	s.VoiceConfirm = fs.VoiceConfirm
	return s
}

// ToEngineConfig converts the fixture windows to the engine config.
func (fc *FixtureConfig) ToEngineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	if fc.UrgencyThresholdMS > 0 {
		cfg.Classify = classify.Config{UrgencyThreshold: time.Duration(fc.UrgencyThresholdMS) * time.Millisecond}
	}
	if fc.DedupWindowMS > 0 {
		cfg.Resolver.DedupWindow = time.Duration(fc.DedupWindowMS) * time.Millisecond
	}
	if fc.UnknownGraceMS > 0 {
		cfg.Resolver.UnknownGrace = time.Duration(fc.UnknownGraceMS) * time.Millisecond
	}
	return cfg
}

// ToRawNotification converts a telephony fixture event. Reports false for
// event kinds that are not raw notifications (start, stop, voice).
func (fe *FixtureEvent) ToRawNotification(base time.Time) (resolver.RawNotification, bool) {
	var kind resolver.Kind
	switch fe.Kind {
	case "ringing":
		kind = resolver.KindRinging
	case "incoming":
		kind = resolver.KindIncoming
	case "offhook":
		kind = resolver.KindOffhook
	case "disconnected":
		kind = resolver.KindDisconnected
	default:
		return resolver.RawNotification{}, false
	}
	return resolver.RawNotification{
		Kind:   kind,
		Caller: fe.Caller,
		At:     base.Add(time.Duration(fe.AtMS) * time.Millisecond),
	}, true
}

// Matches reports whether a recorded call outcome satisfies the expectation.
func (fo *FixtureOutcome) Matches(out trip.CallOutcome) bool {
	return fo.Caller == out.Caller && fo.Status == string(out.Status)
}

// #endregion fixture-loader
