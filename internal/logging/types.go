package logging

import "time"

// #region call-entry
// CallEntry is a single row in the call_log table: one arbitrated call,
// its disposition, and a canonical hash of the context it was decided under.
type CallEntry struct {
	TripID      string
	Caller      string
	Outcome     string // policy outcome tag
	Reason      string
	ContextHash string
	ObservedAt  time.Time
	CreatedAt   time.Time
}

// #endregion call-entry

// #region call-context
// CallContext captures the complete decision inputs for a single call.
// Hashed (RFC 8785 canonical JSON, sha256) into call_log.context_hash so a
// later audit can prove which settings and classification fed the decision.
type CallContext struct {
	Caller         string   `json:"caller"`
	IsUrgent       bool     `json:"is_urgent"`
	IsFirstContact bool     `json:"is_first_contact"`
	AutoDecline    bool     `json:"auto_decline"`
	VoiceConfirm   bool     `json:"voice_confirm"`
	VIPNumbers     []string `json:"vip_numbers"`
	AutoReply      string   `json:"auto_reply"`
}

// #endregion call-context
