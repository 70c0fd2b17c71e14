package policy

// #region outcome

// Outcome is the single disposition produced for one resolved call.
type Outcome string

const (
	OutcomeVipIgnored         Outcome = "vip_ignored"
	OutcomeUrgentAlert        Outcome = "urgent_alert"
	OutcomeReplied            Outcome = "replied"
	OutcomeDeclinedAndReplied Outcome = "declined_and_replied"
	OutcomeDeclined           Outcome = "declined"
)

// #endregion

// #region effect

// EffectKind enumerates the side-effect requests the policy can emit.
// The policy performs no I/O itself; the engine hands these to external
// collaborators fire-and-forget.
type EffectKind string

const (
	EffectSendSMS      EffectKind = "send_sms"
	EffectDeclineCall  EffectKind = "decline_call"
	EffectAcceptCall   EffectKind = "accept_call"
	EffectSpeak        EffectKind = "speak"
	EffectCaptureVoice EffectKind = "capture_voice"
	EffectLocalAlert   EffectKind = "local_alert"
	EffectVibrate      EffectKind = "vibrate"
	EffectNotify       EffectKind = "notify"
)

// Effect is one requested side effect. Fields beyond Kind are populated as
// the kind requires: Caller for SMS/alert targets, Text for message or
// speech content, Title for notifications, Pattern for vibration.
type Effect struct {
	Kind    EffectKind
	Caller  string
	Text    string
	Title   string
	Pattern string
}

// #endregion

// #region decision

// Decision is the policy output: one outcome plus the ordered side-effect
// requests it entails.
type Decision struct {
	Outcome Outcome
	Reason  string
	Effects []Effect
}

// #endregion

// #region voice-action

// VoiceAction is the result of matching a recognized voice command.
type VoiceAction string

const (
	VoiceAnswer  VoiceAction = "answer"
	VoiceDecline VoiceAction = "decline"
	VoiceNone    VoiceAction = "none"
)

// #endregion
