package policy

// #region imports
import (
	"fmt"
	"strings"
	"time"

	"github.com/danielpatrickdp/drivesafe-controller/internal/classify"
	"github.com/danielpatrickdp/drivesafe-controller/internal/settings"
)

// #endregion

// #region constants

// DefaultVibrationPattern is the urgent-alert buzz: pause/buzz milliseconds.
const DefaultVibrationPattern = "0,400,200,400"

// #endregion

// #region decide

// Decide maps a classified call and the user settings to exactly one
// disposition. Deterministic, no hidden state, no I/O; first matching rule
// wins.
//
// Precedence: VIP bypass, urgent repeat, first contact with a known number,
// first contact with an unknown number.
func Decide(res classify.Result, s settings.Settings) Decision {
	caller := res.Caller

	// 1. VIP bypass: the call rings through untouched.
	if s.IsVIP(caller) {
		return Decision{
			Outcome: OutcomeVipIgnored,
			Reason:  fmt.Sprintf("caller %s is on the VIP list", caller),
		}
	}

	// 2. Urgent repeat: alert the driver, send nothing. The caller already
	// reached no answer once and is calling back intentionally.
	if res.IsUrgent {
		text := fmt.Sprintf("URGENT: %s called again within %s!", caller, windowLabel(res.Threshold))
		return Decision{
			Outcome: OutcomeUrgentAlert,
			Reason:  "repeat call within the urgency threshold",
			Effects: []Effect{
				{Kind: EffectLocalAlert, Caller: string(caller), Text: text},
				{Kind: EffectVibrate, Pattern: DefaultVibrationPattern},
				{Kind: EffectNotify, Title: "Drive Safe", Text: text},
			},
		}
	}

	// 3. First contact, known number.
	if !caller.IsUnknown() {
		if s.VoiceConfirm {
			// Voice confirmation supersedes both the SMS and auto-decline:
			// the eventual accept/decline comes from a recognized command.
			prompt := fmt.Sprintf("Incoming call from %s. Say answer or decline.", caller)
			return Decision{
				Outcome: OutcomeReplied,
				Reason:  "first contact, awaiting voice confirmation",
				Effects: []Effect{
					{Kind: EffectSpeak, Text: prompt},
					{Kind: EffectCaptureVoice},
				},
			}
		}

		if s.AutoDecline {
			return Decision{
				Outcome: OutcomeDeclinedAndReplied,
				Reason:  "first contact, auto-decline enabled",
				Effects: []Effect{
					{Kind: EffectDeclineCall},
					{Kind: EffectSendSMS, Caller: string(caller), Text: s.AutoReplyMessage},
				},
			}
		}

		return Decision{
			Outcome: OutcomeReplied,
			Reason:  "first contact, sending auto-reply",
			Effects: []Effect{
				{Kind: EffectSendSMS, Caller: string(caller), Text: s.AutoReplyMessage},
			},
		}
	}

	// 4. First contact, unknown number: no address to reply to.
	if s.AutoDecline {
		return Decision{
			Outcome: OutcomeDeclined,
			Reason:  "unknown caller, auto-decline enabled",
			Effects: []Effect{
				{Kind: EffectDeclineCall},
			},
		}
	}
	return Decision{
		Outcome: OutcomeDeclined,
		Reason:  "unknown caller, logged only",
	}
}

// windowLabel renders the urgency window for driver-facing text. The stock
// 2-minute threshold reads "2 mins", matching the shipped alert wording.
func windowLabel(d time.Duration) string {
	if d <= 0 {
		d = 2 * time.Minute
	}
	if d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 min"
		}
		return fmt.Sprintf("%d mins", m)
	}
	return fmt.Sprintf("%d secs", int(d/time.Second))
}

// #endregion

// #region voice-matching

var answerWords = []string{"answer", "accept"}

var declineWords = []string{"decline", "reject", "no"}

// MatchVoiceCommand matches a recognized free-text command by substring.
// Answer words are checked before decline words.
func MatchVoiceCommand(text string) VoiceAction {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return VoiceNone
	}
	for _, w := range answerWords {
		if strings.Contains(lower, w) {
			return VoiceAnswer
		}
	}
	for _, w := range declineWords {
		if strings.Contains(lower, w) {
			return VoiceDecline
		}
	}
	return VoiceNone
}

// #endregion
