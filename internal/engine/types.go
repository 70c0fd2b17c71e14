package engine

// #region dispatcher
// Dispatcher carries decisions out to the device: SMS, call control, speech,
// and driver alerts. Implementations are platform bindings (or recorders in
// tests and replay); the engine treats every failure as transient.
type Dispatcher interface {
	SendSMS(number, text string) error
	DeclineCall() error
	AcceptCall() error
	Speak(text string) error
	CaptureVoice() error
	LocalAlert(caller, text string) error
	Vibrate(pattern string) error
	Notify(title, text string) error
}

// #endregion dispatcher
