package engine

// #region imports
import (
	"time"

	"github.com/danielpatrickdp/drivesafe-controller/internal/resolver"
)

// #endregion

// #region loop-struct

// Loop owns the event goroutine around a synchronous Engine. All external
// input is serialized onto one channel, and the grace timer is re-armed from
// the engine's deadline after every command. Timer fires carry the
// generation they were armed with, so a fire racing a cancellation lands as
// a no-op inside the engine.
type Loop struct {
	eng  *Engine
	cmds chan func()
	done chan struct{}
}

// NewLoop wraps an engine. Call Run in its own goroutine.
func NewLoop(eng *Engine) *Loop {
	return &Loop{
		eng:  eng,
		cmds: make(chan func(), 64),
		done: make(chan struct{}),
	}
}

// #endregion

// #region run

// Run processes commands and timer fires until Close. Single goroutine; the
// engine is never touched from anywhere else while Run is live.
func (l *Loop) Run() {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	var armedGen uint64
	armed := false

	rearm := func() {
		deadline, gen, ok := l.eng.GraceDeadline()
		if !ok {
			if armed {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				armed = false
			}
			return
		}
		if armed && gen == armedGen {
			return
		}
		if armed && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(time.Until(deadline))
		armedGen = gen
		armed = true
	}

	for {
		select {
		case cmd := <-l.cmds:
			cmd()
			rearm()
		case <-timer.C:
			armed = false
			l.eng.FireGraceTimer(armedGen)
			rearm()
		case <-l.done:
			return
		}
	}
}

// Close stops the loop goroutine.
func (l *Loop) Close() {
	close(l.done)
}

// #endregion

// #region input

// post enqueues a command for the loop goroutine.
func (l *Loop) post(fn func()) {
	select {
	case l.cmds <- fn:
	case <-l.done:
	}
}

// Raw feeds a raw telephony notification.
func (l *Loop) Raw(ev resolver.RawNotification) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	l.post(func() { l.eng.HandleRaw(ev) })
}

// Start enters driving mode.
func (l *Loop) Start() {
	l.post(func() { l.eng.Start(time.Now()) })
}

// Stop leaves driving mode.
func (l *Loop) Stop() {
	l.post(func() { l.eng.Stop(time.Now()) })
}

// Voice delivers recognized voice-command text.
func (l *Loop) Voice(text string) {
	l.post(func() { l.eng.VoiceCommand(text, time.Now()) })
}

// Do runs an arbitrary engine operation on the loop goroutine and waits for
// it. Used by the REPL for settings mutations and queries.
func (l *Loop) Do(fn func(*Engine)) {
	ack := make(chan struct{})
	l.post(func() {
		fn(l.eng)
		close(ack)
	})
	select {
	case <-ack:
	case <-l.done:
	}
}

// #endregion
