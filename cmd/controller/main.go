package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/danielpatrickdp/drivesafe-controller/internal/classify"
	"github.com/danielpatrickdp/drivesafe-controller/internal/engine"
	"github.com/danielpatrickdp/drivesafe-controller/internal/resolver"
	"github.com/danielpatrickdp/drivesafe-controller/internal/store"
	"github.com/danielpatrickdp/drivesafe-controller/internal/trip"
)

// #region main
func main() {
	dbPath := envOr("DRIVESAFE_DB", "drivesafe.db")

	cfg := engine.DefaultConfig()
	if ms := envOr("DRIVESAFE_URGENCY_MS", ""); ms != "" {
		if n, err := strconv.ParseInt(ms, 10, 64); err == nil && n > 0 {
			cfg.Classify = classify.Config{UrgencyThreshold: time.Duration(n) * time.Millisecond}
		}
	}

	st, err := store.NewStore(dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	eng := engine.New(cfg, &consoleDispatcher{}, st)
	loop := engine.NewLoop(eng)
	go loop.Run()
	defer loop.Close()

	fmt.Println("Drive Safe controller ready.")
	fmt.Printf("  DB: %s\n", dbPath)
	fmt.Println("Type 'help' for commands, 'quit' to exit:")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		runCommand(loop, line)
	}
}

// #endregion main

// #region commands
func runCommand(loop *engine.Loop, line string) {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		printHelp()

	case "start":
		loop.Start()

	case "stop":
		loop.Stop()

	case "call":
		caller := ""
		if len(args) > 0 && args[0] != "unknown" {
			caller = args[0]
		}
		loop.Raw(resolver.RawNotification{Kind: resolver.KindRinging, Caller: caller})

	case "hangup":
		loop.Raw(resolver.RawNotification{Kind: resolver.KindDisconnected})

	case "say":
		loop.Voice(strings.Join(args, " "))

	case "vip":
		if len(args) < 2 {
			fmt.Println("usage: vip add|rm <number>")
			return
		}
		loop.Do(func(e *engine.Engine) {
			var ok bool
			switch args[0] {
			case "add":
				ok = e.AddVIP(args[1])
			case "rm":
				ok = e.RemoveVIP(args[1])
			}
			fmt.Printf("vip %s %s: %v\n", args[0], args[1], ok)
		})

	case "reply":
		text := strings.Join(args, " ")
		loop.Do(func(e *engine.Engine) {
			if !e.SetAutoReply(text) {
				fmt.Println("reply text cannot be empty")
			}
		})

	case "autodecline":
		on := len(args) > 0 && args[0] == "on"
		loop.Do(func(e *engine.Engine) { e.SetAutoDecline(on) })

	case "voice":
		on := len(args) > 0 && args[0] == "on"
		loop.Do(func(e *engine.Engine) { e.SetVoiceConfirm(on) })

	case "status":
		loop.Do(func(e *engine.Engine) {
			fmt.Printf("driving=%v alert=%v settings=%+v\n", e.Active(), e.AlertActive(), e.Settings())
		})

	case "log":
		loop.Do(func(e *engine.Engine) {
			cur, ok := e.CurrentTrip()
			if !ok {
				fmt.Println("no active trip")
				return
			}
			printSession(cur)
		})

	case "trips":
		loop.Do(func(e *engine.Engine) {
			hist := e.TripHistory()
			if len(hist) == 0 {
				fmt.Println("no completed trips")
				return
			}
			for _, s := range hist {
				printSession(s)
			}
		})

	case "dismiss":
		loop.Do(func(e *engine.Engine) { e.DismissAlert() })

	case "clear":
		loop.Do(func(e *engine.Engine) { e.ClearLiveLog() })

	case "reset":
		loop.Do(func(e *engine.Engine) { e.ResetHistory() })

	default:
		fmt.Printf("unknown command %q, try 'help'\n", cmd)
	}
}

func printHelp() {
	fmt.Println(`  start                 enter driving mode
  stop                  leave driving mode
  call <number>         simulate an incoming call
  call unknown          simulate a withheld number
  hangup                simulate the call disconnecting
  say <text>            deliver a voice command
  vip add|rm <number>   manage the VIP list
  reply <text>          set the auto-reply message
  autodecline on|off    toggle auto-decline
  voice on|off          toggle voice confirmation
  status                show mode, alert, and settings
  log                   show the live trip log
  trips                 show completed trips
  dismiss               dismiss the urgent alert
  clear                 clear the live trip log
  reset                 reset urgency history
  quit                  exit`)
}

func printSession(s trip.Session) {
	end := "ongoing"
	if s.EndedAt != nil {
		end = s.EndedAt.Format(time.Kitchen)
	}
	fmt.Printf("trip %s  %s → %s  (%d calls)\n", s.ID, s.StartedAt.Format(time.Kitchen), end, len(s.Calls))
	for _, c := range s.Calls {
		fmt.Printf("  %s  %-12s  %-20s  %s\n", c.At.Format("15:04:05"), c.Caller, c.Status, c.Reason)
	}
	for _, ev := range s.Events {
		fmt.Printf("  %s  [%s] %s\n", ev.At.Format("15:04:05"), ev.Kind, ev.Detail)
	}
}

// #endregion commands

// #region dispatcher

// consoleDispatcher prints every requested device effect instead of
// performing it.
type consoleDispatcher struct{}

func (consoleDispatcher) SendSMS(number, text string) error {
	fmt.Printf("[SMS → %s] %s\n", number, text)
	return nil
}
func (consoleDispatcher) DeclineCall() error { fmt.Println("[CALL] declined"); return nil }
func (consoleDispatcher) AcceptCall() error  { fmt.Println("[CALL] accepted"); return nil }
func (consoleDispatcher) Speak(text string) error {
	fmt.Printf("[TTS] %s\n", text)
	return nil
}
func (consoleDispatcher) CaptureVoice() error { fmt.Println("[MIC] listening..."); return nil }
func (consoleDispatcher) LocalAlert(caller, text string) error {
	fmt.Printf("[ALERT] %s\n", text)
	return nil
}
func (consoleDispatcher) Vibrate(pattern string) error {
	fmt.Printf("[VIBRATE] %s\n", pattern)
	return nil
}
func (consoleDispatcher) Notify(title, text string) error {
	fmt.Printf("[NOTIFY] %s: %s\n", title, text)
	return nil
}

// #endregion dispatcher

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
