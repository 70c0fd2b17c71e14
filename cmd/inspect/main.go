package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/drivesafe-controller/internal/store"
	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to drivesafe.db")
	last := flag.Int("last", 20, "show N most recent call-log rows")
	trips := flag.Bool("trips", false, "show trip history instead of the call log")
	settingsOut := flag.Bool("settings", false, "show persisted settings")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/drivesafe.db [--last N] [--trips] [--settings] [--json]")
		os.Exit(2)
	}

	st, err := store.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	switch {
	case *settingsOut:
		err = runSettingsMode(st, *jsonOut)
	case *trips:
		err = runTripsMode(st, *jsonOut)
	default:
		err = runCallLogMode(st, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region settings-mode

func runSettingsMode(st *store.Store, jsonOut bool) error {
	s, err := st.LoadSettings()
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(s)
	}
	fmt.Printf("auto-reply:    %s\n", s.AutoReplyMessage)
	fmt.Printf("auto-decline:  %v\n", s.AutoDecline)
	fmt.Printf("voice-confirm: %v\n", s.VoiceConfirm)
	fmt.Printf("vip numbers:   %v\n", s.VIPNumbers)
	return nil
}

// #endregion settings-mode

// #region trips-mode

func runTripsMode(st *store.Store, jsonOut bool) error {
	sessions, err := st.LoadTrips()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "no trips found")
		return nil
	}
	if jsonOut {
		return printJSON(sessions)
	}

	for _, s := range sessions {
		end := "ongoing"
		if s.EndedAt != nil {
			end = s.EndedAt.Format("2006-01-02T15:04:05Z")
		}
		fmt.Printf("%s  %s → %s  calls=%d\n",
			s.ID, s.StartedAt.Format("2006-01-02T15:04:05Z"), end, len(s.Calls))
		for _, c := range s.Calls {
			fmt.Printf("    %-15s  %-20s  %s\n", c.Caller, c.Status, c.Reason)
		}
	}
	return nil
}

// #endregion trips-mode

// #region call-log-mode

type callLogRow struct {
	ID          int64  `json:"id"`
	TripID      string `json:"trip_id,omitempty"`
	Caller      string `json:"caller"`
	Outcome     string `json:"outcome"`
	Reason      string `json:"reason,omitempty"`
	ContextHash string `json:"context_hash,omitempty"`
	ObservedAt  string `json:"observed_at"`
}

func runCallLogMode(st *store.Store, last int, jsonOut bool) error {
	rows, err := st.DB().Query(
		`SELECT id, trip_id, caller, outcome, reason, context_hash, observed_at
		 FROM call_log ORDER BY id DESC LIMIT ?`, last,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	var out []callLogRow
	for rows.Next() {
		var r callLogRow
		var tripID, reason, hash sql.NullString
		if err := rows.Scan(&r.ID, &tripID, &r.Caller, &r.Outcome, &reason, &hash, &r.ObservedAt); err != nil {
			return err
		}
		r.TripID = tripID.String
		r.Reason = reason.String
		r.ContextHash = hash.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(out) == 0 {
		fmt.Fprintln(os.Stderr, "no call-log rows found")
		return nil
	}
	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("%-5s  %-15s  %-20s  %-24s  %-12s  %s\n",
		"ID", "Caller", "Outcome", "Observed", "Hash", "Reason")
	for _, r := range out {
		hash := r.ContextHash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		fmt.Printf("%-5d  %-15s  %-20s  %-24s  %-12s  %s\n",
			r.ID, r.Caller, r.Outcome, r.ObservedAt, hash, r.Reason)
	}
	return nil
}

// #endregion call-log-mode

// #region helpers

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion helpers
