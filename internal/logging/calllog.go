package logging

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"
)

// #region context-hash
// ContextHash canonicalizes the decision context (RFC 8785) and returns a
// sha256 hex digest. Two calls decided under identical inputs hash the same
// regardless of map ordering or whitespace.
func ContextHash(ctx CallContext) (string, error) {
	raw, err := json.Marshal(ctx)
	if err != nil {
		return "", fmt.Errorf("marshal call context: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize call context: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// #endregion context-hash

// #region log-call
// LogCall writes one arbitrated call to the call_log table.
func LogCall(db *sql.DB, entry CallEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO call_log (trip_id, caller, outcome, reason, context_hash, observed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullIfEmpty(entry.TripID),
		entry.Caller,
		entry.Outcome,
		nullIfEmpty(entry.Reason),
		nullIfEmpty(entry.ContextHash),
		entry.ObservedAt.Format(time.RFC3339Nano),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log call: %w", err)
	}
	return nil
}

// #endregion log-call

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
