package store

// #region imports
import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/drivesafe-controller/internal/settings"
	"github.com/danielpatrickdp/drivesafe-controller/internal/trip"
)

// #endregion

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS settings (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	blob        TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trips (
	trip_id     TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	ended_at    TEXT,
	calls_json  TEXT NOT NULL,
	events_json TEXT,
	position    INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS call_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	trip_id       TEXT,
	caller        TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	reason        TEXT,
	context_hash  TEXT,
	observed_at   TEXT NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trips_position ON trips(position);
CREATE INDEX IF NOT EXISTS idx_call_log_trip ON call_log(trip_id);
`

// #endregion schema

// #region store-struct
// Store manages all SQLite persistence: the settings blob, the bounded trip
// history, and the append-only call log.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing connection. Used by tests.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. the
// call log writer and cmd/inspect).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region settings
// SaveSettings replaces the single settings row.
func (s *Store) SaveSettings(set settings.Settings) error {
	blob, err := settings.Marshal(set)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO settings (id, blob, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		string(blob), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// LoadSettings reads the persisted settings blob. A missing row yields
// defaults with no error; a malformed or invalid blob yields defaults plus
// the validation error so the caller can log it, never fail startup.
func (s *Store) LoadSettings() (settings.Settings, error) {
	var blob string
	err := s.db.QueryRow(`SELECT blob FROM settings WHERE id = 1`).Scan(&blob)
	if err == sql.ErrNoRows {
		return settings.Default(), nil
	}
	if err != nil {
		return settings.Default(), fmt.Errorf("load settings: %w", err)
	}
	return settings.Load([]byte(blob))
}

// #endregion settings

// #region trips
// SaveTrips replaces the persisted trip history with the given sessions,
// most-recent-first. Runs in one transaction so readers never observe a
// partially replaced history.
func (s *Store) SaveTrips(sessions []trip.Session) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM trips`); err != nil {
		return fmt.Errorf("clear trips: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for i, sess := range sessions {
		callsJSON, err := json.Marshal(sess.Calls)
		if err != nil {
			return fmt.Errorf("marshal calls for trip %s: %w", sess.ID, err)
		}
		eventsJSON, err := json.Marshal(sess.Events)
		if err != nil {
			return fmt.Errorf("marshal events for trip %s: %w", sess.ID, err)
		}

		var endedPtr interface{}
		if sess.EndedAt != nil {
			endedPtr = sess.EndedAt.Format(time.RFC3339Nano)
		}

		_, err = tx.Exec(
			`INSERT INTO trips (trip_id, started_at, ended_at, calls_json, events_json, position, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sess.ID, sess.StartedAt.Format(time.RFC3339Nano), endedPtr,
			string(callsJSON), string(eventsJSON), i, now,
		)
		if err != nil {
			return fmt.Errorf("insert trip %s: %w", sess.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit trips: %w", err)
	}
	return nil
}

// LoadTrips reads the persisted history, most-recent-first. Rows that fail
// to parse are skipped rather than failing the load.
func (s *Store) LoadTrips() ([]trip.Session, error) {
	rows, err := s.db.Query(
		`SELECT trip_id, started_at, ended_at, calls_json, events_json
		 FROM trips ORDER BY position ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	defer rows.Close()

	var sessions []trip.Session
	for rows.Next() {
		var sess trip.Session
		var startedStr string
		var endedStr sql.NullString
		var callsJSON string
		var eventsJSON sql.NullString

		if err := rows.Scan(&sess.ID, &startedStr, &endedStr, &callsJSON, &eventsJSON); err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}

		started, err := time.Parse(time.RFC3339Nano, startedStr)
		if err != nil {
			continue
		}
		sess.StartedAt = started

		if endedStr.Valid {
			if ended, err := time.Parse(time.RFC3339Nano, endedStr.String); err == nil {
				sess.EndedAt = &ended
			}
		}
		if err := json.Unmarshal([]byte(callsJSON), &sess.Calls); err != nil {
			continue
		}
		if eventsJSON.Valid {
			// Events are auxiliary; a bad blob costs only the log entries.
			_ = json.Unmarshal([]byte(eventsJSON.String), &sess.Events)
		}

		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// #endregion trips
