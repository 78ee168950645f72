package journal

import (
	"database/sql"
	"time"

	"github.com/ykoski/hfsm/pkg/api"
)

// SQLite is an api.Journal backed by a SQLite database.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLite struct {
	db *sql.DB
}

var _ api.Journal = (*SQLite)(nil)

// NewSQLite initializes the required schema in the given database and
// returns a new SQLite journal.
func NewSQLite(db *sql.DB) (*SQLite, error) {
	s := &SQLite{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trace_events (
			id TEXT PRIMARY KEY,
			engine_id TEXT NOT NULL,
			at INTEGER NOT NULL,
			type TEXT NOT NULL,
			state TEXT NOT NULL,
			event TEXT NOT NULL,
			detail TEXT
		);`,
	)
	return err
}

func (s *SQLite) Append(ev api.TraceEvent) error {
	_, err := s.db.Exec(`
		INSERT INTO trace_events (id, engine_id, at, type, state, event, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID,
		ev.EngineID,
		ev.At.UnixNano(),
		string(ev.Type),
		ev.State,
		ev.Event,
		ev.Detail,
	)
	return err
}

func (s *SQLite) List(engineID string) ([]api.TraceEvent, error) {
	query := `
		SELECT id, engine_id, at, type, state, event, detail
		FROM trace_events`
	var args []any

	if engineID != "" {
		query += " WHERE engine_id = ?"
		args = append(args, engineID)
	}
	query += " ORDER BY rowid"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []api.TraceEvent

	for rows.Next() {
		var ev api.TraceEvent
		var typeStr string
		var atNanos int64
		var detail sql.NullString

		if err := rows.Scan(&ev.ID, &ev.EngineID, &atNanos, &typeStr, &ev.State, &ev.Event, &detail); err != nil {
			return nil, err
		}

		ev.At = time.Unix(0, atNanos)
		ev.Type = api.TraceEventType(typeStr)
		if detail.Valid {
			ev.Detail = detail.String
		}

		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
