// Package indexdb maintains a SQLite index of simulation events and alerts
// so runs can be inspected after the fact with plain SQL.
package indexdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"campussim/internal/eventlog"
	"campussim/internal/notify"
)

// SQLiteIndex writes rows from a single writer goroutine so the simulation
// loop never blocks on disk.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqEvent reqKind = iota + 1
	reqAlert
)

type req struct {
	kind  reqKind
	event eventlog.Event
	alert notify.Alert
}

// Open creates (or reopens) the index database at path.
func Open(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 1024),
	}
	s.wg.Add(1)
	go s.loop()
	return s, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL`,
		`PRAGMA synchronous=NORMAL`,
		`CREATE TABLE IF NOT EXISTS events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			ts TEXT NOT NULL,
			actor TEXT NOT NULL,
			activity TEXT NOT NULL,
			room TEXT,
			state_json TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_actor ON events(actor)`,
		`CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			severity TEXT NOT NULL,
			message TEXT,
			room TEXT,
			actors TEXT,
			created_at TEXT NOT NULL,
			acknowledged_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_category ON alerts(category)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("indexdb schema: %w", err)
		}
	}
	return nil
}

// WriteEvent implements eventlog.Sink.
func (s *SQLiteIndex) WriteEvent(e eventlog.Event) error {
	if s.closed.Load() {
		return fmt.Errorf("indexdb closed")
	}
	s.ch <- req{kind: reqEvent, event: e}
	return nil
}

// RecordAlert upserts an alert row; re-recording after acknowledgement
// updates the acknowledged_at column.
func (s *SQLiteIndex) RecordAlert(a *notify.Alert) {
	if s.closed.Load() || a == nil {
		return
	}
	s.ch <- req{kind: reqAlert, alert: *a}
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) loop() {
	defer s.wg.Done()
	for r := range s.ch {
		switch r.kind {
		case reqEvent:
			stateJSON, _ := json.Marshal(r.event.State)
			_, _ = s.db.Exec(
				`INSERT INTO events (kind, ts, actor, activity, room, state_json) VALUES (?, ?, ?, ?, ?, ?)`,
				r.event.Kind, r.event.Timestamp, r.event.Actor, r.event.Activity, r.event.Room, string(stateJSON),
			)
		case reqAlert:
			_, _ = s.db.Exec(
				`INSERT INTO alerts (id, category, severity, message, room, actors, created_at, acknowledged_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				 ON CONFLICT(id) DO UPDATE SET acknowledged_at=excluded.acknowledged_at`,
				r.alert.ID, r.alert.Category, r.alert.Severity, r.alert.Message, r.alert.RoomID,
				strings.Join(r.alert.ActorIDs, ","), r.alert.CreatedAt, r.alert.AcknowledgedAt,
			)
		}
	}
}
