// Package alertlog keeps an audit trail of every alert sound the engine
// triggered in a local SQLite database.
package alertlog

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/banshee-data/vision.safety/internal/alert"
	"github.com/banshee-data/vision.safety/internal/engine"
)

// DB is the alert log.
type DB struct {
	*sql.DB
	path string
}

// Entry is one stored alert.
type Entry struct {
	ID             string         `json:"id"`
	Category       alert.Category `json:"category"`
	Sound          alert.Sound    `json:"sound"`
	Repeated       bool           `json:"repeated"`
	Screen         engine.Screen  `json:"screen"`
	FrameTimestamp float64        `json:"frame_ts"`
	At             time.Time      `json:"at"`
}

// Open opens (creating if needed) the alert log at path and migrates it to
// the latest schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY
	// between the engine loop and the HTTP handlers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	d := &DB{DB: db, path: path}
	if err := d.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// RecordAlert stores one alert event.
func (d *DB) RecordAlert(ev engine.AlertEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := d.Exec(
		`INSERT INTO alerts (alert_id, category, sound, repeated, screen, frame_ts, at_unix_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), string(ev.Category), string(ev.Sound), ev.Repeated,
		string(ev.Screen), ev.FrameTimestamp, at.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record alert: %w", err)
	}
	return nil
}

// Recent returns up to limit alerts, newest first.
func (d *DB) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.Query(
		`SELECT alert_id, category, sound, repeated, screen, frame_ts, at_unix_ms
		 FROM alerts ORDER BY at_unix_ms DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                       Entry
			category, sound, screen string
			atMillis                int64
		)
		if err := rows.Scan(&e.ID, &category, &sound, &e.Repeated, &screen, &e.FrameTimestamp, &atMillis); err != nil {
			return nil, err
		}
		e.Category = alert.Category(category)
		e.Sound = alert.Sound(sound)
		e.Screen = engine.Screen(screen)
		e.At = time.UnixMilli(atMillis).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// CountByCategory counts alerts at or after since, per category.
func (d *DB) CountByCategory(since time.Time) (map[alert.Category]int, error) {
	rows, err := d.Query(
		`SELECT category, COUNT(*) FROM alerts WHERE at_unix_ms >= ? GROUP BY category`,
		since.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[alert.Category]int)
	for rows.Next() {
		var (
			category string
			n        int
		)
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		counts[alert.Category(category)] = n
	}
	return counts, rows.Err()
}

func (d *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://"+d.path, d.DB, &tailsql.DBOptions{
		Label: "Alert log",
	})

	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.HandleFunc("alerts", "Most recent alerts", func(w http.ResponseWriter, r *http.Request) {
		entries, err := d.Recent(50)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to read alerts: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, e := range entries {
			fmt.Fprintf(w, "%s  %-22s %-26s %-18s t=%.3f\n",
				e.At.Format(time.RFC3339), e.Category, e.Sound, e.Screen, e.FrameTimestamp)
		}
	})
}
