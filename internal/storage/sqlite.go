package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"multipost_bot/internal/model"
	"multipost_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls and
	// serializes whole-collection writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := migrations.Run(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// LoadChannels returns channels in registration order.
func (s *SQLite) LoadChannels(ctx context.Context) ([]model.Channel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title FROM channels ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	channels := []model.Channel{}
	for rows.Next() {
		var c model.Channel
		if err := rows.Scan(&c.ID, &c.Title); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

// SaveChannels replaces the stored channel list.
func (s *SQLite) SaveChannels(ctx context.Context, channels []model.Channel) error {
	return s.replace(ctx, "channels", func(tx *sql.Tx) error {
		for i, c := range channels {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO channels (position, id, title) VALUES (?, ?, ?)`,
				i+1, c.ID, c.Title,
			); err != nil {
				return fmt.Errorf("insert channel %d: %w", c.ID, err)
			}
		}
		return nil
	})
}

// LoadPosts returns posts ordered by ID.
func (s *SQLite) LoadPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, buttons, media_id, media_type FROM posts ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	posts := []model.Post{}
	for rows.Next() {
		var (
			p                  model.Post
			mediaID, mediaType sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Text, &p.ButtonsRaw, &mediaID, &mediaType); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.MediaID = mediaID.String
		p.MediaType = model.MediaType(mediaType.String)
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// SavePosts replaces the stored post list.
func (s *SQLite) SavePosts(ctx context.Context, posts []model.Post) error {
	return s.replace(ctx, "posts", func(tx *sql.Tx) error {
		for _, p := range posts {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO posts (id, text, buttons, media_id, media_type) VALUES (?, ?, ?, ?, ?)`,
				p.ID, p.Text, p.ButtonsRaw, nullString(p.MediaID), nullString(string(p.MediaType)),
			); err != nil {
				return fmt.Errorf("insert post %d: %w", p.ID, err)
			}
		}
		return nil
	})
}

// LoadScheduled returns scheduled entries ordered by ID.
func (s *SQLite) LoadScheduled(ctx context.Context) ([]model.ScheduledEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, post_id, mode, run_at, time_of_day, last_sent FROM scheduled ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query scheduled: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []model.ScheduledEntry{}
	for rows.Next() {
		var (
			e                         model.ScheduledEntry
			mode                      string
			runAt, timeOfDay, lastSnt sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.PostID, &mode, &runAt, &timeOfDay, &lastSnt); err != nil {
			return nil, fmt.Errorf("scan scheduled: %w", err)
		}
		e.Mode = model.ScheduleMode(mode)
		e.TimeOfDay = timeOfDay.String
		if e.RunAt, err = parseTime(runAt); err != nil {
			return nil, fmt.Errorf("entry %d run_at: %w", e.ID, err)
		}
		if e.LastSent, err = parseTime(lastSnt); err != nil {
			return nil, fmt.Errorf("entry %d last_sent: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveScheduled replaces the stored schedule.
func (s *SQLite) SaveScheduled(ctx context.Context, entries []model.ScheduledEntry) error {
	return s.replace(ctx, "scheduled", func(tx *sql.Tx) error {
		for _, e := range entries {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO scheduled (id, post_id, mode, run_at, time_of_day, last_sent)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				e.ID, e.PostID, string(e.Mode), formatTime(e.RunAt), nullString(e.TimeOfDay), formatTime(e.LastSent),
			); err != nil {
				return fmt.Errorf("insert scheduled %d: %w", e.ID, err)
			}
		}
		return nil
	})
}

// replace clears table and refills it through insert inside one transaction.
func (s *SQLite) replace(ctx context.Context, table string, insert func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if err := insert(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.UTC().Format(timeLayout)
	return &v
}

func parseTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
