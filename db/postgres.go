// Package db is the Postgres archive sink. It implements the same
// contract as the Notion sink and also feeds the `voxbot ls` command.
package db

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5"

	"vox.town/etc"
	"vox.town/pipeline"
)

//go:embed db_init.sql
var sqlFS embed.FS

type Store struct {
	conn   *pgx.Conn
	logger *log.Logger
}

type Note struct {
	ID              string
	Message         string
	Username        string
	DurationSeconds int
	CreatedAt       time.Time
}

// Open connects and applies the embedded schema, so the table always
// exists before the first write.
func Open(ctx context.Context, databaseURL string, logger *log.Logger) (*Store, error) {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	initSQL, err := sqlFS.ReadFile("db_init.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded db_init.sql: %w", err)
	}
	if _, err := conn.Exec(ctx, string(initSQL)); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf(
			"%w: failed to execute db_init.sql: %v",
			pipeline.ErrSchemaUnavailable, err,
		)
	}

	return &Store{conn: conn, logger: logger}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

func (s *Store) Persist(
	ctx context.Context,
	rec pipeline.Record,
) (string, error) {
	id := etc.NewFreshID()
	_, err := s.conn.Exec(ctx,
		`INSERT INTO voice_notes (id, message, username, duration_seconds, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, rec.Message, rec.User, rec.DurationSeconds, rec.Date,
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", pipeline.ErrWrite, err)
	}

	s.logger.Info("archived voice note", "id", id, "user", rec.User)
	return id, nil
}

func (s *Store) RecentNotes(ctx context.Context, limit int) ([]Note, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT id, message, username, duration_seconds, created_at
		 FROM voice_notes
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		err := rows.Scan(
			&n.ID,
			&n.Message,
			&n.Username,
			&n.DurationSeconds,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
