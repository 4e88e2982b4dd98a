package scores

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SQLStore keeps records in SQLite or PostgreSQL.
type SQLStore struct {
	db       *sql.DB
	postgres bool
}

// NewSQLStore opens PostgreSQL for postgres:// or postgresql:// DSNs and
// treats anything else as a SQLite database path.
func NewSQLStore(dsn string) (*SQLStore, error) {
	driver := "sqlite3"
	postgres := strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
	if postgres {
		driver = "postgres"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	store := &SQLStore{db: db, postgres: postgres}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Driver returns the database/sql driver name in use.
func (s *SQLStore) Driver() string {
	if s.postgres {
		return "postgres"
	}
	return "sqlite3"
}

func (s *SQLStore) createTables() error {
	timeType := "DATETIME"
	if s.postgres {
		timeType = "TIMESTAMPTZ"
	}

	schema := `
	CREATE TABLE IF NOT EXISTS scores (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		config_id TEXT NOT NULL,
		steps INTEGER NOT NULL,
		elapsed_seconds INTEGER NOT NULL,
		finished_at ` + timeType + ` NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scores_config ON scores(config_id);
	CREATE INDEX IF NOT EXISTS idx_scores_rank ON scores(steps, elapsed_seconds, finished_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLStore) Save(ctx context.Context, rec *Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	query := s.rebind(`
		INSERT INTO scores (id, session_id, config_id, steps, elapsed_seconds, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)

	_, err := s.db.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.SessionID,
		rec.ConfigID,
		rec.Steps,
		rec.ElapsedSeconds,
		rec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}
	return nil
}

func (s *SQLStore) Top(ctx context.Context, q Query) ([]*Record, error) {
	q = q.Normalize()

	query := `
		SELECT id, session_id, config_id, steps, elapsed_seconds, finished_at
		FROM scores
	`
	args := []interface{}{}
	if q.ConfigID != "" {
		query += ` WHERE config_id = ?`
		args = append(args, q.ConfigID)
	}
	query += ` ORDER BY steps ASC, elapsed_seconds ASC, finished_at ASC LIMIT ?`
	args = append(args, q.Limit)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		var rec Record
		err := rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&rec.ConfigID,
			&rec.Steps,
			&rec.ElapsedSeconds,
			&rec.FinishedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
