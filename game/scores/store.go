// Package scores records finished games and ranks them for the leaderboard.
package scores

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

var ErrInvalidRecord = errors.New("invalid score record")

// Record is one finished game.
type Record struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	ConfigID       string    `json:"config_id"`
	Steps          int       `json:"steps"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Query selects the best records, optionally for one config.
type Query struct {
	ConfigID string
	Limit    int
}

// Store persists score records.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Top(ctx context.Context, q Query) ([]*Record, error)
	Close() error
}

// NewRecord creates a record with a fresh ID.
func NewRecord(sessionID, configID string, steps, elapsed int, finishedAt time.Time) *Record {
	return &Record{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		ConfigID:       configID,
		Steps:          steps,
		ElapsedSeconds: elapsed,
		FinishedAt:     finishedAt.UTC(),
	}
}

// Validate checks that a record can be stored.
func (r *Record) Validate() error {
	switch {
	case r == nil:
		return ErrInvalidRecord
	case strings.TrimSpace(r.ID) == "":
		return errors.Join(ErrInvalidRecord, errors.New("id is required"))
	case strings.TrimSpace(r.SessionID) == "":
		return errors.Join(ErrInvalidRecord, errors.New("session_id is required"))
	case r.Steps < 0 || r.ElapsedSeconds < 0:
		return errors.Join(ErrInvalidRecord, errors.New("steps and elapsed_seconds must not be negative"))
	}
	return nil
}

// Less orders records best first: fewer steps, then fewer seconds, then
// earlier finish.
func Less(a, b *Record) bool {
	if a.Steps != b.Steps {
		return a.Steps < b.Steps
	}
	if a.ElapsedSeconds != b.ElapsedSeconds {
		return a.ElapsedSeconds < b.ElapsedSeconds
	}
	return a.FinishedAt.Before(b.FinishedAt)
}

// Rank sorts records best first.
func Rank(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return Less(records[i], records[j])
	})
}

// Normalize applies the default limit and clamps it to MaxLimit.
func (q Query) Normalize() Query {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

// Open returns a SQL store when dsn is set and a file store in dir otherwise.
func Open(dsn, dir string) (Store, error) {
	if dsn != "" {
		return NewSQLStore(dsn)
	}
	return NewFileStore(dir)
}
