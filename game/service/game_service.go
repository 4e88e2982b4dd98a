package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/memory-match-game/game/controller"
	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/scores"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrConfigNotFound   = errors.New("configuration not found")
	ErrInvalidCardIndex = errors.New("invalid card index")
	ErrScoresDisabled   = errors.New("score store not configured")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Start(ctx context.Context, sessionID string) (*engine.State, error)
	Reset(ctx context.Context, sessionID string) (*engine.State, error)
	Flip(ctx context.Context, sessionID string, index int) (*FlipResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.State, error)
	// Subscribe streams public snapshots until ctx is cancelled or the
	// session is deleted.
	Subscribe(ctx context.Context, sessionID string) (<-chan engine.State, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error

	// Scores
	Leaderboard(ctx context.Context, configID string, limit int) ([]*scores.Record, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id, configID string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// ScoreStore persists finished games
type ScoreStore interface {
	Save(ctx context.Context, rec *scores.Record) error
	Top(ctx context.Context, q scores.Query) ([]*scores.Record, error)
}

// Notifier receives the public snapshot of a session after every change
type Notifier interface {
	NotifyState(sessionID string, state engine.State)
}

// ScoreNotifier is implemented by notifiers that also want finished games
type ScoreNotifier interface {
	NotifyScore(rec *scores.Record)
}

// Session represents an active game session. The exported fields are set
// once by NewSession; the access time and score bookkeeping are guarded by mu.
type Session struct {
	ID         string
	Controller *controller.Controller
	Config     *engine.GameConfig
	ConfigID   string
	CreatedAt  time.Time

	mu             sync.Mutex
	lastAccessedAt time.Time
	scoredGen      uint64 // generation whose score was recorded
}

// NewSession wraps ctrl in a session created at now.
func NewSession(id string, ctrl *controller.Controller, configID string, now time.Time) *Session {
	return &Session{
		ID:             id,
		Controller:     ctrl,
		Config:         ctrl.Config(),
		ConfigID:       configID,
		CreatedAt:      now,
		lastAccessedAt: now,
	}
}

// Touch records an access at t.
func (s *Session) Touch(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccessedAt = t
}

// LastAccessed returns the time of the latest access.
func (s *Session) LastAccessed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessedAt
}

// markScored reports whether generation has not been scored yet and marks it.
func (s *Session) markScored(generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scoredGen == generation {
		return false
	}
	s.scoredGen = generation
	return true
}
