package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/wricardo/memory-match-game/game/engine"
	"github.com/wricardo/memory-match-game/game/scores"
)

// scoreTimeout bounds how long recording a finished game may block the
// session's change listener.
const scoreTimeout = 5 * time.Second

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions  SessionManager
	configs   ConfigManager
	scores    ScoreStore
	notifiers []Notifier
}

// Option configures the game service
type Option func(*gameServiceImpl)

// WithScoreStore records finished games in store
func WithScoreStore(store ScoreStore) Option {
	return func(s *gameServiceImpl) {
		s.scores = store
	}
}

// WithNotifier fans every public state change out to n
func WithNotifier(n Notifier) Option {
	return func(s *gameServiceImpl) {
		if n != nil {
			s.notifiers = append(s.notifiers, n)
		}
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	var config *engine.GameConfig
	var err error
	configID := configName
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				return nil, s.configNotFound(configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.getConfigID(config.Name)
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.watch(session)

	log.Printf("[SESSION] created id=%s config=%s", session.ID, configID)
	return s.sessionInfo(session), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session and stops its timers
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return nil
}

// Start deals a new deck and begins the reveal animation
func (s *gameServiceImpl) Start(ctx context.Context, sessionID string) (*engine.State, error) {
	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	state, _ := session.Controller.Start()
	public := state.Public()
	return &public, nil
}

// Reset deals a new deck and returns to the start screen
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.State, error) {
	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	state, _ := session.Controller.Reset()
	public := state.Public()
	return &public, nil
}

// Flip turns a card face-up. Rejected flips are reported in the result, not
// as errors, except for indices outside the deck.
func (s *gameServiceImpl) Flip(ctx context.Context, sessionID string, index int) (*FlipResult, error) {
	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	state, res := session.Controller.Flip(index)
	if res.Reason == engine.ReasonOutOfRange {
		return nil, fmt.Errorf("%w: %d (deck has %d cards)", ErrInvalidCardIndex, index, len(state.Cards))
	}

	public := state.Public()
	result := &FlipResult{
		Accepted:     res.Applied,
		Reason:       res.Reason,
		PairComplete: res.PairComplete,
		Match:        res.Match,
		Message:      reasonMessages[res.Reason],
		GameState:    &public,
	}

	status := "OK"
	if !res.Applied {
		status = "REJECTED:" + res.Reason
	}
	log.Printf("[FLIP] session=%s index=%d steps=%d status=%s", session.ID, index, state.Steps, status)
	return result, nil
}

// GetGameState retrieves the current public game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.State, error) {
	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	public := session.Controller.State().Public()
	return &public, nil
}

// Subscribe streams public snapshots of a session
func (s *gameServiceImpl) Subscribe(ctx context.Context, sessionID string) (<-chan engine.State, error) {
	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	src, cancel := session.Controller.Subscribe(engine.PushBufferSize)
	out := make(chan engine.State, engine.PushBufferSize)

	go func() {
		defer close(out)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case state, ok := <-src:
				if !ok {
					return
				}
				select {
				case out <- state.Public():
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// Leaderboard returns the best finished games, optionally for one config
func (s *gameServiceImpl) Leaderboard(ctx context.Context, configID string, limit int) ([]*scores.Record, error) {
	if s.scores == nil {
		return nil, ErrScoresDisabled
	}
	return s.scores.Top(ctx, scores.Query{ConfigID: configID, Limit: limit})
}

// watch wires the session's controller to the notifiers and score store.
func (s *gameServiceImpl) watch(session *Session) {
	session.Controller.OnChange(func(state engine.State) {
		public := state.Public()
		for _, n := range s.notifiers {
			n.NotifyState(session.ID, public)
		}

		if state.Completed {
			s.recordScore(session, state)
		}
	})
}

// recordScore stores a finished game once per generation.
func (s *gameServiceImpl) recordScore(session *Session, state engine.State) {
	if !session.markScored(state.Generation) {
		return
	}

	rec := scores.NewRecord(session.ID, session.ConfigID, state.Steps, state.Elapsed, time.Now())
	log.Printf("[SCORE] session=%s config=%s steps=%d seconds=%d", rec.SessionID, rec.ConfigID, rec.Steps, rec.ElapsedSeconds)

	if s.scores != nil {
		ctx, cancel := context.WithTimeout(context.Background(), scoreTimeout)
		defer cancel()
		if err := s.scores.Save(ctx, rec); err != nil {
			log.Printf("Warning: failed to save score for session %s: %v", session.ID, err)
		}
	}

	for _, n := range s.notifiers {
		if sn, ok := n.(ScoreNotifier); ok {
			sn.NotifyScore(rec)
		}
	}
}

func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return session, nil
}

func (s *gameServiceImpl) sessionInfo(session *Session) *SessionInfo {
	public := session.Controller.State().Public()
	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     session.ConfigID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessed(),
		GameState:      &public,
		GameConfig:     session.Config,
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// configNotFound lists the available config IDs in the error
func (s *gameServiceImpl) configNotFound(configName string) error {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil && len(availableConfigs) > 0 {
		configIDs := make([]string, 0, len(availableConfigs))
		for _, cfg := range availableConfigs {
			configIDs = append(configIDs, cfg.ConfigID)
		}
		return fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
	}
	return fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
}
