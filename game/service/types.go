package service

import (
	"time"

	"github.com/wricardo/memory-match-game/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"` // config_id used to create the session
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.State      `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// FlipResult contains the result of a flip
type FlipResult struct {
	Accepted     bool          `json:"accepted"`
	Reason       string        `json:"reason,omitempty"` // face_up|matched|pair_pending|shuffling|not_started
	PairComplete bool          `json:"pair_complete,omitempty"`
	Match        bool          `json:"match,omitempty"`
	Message      string        `json:"message,omitempty"`
	GameState    *engine.State `json:"game_state"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string   `json:"filename"`
	ConfigID    string   `json:"config_id"` // The identifier to use for session creation
	Name        string   `json:"name"`      // Display name
	Description string   `json:"description"`
	Symbols     []string `json:"symbols"`
}

// reasonMessages explains rejected flips to players.
var reasonMessages = map[string]string{
	engine.ReasonFaceUp:      "That card is already face-up.",
	engine.ReasonMatched:     "That card is already matched.",
	engine.ReasonPairPending: "Wait for the current pair to resolve.",
	engine.ReasonShuffling:   "Cards are still being shown, wait a moment.",
	engine.ReasonNotStarted:  "Start the game first.",
}
