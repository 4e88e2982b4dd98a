package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	// Validate symbols
	if len(config.Symbols) != DeckPairs {
		return fmt.Errorf("config validation: symbols must contain exactly %d entries, got %d", DeckPairs, len(config.Symbols))
	}
	seen := make(map[string]bool, len(config.Symbols))
	for i, sym := range config.Symbols {
		if strings.TrimSpace(sym) == "" {
			return fmt.Errorf("config validation: symbol %d is empty", i+1)
		}
		if len(sym) > MaxSymbolLength {
			return fmt.Errorf("config validation: symbol %d is longer than %d bytes", i+1, MaxSymbolLength)
		}
		if sym == HiddenCardSymbol {
			return fmt.Errorf("config validation: symbol %d must not be the hidden card marker %q", i+1, HiddenCardSymbol)
		}
		if seen[sym] {
			return fmt.Errorf("config validation: duplicate symbol %q", sym)
		}
		seen[sym] = true
	}

	// Validate timing
	timings := []struct {
		name  string
		value int
	}{
		{"start_delay_ms", config.Timing.StartDelayMS},
		{"reveal_interval_ms", config.Timing.RevealIntervalMS},
		{"reveal_pause_ms", config.Timing.RevealPauseMS},
		{"match_delay_ms", config.Timing.MatchDelayMS},
		{"mismatch_delay_ms", config.Timing.MismatchDelayMS},
		{"tick_interval_ms", config.Timing.TickIntervalMS},
	}
	for _, t := range timings {
		if t.value < MinTimingMS || t.value > MaxTimingMS {
			return fmt.Errorf("config validation: timing.%s must be between %d and %d, got %d", t.name, MinTimingMS, MaxTimingMS, t.value)
		}
	}

	// Validate messages
	if config.Messages.Victory == "" {
		return fmt.Errorf("config validation: messages.victory is required")
	}
	if strings.Count(config.Messages.Victory, "%d") != 2 {
		return fmt.Errorf("config validation: messages.victory must contain %%d twice for moves and seconds")
	}

	return nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filepath.Base(filename), err)
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns the built-in classic configuration: letters A-J with
// the default timing.
func DefaultConfig() *GameConfig {
	config := &GameConfig{
		Name:        "classic",
		Description: "Ten pairs of letters, classic timing",
		Symbols:     DefaultSymbols(),
		Timing:      DefaultTiming(),
	}
	config.Messages.Welcome = "Find all ten pairs in as few moves as possible."
	config.Messages.Match = "Match!"
	config.Messages.Mismatch = "No match, try again."
	config.Messages.Victory = "All pairs found in %d moves and %d seconds!"
	return config
}

// InitStateFromConfig creates the state shown before the first start: the
// start screen with an empty deck.
func InitStateFromConfig(config *GameConfig) *State {
	if config == nil {
		config = DefaultConfig()
	}
	return &State{
		Cards:      []Card{},
		Selection:  []int{},
		ShowStart:  true,
		Message:    config.Messages.Welcome,
		ConfigName: config.Name,
	}
}
