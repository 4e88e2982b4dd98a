// Package validate checks game configuration files before they are served.
// It applies the same rules the config manager enforces at load time and
// adds warnings for settings that are legal but make a poor game.
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wricardo/memory-match-game/game/engine"
)

// Thresholds for warnings.
const (
	// MaxComfortableReveal is the longest reveal animation that does not
	// feel like waiting.
	MaxComfortableReveal = 3 * time.Second
	// MinReadableMismatch is the shortest mismatch delay that lets a player
	// see the second card.
	MinReadableMismatch = 300 * time.Millisecond
)

// Result captures the outcome of validating a single file.
// Errors make the file unusable; Warnings and Info are reported only.
type Result struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

func (r *Result) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warn(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// File loads and validates a single configuration JSON file.
func File(path string) Result {
	result := Result{File: filepath.Base(path), Valid: true}

	data, err := os.ReadFile(path)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var config engine.GameConfig
	if err := dec.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	Config(&config, &result)
	return result
}

// Config validates an already decoded configuration into result.
func Config(config *engine.GameConfig, result *Result) {
	if err := engine.ValidateGameConfig(config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return
	}

	// Symbols of different widths make the face-up cards jump around.
	widths := map[int]bool{}
	for _, sym := range config.Symbols {
		widths[utf8.RuneCountInString(sym)] = true
	}
	if len(widths) > 1 {
		result.warn("Symbols have %d different widths", len(widths))
	}

	reveal := engine.HideDelay(engine.DeckSize, config.Timing)
	total := config.Timing.StartDelay() + reveal
	if total > MaxComfortableReveal {
		result.warn("Reveal animation takes %s before the first flip", total)
	}
	if config.Timing.MismatchDelay() < MinReadableMismatch {
		result.warn("mismatch_delay_ms %d is too short to see the second card", config.Timing.MismatchDelayMS)
	}
	if config.Timing.TickInterval() != time.Second {
		result.warn("tick_interval_ms %d means elapsed is not in seconds", config.Timing.TickIntervalMS)
	}
	if config.Messages.Welcome == "" {
		result.warn("messages.welcome is empty")
	}

	result.Info = append(result.Info,
		fmt.Sprintf("✓ Name: %s", config.Name),
		fmt.Sprintf("✓ Symbols: %s", strings.Join(config.Symbols, " ")),
		fmt.Sprintf("✓ First flip after: %s (cards hidden %s into the animation)", total, reveal),
		fmt.Sprintf("✓ Resolve delays: match %s, mismatch %s", config.Timing.MatchDelay(), config.Timing.MismatchDelay()),
	)
}

// Dir validates every *.json file in dir, sorted by file name.
func Dir(dir string) ([]Result, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("finding config files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no config files in %s", dir)
	}
	sort.Strings(files)

	results := make([]Result, 0, len(files))
	for _, file := range files {
		results = append(results, File(file))
	}
	return results, nil
}

// Report prints a concise report and returns whether every result is valid.
func Report(w io.Writer, results []Result) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
		for _, warning := range result.Warnings {
			fmt.Fprintln(w, "  ⚠️  "+warning)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid
}
