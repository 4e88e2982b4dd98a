package engine

import "time"

const (
	// DeckPairs is the number of distinct symbols in a deck; each appears twice.
	DeckPairs = 10
	// DeckSize is the number of cards in a deck.
	DeckSize = DeckPairs * 2
	// MaxSelection is the number of face-up, unresolved cards allowed at once.
	MaxSelection = 2

	// Validation constants
	MinTimingMS      = 1
	MaxTimingMS      = 60000
	MaxSymbolLength  = 16
	PushBufferSize   = 256
	HiddenCardSymbol = "?"
)

// Card is a single card of a deck.
type Card struct {
	Index   int    `json:"index"`
	Value   string `json:"value"`
	Flipped bool   `json:"flipped"`
	Matched bool   `json:"matched"`
}

// Timing holds every delay used by the session controller, in milliseconds.
type Timing struct {
	StartDelayMS     int `json:"start_delay_ms"`
	RevealIntervalMS int `json:"reveal_interval_ms"`
	RevealPauseMS    int `json:"reveal_pause_ms"`
	MatchDelayMS     int `json:"match_delay_ms"`
	MismatchDelayMS  int `json:"mismatch_delay_ms"`
	TickIntervalMS   int `json:"tick_interval_ms"`
}

func (t Timing) StartDelay() time.Duration     { return ms(t.StartDelayMS) }
func (t Timing) RevealInterval() time.Duration { return ms(t.RevealIntervalMS) }
func (t Timing) RevealPause() time.Duration    { return ms(t.RevealPauseMS) }
func (t Timing) MatchDelay() time.Duration     { return ms(t.MatchDelayMS) }
func (t Timing) MismatchDelay() time.Duration  { return ms(t.MismatchDelayMS) }
func (t Timing) TickInterval() time.Duration   { return ms(t.TickIntervalMS) }

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// DefaultTiming returns the classic delays: 200ms layout delay, 30ms between
// reveals, 500ms pause before hiding, 500ms match and 1s mismatch resolution,
// one tick per second.
func DefaultTiming() Timing {
	return Timing{
		StartDelayMS:     200,
		RevealIntervalMS: 30,
		RevealPauseMS:    500,
		MatchDelayMS:     500,
		MismatchDelayMS:  1000,
		TickIntervalMS:   1000,
	}
}

// GameConfig represents a game preset loaded from JSON
type GameConfig struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Symbols     []string `json:"symbols"`
	Timing      Timing   `json:"timing"`
	Messages    Messages `json:"messages"`
}

// Messages are shown to the player. Victory is formatted with the number of
// moves and the elapsed seconds.
type Messages struct {
	Welcome  string `json:"welcome"`
	Match    string `json:"match"`
	Mismatch string `json:"mismatch"`
	Victory  string `json:"victory"`
}

// State is the complete state of one game session.
type State struct {
	Cards     []Card `json:"cards"`
	Selection []int  `json:"selection"`
	Steps     int    `json:"steps"`
	Elapsed   int    `json:"elapsed"`
	Running   bool   `json:"running"`
	Shuffling bool   `json:"shuffling"`
	ShowStart bool   `json:"show_start"`
	Message   string `json:"message"`
	Completed bool   `json:"completed"`

	// Generation increments whenever a new deck replaces the old one.
	// Delayed events carry the generation they were scheduled under.
	Generation uint64 `json:"generation"`
	// Revision increments on every applied change.
	Revision uint64 `json:"revision"`

	ConfigName string `json:"config_name,omitempty"`
}

// EventKind identifies an input to Transition.
type EventKind string

const (
	EventStart       EventKind = "start"
	EventReset       EventKind = "reset"
	EventFlip        EventKind = "flip"
	EventRevealBegin EventKind = "reveal_begin"
	EventRevealCard  EventKind = "reveal_card"
	EventRevealEnd   EventKind = "reveal_end"
	EventResolvePair EventKind = "resolve_pair"
	EventTick        EventKind = "tick"
)

// Event is either a user action (start, reset, flip) or a timer firing.
type Event struct {
	Kind       EventKind
	Generation uint64
	Deck       []Card // start, reset
	Index      int    // flip, reveal_card
	Pair       [2]int // resolve_pair
	Match      bool   // resolve_pair
}

// EffectKind identifies a side effect requested by Transition.
type EffectKind string

const (
	EffectSchedule    EffectKind = "schedule"
	EffectStartTicker EffectKind = "start_ticker"
	EffectStopTicker  EffectKind = "stop_ticker"
)

// Effect is a side effect the caller must perform after a transition.
type Effect struct {
	Kind  EffectKind
	Delay time.Duration
	Event Event
}

// Reason codes for rejected or ignored events.
const (
	ReasonFaceUp      = "face_up"
	ReasonMatched     = "matched"
	ReasonPairPending = "pair_pending"
	ReasonShuffling   = "shuffling"
	ReasonNotStarted  = "not_started"
	ReasonOutOfRange  = "out_of_range"
	ReasonStale       = "stale"
)

// Result reports whether an event changed the state.
type Result struct {
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
	// PairComplete is set on the flip that turned the second card face-up.
	PairComplete bool `json:"pair_complete,omitempty"`
	Match        bool `json:"match,omitempty"`
}

// ScheduledStep is one entry of the reveal animation.
type ScheduledStep struct {
	Delay time.Duration `json:"delay"`
	Index int           `json:"index"`
}
