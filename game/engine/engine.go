package engine

import (
	"fmt"
	"math/rand/v2"
)

// Transition applies ev to s and returns the next state, the side effects
// the caller must perform, and whether the event was applied. A rejected or
// stale event returns s unchanged and no effects. A nil config uses
// DefaultConfig.
func Transition(config *GameConfig, s State, ev Event) (State, []Effect, Result) {
	if config == nil {
		config = DefaultConfig()
	}

	next := s.Clone()
	var effects []Effect
	var res Result

	switch ev.Kind {
	case EventStart:
		res = applyStart(config, &next, ev, &effects)
	case EventReset:
		res = applyReset(config, &next, ev)
	case EventFlip:
		res = applyFlip(config, &next, ev, &effects)
	case EventRevealBegin:
		res = applyRevealBegin(config, &next, ev, &effects)
	case EventRevealCard:
		res = applyRevealCard(&next, ev)
	case EventRevealEnd:
		res = applyRevealEnd(&next, ev)
	case EventResolvePair:
		res = applyResolvePair(config, &next, ev)
	case EventTick:
		res = applyTick(&next, ev)
	default:
		return s, nil, Result{Reason: fmt.Sprintf("unknown event %q", ev.Kind)}
	}

	if !res.Applied {
		return s, nil, res
	}

	settle(config, s, &next, &effects)
	next.Revision = s.Revision + 1
	return next, effects, res
}

func applyStart(config *GameConfig, s *State, ev Event, effects *[]Effect) Result {
	s.Cards = append([]Card(nil), ev.Deck...)
	s.Selection = []int{}
	s.Steps = 0
	s.Elapsed = 0
	s.Running = true
	s.ShowStart = false
	// Input stays blocked from start until the reveal animation hides the
	// cards again, including the layout delay before it begins.
	s.Shuffling = true
	s.Completed = false
	s.Message = ""
	s.Generation++
	s.ConfigName = config.Name

	*effects = append(*effects, Effect{
		Kind:  EffectSchedule,
		Delay: config.Timing.StartDelay(),
		Event: Event{Kind: EventRevealBegin, Generation: s.Generation},
	})
	return Result{Applied: true}
}

func applyReset(config *GameConfig, s *State, ev Event) Result {
	s.Cards = append([]Card(nil), ev.Deck...)
	s.Selection = []int{}
	s.ShowStart = true
	s.Running = false
	s.Shuffling = false
	s.Completed = false
	s.Message = config.Messages.Welcome
	s.Generation++
	s.ConfigName = config.Name
	return Result{Applied: true}
}

func applyFlip(config *GameConfig, s *State, ev Event, effects *[]Effect) Result {
	idx := ev.Index
	switch {
	case s.ShowStart:
		return Result{Reason: ReasonNotStarted}
	case idx < 0 || idx >= len(s.Cards):
		return Result{Reason: ReasonOutOfRange}
	case s.Shuffling:
		return Result{Reason: ReasonShuffling}
	case len(s.Selection) >= MaxSelection:
		return Result{Reason: ReasonPairPending}
	case s.Cards[idx].Matched:
		return Result{Reason: ReasonMatched}
	case s.Cards[idx].Flipped:
		return Result{Reason: ReasonFaceUp}
	}

	s.Cards[idx].Flipped = true
	s.Selection = append(s.Selection, idx)

	res := Result{Applied: true}
	if len(s.Selection) == MaxSelection {
		s.Steps++
		first, second := s.Selection[0], s.Selection[1]
		match := s.Cards[first].Value == s.Cards[second].Value

		delay := config.Timing.MismatchDelay()
		if match {
			delay = config.Timing.MatchDelay()
		}
		*effects = append(*effects, Effect{
			Kind:  EffectSchedule,
			Delay: delay,
			Event: Event{
				Kind:       EventResolvePair,
				Generation: s.Generation,
				Pair:       [2]int{first, second},
				Match:      match,
			},
		})
		res.PairComplete = true
		res.Match = match
	}
	return res
}

func applyRevealBegin(config *GameConfig, s *State, ev Event, effects *[]Effect) Result {
	if ev.Generation != s.Generation || s.ShowStart {
		return Result{Reason: ReasonStale}
	}

	s.Shuffling = true
	n := len(s.Cards)
	for _, step := range RevealSchedule(n, config.Timing) {
		*effects = append(*effects, Effect{
			Kind:  EffectSchedule,
			Delay: step.Delay,
			Event: Event{Kind: EventRevealCard, Generation: s.Generation, Index: step.Index},
		})
	}
	*effects = append(*effects, Effect{
		Kind:  EffectSchedule,
		Delay: HideDelay(n, config.Timing),
		Event: Event{Kind: EventRevealEnd, Generation: s.Generation},
	})
	return Result{Applied: true}
}

func applyRevealCard(s *State, ev Event) Result {
	if ev.Generation != s.Generation || !s.Shuffling {
		return Result{Reason: ReasonStale}
	}
	if ev.Index < 0 || ev.Index >= len(s.Cards) {
		return Result{Reason: ReasonOutOfRange}
	}
	s.Cards[ev.Index].Flipped = true
	return Result{Applied: true}
}

func applyRevealEnd(s *State, ev Event) Result {
	if ev.Generation != s.Generation || !s.Shuffling {
		return Result{Reason: ReasonStale}
	}
	for i := range s.Cards {
		if !s.Cards[i].Matched {
			s.Cards[i].Flipped = false
		}
	}
	s.Selection = []int{}
	s.Shuffling = false
	return Result{Applied: true}
}

func applyResolvePair(config *GameConfig, s *State, ev Event) Result {
	if ev.Generation != s.Generation || !sameSelection(s.Selection, ev.Pair) {
		return Result{Reason: ReasonStale}
	}

	for _, idx := range ev.Pair {
		if ev.Match {
			s.Cards[idx].Matched = true
		} else {
			s.Cards[idx].Flipped = false
		}
	}
	if ev.Match {
		s.Message = config.Messages.Match
	} else {
		s.Message = config.Messages.Mismatch
	}
	s.Selection = []int{}
	return Result{Applied: true, PairComplete: true, Match: ev.Match}
}

func applyTick(s *State, ev Event) Result {
	if ev.Generation != s.Generation || !s.Running {
		return Result{Reason: ReasonStale}
	}
	s.Elapsed++
	return Result{Applied: true}
}

// settle runs after every applied event: it stops the game once every card is
// matched and emits ticker effects for running transitions.
func settle(config *GameConfig, prev State, next *State, effects *[]Effect) {
	next.Completed = AllMatched(next.Cards)
	if next.Completed && next.Running {
		next.Running = false
		next.Message = fmt.Sprintf(config.Messages.Victory, next.Steps, next.Elapsed)
	}

	switch {
	case next.Running && (!prev.Running || prev.Generation != next.Generation):
		*effects = append(*effects, Effect{
			Kind:  EffectStartTicker,
			Delay: config.Timing.TickInterval(),
			Event: Event{Kind: EventTick, Generation: next.Generation},
		})
	case prev.Running && !next.Running:
		*effects = append(*effects, Effect{Kind: EffectStopTicker})
	}
}

// GameEngine holds the current state of one game and applies events to it.
// It is not safe for concurrent use.
type GameEngine struct {
	state  *State
	config *GameConfig
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	return &GameEngine{
		config: config,
		state:  InitStateFromConfig(config),
	}, nil
}

// NewEngineWithDefaults creates a new game engine with the classic configuration
func NewEngineWithDefaults() *GameEngine {
	config := DefaultConfig()
	return &GameEngine{
		config: config,
		state:  InitStateFromConfig(config),
	}
}

// Apply runs ev through Transition and keeps the resulting state.
func (e *GameEngine) Apply(ev Event) ([]Effect, Result) {
	next, effects, res := Transition(e.config, *e.state, ev)
	if res.Applied {
		e.state = &next
	}
	return effects, res
}

// Start begins a new session with deck.
func (e *GameEngine) Start(deck []Card) ([]Effect, Result) {
	return e.Apply(Event{Kind: EventStart, Deck: deck})
}

// Reset replaces the deck and returns to the start screen.
func (e *GameEngine) Reset(deck []Card) ([]Effect, Result) {
	return e.Apply(Event{Kind: EventReset, Deck: deck})
}

// Flip turns the card at index face-up if the rules allow it.
func (e *GameEngine) Flip(index int) ([]Effect, Result) {
	return e.Apply(Event{Kind: EventFlip, Index: index})
}

// GetState returns the current game state
func (e *GameEngine) GetState() *State {
	return e.state
}

// SetState replaces the current state
func (e *GameEngine) SetState(state *State) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	e.state = state
	return nil
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig sets a new game configuration and returns to the start screen
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	e.config = config
	e.state = InitStateFromConfig(config)
	return nil
}

// NewDeck generates a shuffled deck from the configured symbols.
func (e *GameEngine) NewDeck(rng *rand.Rand) []Card {
	return GenerateDeck(e.config.Symbols, rng)
}

// IsRunning reports whether the elapsed timer is active.
func (e *GameEngine) IsRunning() bool {
	return e.state.Running
}

// IsCompleted reports whether every card is matched.
func (e *GameEngine) IsCompleted() bool {
	return e.state.Completed
}

// GetSteps returns the number of completed pairs of flips.
func (e *GameEngine) GetSteps() int {
	return e.state.Steps
}

// GetElapsed returns the elapsed seconds.
func (e *GameEngine) GetElapsed() int {
	return e.state.Elapsed
}
