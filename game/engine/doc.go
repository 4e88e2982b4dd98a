// Package engine provides the core game logic for the memory match game.
//
// The engine package implements:
//   - Deck generation: ten symbols, each twice, in a random order
//   - The session state machine: start, reset, flip and the timer events
//   - The centermost-first reveal animation schedule
//   - Configuration loading and validation
//
// Core Types:
//
// Transition is a pure function from a State and an Event to the next State,
// a list of Effects (timers to schedule, start or stop) and a Result. It never
// touches a clock: the caller runs the effects and feeds the resulting timer
// events back in. GameEngine wraps Transition around a single mutable state.
//
// Usage:
//
//	eng := engine.NewEngineWithDefaults()
//	effects, _ := eng.Start(eng.NewDeck(nil))
//	// schedule effects, then later:
//	_, res := eng.Flip(3)
//	state := eng.GetState()
//
// Delayed events:
//
// Every scheduled event carries the Generation it was created under. Start
// and Reset replace the deck and bump the generation, so callbacks scheduled
// for an old deck are ignored instead of mutating the new one. Pair
// resolution also checks that the face-up selection still holds the two
// cards it was scheduled for.
package engine
