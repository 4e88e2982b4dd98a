package engine

import (
	"math/rand/v2"
	"time"
)

// DefaultSymbols returns the letters A through J.
func DefaultSymbols() []string {
	symbols := make([]string, DeckPairs)
	for i := range symbols {
		symbols[i] = string(rune('A' + i))
	}
	return symbols
}

// GenerateDeck duplicates symbols, shuffles them with rng and numbers the
// cards by their final position. Every card starts face-down and unmatched.
// A nil rng uses the global source.
func GenerateDeck(symbols []string, rng *rand.Rand) []Card {
	values := make([]string, 0, len(symbols)*2)
	values = append(values, symbols...)
	values = append(values, symbols...)

	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(values), func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})

	deck := make([]Card, len(values))
	for i, v := range values {
		deck[i] = Card{Index: i, Value: v}
	}
	return deck
}

// NewDeck builds a deck from explicit values in the given order.
func NewDeck(values ...string) []Card {
	deck := make([]Card, len(values))
	for i, v := range values {
		deck[i] = Card{Index: i, Value: v}
	}
	return deck
}

// RevealOrder returns the positions of an n-card deck ordered centermost
// first, alternating sides: for step i and middle n/2, even steps reveal
// middle+i/2 and odd steps reveal middle-ceil(i/2).
func RevealOrder(n int) []int {
	order := make([]int, n)
	middle := n / 2
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			order[i] = middle + i/2
		} else {
			order[i] = middle - (i+1)/2
		}
	}
	return order
}

// RevealSchedule pairs each reveal with its delay from the start of the
// animation.
func RevealSchedule(n int, timing Timing) []ScheduledStep {
	steps := make([]ScheduledStep, 0, n)
	for i, idx := range RevealOrder(n) {
		steps = append(steps, ScheduledStep{
			Delay: timing.RevealInterval() * time.Duration(i),
			Index: idx,
		})
	}
	return steps
}

// HideDelay is the delay from the start of the reveal animation until every
// card is turned face-down again.
func HideDelay(n int, timing Timing) time.Duration {
	return timing.RevealInterval()*time.Duration(n) + timing.RevealPause()
}
