// Package controller drives a single game session in real time. It owns the
// engine state for one session, turns engine effects into timers on a
// clock.Clock and feeds timer events back into the engine.
package controller

import (
	"fmt"
	"log"
	"math/rand/v2"
	"sync"

	"github.com/wricardo/memory-match-game/game/clock"
	"github.com/wricardo/memory-match-game/game/engine"
)

// ReasonClosed is returned for any operation on a closed controller.
const ReasonClosed = "closed"

// Listener is called with a copy of the state after every applied change.
// Listeners run in change order and must not call back into the controller
// synchronously.
type Listener func(engine.State)

// Controller is safe for concurrent use.
type Controller struct {
	mu      sync.Mutex
	engine  *engine.GameEngine
	clock   clock.Clock
	rng     *rand.Rand
	ticker  clock.Timer
	timers  map[*pendingTimer]struct{}
	closed  bool
	nextSub int
	subs    map[int]chan engine.State

	// notifyMu is taken before mu is released so listeners observe changes
	// in the order they were applied.
	notifyMu  sync.Mutex
	listeners []Listener
}

type pendingTimer struct {
	timer clock.Timer
}

// NewController creates a controller on the start screen. A nil clk uses the
// wall clock and a nil rng uses the global random source.
func NewController(config *engine.GameConfig, clk clock.Clock, rng *rand.Rand) (*Controller, error) {
	if config == nil {
		config = engine.DefaultConfig()
	}
	eng, err := engine.NewEngine(config)
	if err != nil {
		return nil, fmt.Errorf("create controller: %w", err)
	}
	if clk == nil {
		clk = clock.Real()
	}

	c := &Controller{
		engine: eng,
		clock:  clk,
		rng:    rng,
		timers: make(map[*pendingTimer]struct{}),
		subs:   make(map[int]chan engine.State),
	}

	// The first deck is dealt face-down behind the start screen.
	c.engine.Reset(c.engine.NewDeck(c.rng))
	return c, nil
}

// Start deals a fresh deck, begins the reveal animation and the elapsed timer.
// Starting an already running game restarts it.
func (c *Controller) Start() (engine.State, engine.Result) {
	return c.dispatch(func() engine.Event {
		return engine.Event{Kind: engine.EventStart, Deck: c.engine.NewDeck(c.rng)}
	})
}

// Reset deals a fresh deck and returns to the start screen.
func (c *Controller) Reset() (engine.State, engine.Result) {
	return c.dispatch(func() engine.Event {
		return engine.Event{Kind: engine.EventReset, Deck: c.engine.NewDeck(c.rng)}
	})
}

// Flip turns the card at index face-up.
func (c *Controller) Flip(index int) (engine.State, engine.Result) {
	return c.dispatch(func() engine.Event {
		return engine.Event{Kind: engine.EventFlip, Index: index}
	})
}

// State returns a copy of the current state, including face-down values.
func (c *Controller) State() engine.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.GetState().Clone()
}

// Config returns the configuration the session was created with.
func (c *Controller) Config() *engine.GameConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.GetConfig()
}

// OnChange registers a listener for state changes.
func (c *Controller) OnChange(fn Listener) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Subscribe returns a channel receiving a copy of every state change and a
// function to cancel the subscription. Slow subscribers miss updates rather
// than block the game. The channel is closed on cancel or Close.
func (c *Controller) Subscribe(buffer int) (<-chan engine.State, func()) {
	if buffer <= 0 {
		buffer = engine.PushBufferSize
	}
	ch := make(chan engine.State, buffer)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Close stops every timer and subscription. Further operations are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopTicker()
	for p := range c.timers {
		p.timer.Stop()
	}
	c.timers = nil
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) dispatch(build func() engine.Event) (engine.State, engine.Result) {
	c.mu.Lock()
	if c.closed {
		snapshot := c.engine.GetState().Clone()
		c.mu.Unlock()
		return snapshot, engine.Result{Reason: ReasonClosed}
	}

	effects, res := c.engine.Apply(build())
	if !res.Applied {
		snapshot := c.engine.GetState().Clone()
		c.mu.Unlock()
		return snapshot, res
	}

	c.runEffects(effects)
	snapshot := c.engine.GetState().Clone()
	c.publish(snapshot)

	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()
	for _, fn := range c.listeners {
		fn(snapshot.Clone())
	}
	return snapshot, res
}

// runEffects performs engine effects. Callers must hold c.mu.
func (c *Controller) runEffects(effects []engine.Effect) {
	for _, eff := range effects {
		switch eff.Kind {
		case engine.EffectSchedule:
			c.schedule(eff)
		case engine.EffectStartTicker:
			c.stopTicker()
			ev := eff.Event
			c.ticker = clock.Every(c.clock, eff.Delay, func() {
				c.dispatch(func() engine.Event { return ev })
			})
		case engine.EffectStopTicker:
			c.stopTicker()
		default:
			log.Printf("controller: ignoring unknown effect %q", eff.Kind)
		}
	}
}

func (c *Controller) schedule(eff engine.Effect) {
	p := &pendingTimer{}
	ev := eff.Event
	c.timers[p] = struct{}{}
	p.timer = c.clock.AfterFunc(eff.Delay, func() {
		c.mu.Lock()
		if c.timers != nil {
			delete(c.timers, p)
		}
		c.mu.Unlock()
		c.dispatch(func() engine.Event { return ev })
	})
}

func (c *Controller) stopTicker() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}

// publish hands state to subscribers without blocking. Callers must hold c.mu.
func (c *Controller) publish(state engine.State) {
	for id, ch := range c.subs {
		select {
		case ch <- state.Clone():
		default:
			log.Printf("controller: subscriber %d is full, dropping revision %d", id, state.Revision)
		}
	}
}
