package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/wricardo/memory-match-game/game/clock"
	"github.com/wricardo/memory-match-game/game/config"
	"github.com/wricardo/memory-match-game/game/controller"
	"github.com/wricardo/memory-match-game/game/engine"
)

const boardColumns = 5

const playHelp = `Commands:
  start        deal a new deck and begin
  reset        shuffle and return to the start screen
  flip N, N    turn card N face up
  show         print the board
  help         print this help
  quit         leave the game`

// runPlay plays one game in the terminal on the wall clock.
func runPlay(ctx context.Context, opts options, configName string, in io.Reader, out io.Writer) error {
	configManager, err := config.NewManager(opts.configDir)
	if err != nil {
		return fmt.Errorf("failed to create config manager: %w", err)
	}
	cfg, err := configManager.LoadConfig(configName)
	if err != nil {
		return fmt.Errorf("failed to load config %q: %w", configName, err)
	}

	ctrl, err := controller.NewController(cfg, clock.Real(), nil)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	return playLoop(ctx, in, out, ctrl)
}

// terminal serializes writes from the input loop and the timer callbacks.
type terminal struct {
	mu  sync.Mutex
	out io.Writer
}

func (t *terminal) printf(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

// player turns typed commands into controller calls.
type player struct {
	ctrl *controller.Controller
	term *terminal
}

func newPlayer(ctrl *controller.Controller, out io.Writer) *player {
	p := &player{ctrl: ctrl, term: &terminal{out: out}}

	prev := ctrl.State()
	ctrl.OnChange(func(s engine.State) {
		p.notice(prev, s)
		prev = s
	})
	return p
}

// playLoop reads commands from in until quit, EOF or ctx is cancelled.
func playLoop(ctx context.Context, in io.Reader, out io.Writer, ctrl *controller.Controller) error {
	p := newPlayer(ctrl, out)
	p.term.printf("%s\nType 'start' to begin, 'help' for commands.\n", ctrl.State().Message)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line := <-lines:
			if !p.exec(line) {
				return nil
			}
		}
	}
}

// exec runs one command line and reports whether to keep playing.
func (p *player) exec(line string) bool {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return true
	}

	switch cmd := fields[0]; cmd {
	case "quit", "exit", "q":
		p.term.printf("Bye!\n")
		return false
	case "help", "h", "?":
		p.term.printf("%s\n", playHelp)
	case "start", "s":
		if _, res := p.ctrl.Start(); !res.Applied {
			p.reject(res, -1)
			break
		}
		p.term.printf("Dealing %d cards. Memorize them!\n", engine.DeckSize)
	case "reset", "r":
		state, res := p.ctrl.Reset()
		if !res.Applied {
			p.reject(res, -1)
			break
		}
		p.term.printf("%s\n", state.Message)
	case "show", "board", "b":
		p.term.printf("%s", renderGame(p.ctrl.State()))
	case "flip", "f":
		if len(fields) < 2 {
			p.term.printf("Usage: flip N\n")
			break
		}
		p.flip(fields[1])
	default:
		if _, err := strconv.Atoi(cmd); err == nil {
			p.flip(cmd)
			break
		}
		p.term.printf("Unknown command %q. Type 'help' for commands.\n", cmd)
	}
	return true
}

func (p *player) flip(arg string) {
	index, err := strconv.Atoi(arg)
	if err != nil {
		p.term.printf("Card index must be a number, got %q\n", arg)
		return
	}
	state, res := p.ctrl.Flip(index)
	if !res.Applied {
		p.reject(res, index)
		return
	}
	p.term.printf("%s", renderBoard(state.Cards))
}

func (p *player) reject(res engine.Result, index int) {
	switch res.Reason {
	case engine.ReasonNotStarted:
		p.term.printf("Type 'start' to begin.\n")
	case engine.ReasonOutOfRange:
		p.term.printf("No card %d, choose 0-%d.\n", index, engine.DeckSize-1)
	case engine.ReasonShuffling:
		p.term.printf("Wait for the cards to be hidden.\n")
	case engine.ReasonPairPending:
		p.term.printf("Wait for the current pair to resolve.\n")
	case engine.ReasonMatched:
		p.term.printf("Card %d is already matched.\n", index)
	case engine.ReasonFaceUp:
		p.term.printf("Card %d is already face up.\n", index)
	case controller.ReasonClosed:
		p.term.printf("The game is over.\n")
	default:
		p.term.printf("Not allowed: %s\n", res.Reason)
	}
}

// notice prints what timers changed between prev and s. It runs on the
// controller's notification path and must not call back into it.
func (p *player) notice(prev, s engine.State) {
	if s.Generation != prev.Generation {
		return
	}

	switch {
	case s.Shuffling && !allFaceUp(prev.Cards) && allFaceUp(s.Cards):
		p.term.printf("%s", renderBoard(s.Cards))
	case prev.Shuffling && !s.Shuffling:
		p.term.printf("Cards hidden. Find the pairs!\n%s", renderBoard(s.Cards))
	case !prev.Completed && s.Completed:
		p.term.printf("%s%s\n", renderBoard(s.Cards), s.Message)
	case len(prev.Selection) == engine.MaxSelection && len(s.Selection) == 0:
		p.term.printf("%s\n%s", s.Message, renderGame(s))
	}
}

func allFaceUp(cards []engine.Card) bool {
	if len(cards) == 0 {
		return false
	}
	for _, card := range cards {
		if !card.Flipped && !card.Matched {
			return false
		}
	}
	return true
}

// renderGame renders the status line followed by the board.
func renderGame(s engine.State) string {
	var b strings.Builder
	if s.ShowStart {
		fmt.Fprintf(&b, "%s\n", s.Message)
		return b.String()
	}
	fmt.Fprintf(&b, "Moves: %d | Time: %ds | Pairs: %d/%d\n",
		s.Steps, s.Elapsed, engine.CountMatched(s.Cards)/2, len(s.Cards)/2)
	b.WriteString(renderBoard(s.Cards))
	return b.String()
}

// renderBoard lays the cards out boardColumns per row. Face-down cards show
// as "?", matched cards in parentheses.
func renderBoard(cards []engine.Card) string {
	var b strings.Builder
	for i, card := range cards {
		var cell string
		switch {
		case card.Matched:
			cell = "(" + card.Value + ")"
		case card.Flipped:
			cell = "[" + card.Value + "]"
		default:
			cell = "[" + engine.HiddenCardSymbol + "]"
		}
		fmt.Fprintf(&b, "%2d %-5s", i, cell)
		if (i+1)%boardColumns == 0 || i == len(cards)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
