package main

import (
	"bytes"
	"context"
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/memory-match-game/game/clock"
	"github.com/wricardo/memory-match-game/game/controller"
	"github.com/wricardo/memory-match-game/game/engine"
)

func newTestController(t *testing.T) (*controller.Controller, *clock.Virtual) {
	t.Helper()
	vclk := clock.NewVirtual(time.Unix(0, 0))
	ctrl, err := controller.NewController(engine.DefaultConfig(), vclk, rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatalf("Failed to create controller: %v", err)
	}
	t.Cleanup(ctrl.Close)
	return ctrl, vclk
}

// pairs returns the index pairs of the current deck.
func pairs(cards []engine.Card) [][2]int {
	first := make(map[string]int)
	var out [][2]int
	for i, card := range cards {
		if j, ok := first[card.Value]; ok {
			out = append(out, [2]int{j, i})
			continue
		}
		first[card.Value] = i
	}
	return out
}

func TestPlayer_RejectsBeforeStart(t *testing.T) {
	ctrl, _ := newTestController(t)
	var out bytes.Buffer
	p := newPlayer(ctrl, &out)

	p.exec("flip 3")
	if !strings.Contains(out.String(), "Type 'start' to begin.") {
		t.Errorf("Expected start hint, got %q", out.String())
	}
}

func TestPlayer_Commands(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		want      string
		keepGoing bool
	}{
		{"help", "help", "flip N, N", true},
		{"unknown", "dance", `Unknown command "dance"`, true},
		{"flip without index", "flip", "Usage: flip N", true},
		{"flip with bad index", "flip x", `must be a number, got "x"`, true},
		{"show on start screen", "show", engine.DefaultConfig().Messages.Welcome, true},
		{"blank line", "   ", "", true},
		{"quit", "quit", "Bye!", false},
		{"exit uppercase", "EXIT", "Bye!", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl, _ := newTestController(t)
			var out bytes.Buffer
			p := newPlayer(ctrl, &out)

			if got := p.exec(tt.line); got != tt.keepGoing {
				t.Errorf("exec(%q) = %v, want %v", tt.line, got, tt.keepGoing)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("Expected output to contain %q, got %q", tt.want, out.String())
			}
		})
	}
}

func TestPlayer_RevealAndHide(t *testing.T) {
	ctrl, vclk := newTestController(t)
	var out bytes.Buffer
	p := newPlayer(ctrl, &out)

	p.exec("start")
	p.exec("0")
	if !strings.Contains(out.String(), "Wait for the cards to be hidden.") {
		t.Errorf("Expected shuffling rejection, got %q", out.String())
	}

	// Every card face-up once the reveal finishes
	vclk.Advance(900 * time.Millisecond)
	for _, card := range ctrl.State().Cards {
		if !strings.Contains(out.String(), "["+card.Value+"]") {
			t.Errorf("Expected revealed board to show %s, got %q", card.Value, out.String())
		}
	}

	vclk.Advance(time.Second)
	if !strings.Contains(out.String(), "Cards hidden. Find the pairs!") {
		t.Errorf("Expected hide notice, got %q", out.String())
	}
	if ctrl.State().Shuffling {
		t.Error("Expected reveal to be over")
	}
}

func TestPlayer_FlipRules(t *testing.T) {
	ctrl, vclk := newTestController(t)
	var out bytes.Buffer
	p := newPlayer(ctrl, &out)

	p.exec("start")
	vclk.Advance(2 * time.Second)

	ps := pairs(ctrl.State().Cards)
	a, b := ps[0][0], ps[1][0]

	out.Reset()
	p.exec(strconv.Itoa(a))
	p.exec(strconv.Itoa(a))
	if !strings.Contains(out.String(), "is already face up") {
		t.Errorf("Expected face-up rejection, got %q", out.String())
	}

	p.exec("flip 99")
	if !strings.Contains(out.String(), "No card 99, choose 0-19.") {
		t.Errorf("Expected out-of-range rejection, got %q", out.String())
	}

	p.exec(strconv.Itoa(b))
	p.exec(strconv.Itoa(ps[2][0]))
	if !strings.Contains(out.String(), "Wait for the current pair to resolve.") {
		t.Errorf("Expected pair-pending rejection, got %q", out.String())
	}

	vclk.Advance(time.Second)
	if !strings.Contains(out.String(), engine.DefaultConfig().Messages.Mismatch) {
		t.Errorf("Expected mismatch message, got %q", out.String())
	}
	if !strings.Contains(out.String(), "Moves: 1 |") {
		t.Errorf("Expected one move in status, got %q", out.String())
	}

	p.exec(strconv.Itoa(ps[0][0]))
	p.exec(strconv.Itoa(ps[0][1]))
	vclk.Advance(time.Second)
	p.exec(strconv.Itoa(ps[0][0]))
	if !strings.Contains(out.String(), "is already matched") {
		t.Errorf("Expected matched rejection, got %q", out.String())
	}
}

func TestPlayer_FullGame(t *testing.T) {
	ctrl, vclk := newTestController(t)
	var out bytes.Buffer
	p := newPlayer(ctrl, &out)

	p.exec("start")
	vclk.Advance(2 * time.Second)

	for _, pair := range pairs(ctrl.State().Cards) {
		p.exec("flip " + strconv.Itoa(pair[0]))
		p.exec("flip " + strconv.Itoa(pair[1]))
		vclk.Advance(time.Second)
	}

	if !ctrl.State().Completed {
		t.Fatal("Expected game to be completed")
	}
	if !strings.Contains(out.String(), "All pairs found in 10 moves") {
		t.Errorf("Expected victory message, got %q", out.String())
	}

	p.exec("reset")
	if !strings.Contains(out.String(), engine.DefaultConfig().Messages.Welcome) {
		t.Errorf("Expected welcome message after reset, got %q", out.String())
	}
}

func TestPlayer_ClosedController(t *testing.T) {
	ctrl, _ := newTestController(t)
	var out bytes.Buffer
	p := newPlayer(ctrl, &out)

	ctrl.Close()
	p.exec("start")
	if !strings.Contains(out.String(), "The game is over.") {
		t.Errorf("Expected closed notice, got %q", out.String())
	}
}

func TestPlayLoop(t *testing.T) {
	ctrl, _ := newTestController(t)
	var out bytes.Buffer

	in := strings.NewReader("help\nbogus\nquit\nstart\n")
	if err := playLoop(context.Background(), in, &out, ctrl); err != nil {
		t.Fatalf("playLoop failed: %v", err)
	}

	for _, want := range []string{"Type 'start' to begin", "Commands:", `Unknown command "bogus"`, "Bye!"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected output to contain %q, got %q", want, out.String())
		}
	}
	if !ctrl.State().ShowStart {
		t.Error("Expected commands after quit to be ignored")
	}
}

func TestPlayLoop_EOF(t *testing.T) {
	ctrl, _ := newTestController(t)
	var out bytes.Buffer

	if err := playLoop(context.Background(), strings.NewReader("start\n"), &out, ctrl); err != nil {
		t.Fatalf("playLoop failed: %v", err)
	}
	if !ctrl.State().Running {
		t.Error("Expected start to be applied before EOF")
	}
}

func TestPlayLoop_Cancelled(t *testing.T) {
	ctrl, _ := newTestController(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := playLoop(ctx, strings.NewReader(""), &bytes.Buffer{}, ctrl); err != nil {
		t.Errorf("Expected nil error on cancel, got %v", err)
	}
}

func TestRenderBoard(t *testing.T) {
	cards := []engine.Card{
		{Value: "A", Matched: true, Flipped: true},
		{Value: "B", Flipped: true},
		{Value: "C"},
	}

	board := renderBoard(cards)
	for _, want := range []string{"(A)", "[B]", "[?]"} {
		if !strings.Contains(board, want) {
			t.Errorf("Expected board to contain %q, got %q", want, board)
		}
	}
	if strings.Contains(board, "C") {
		t.Errorf("Face-down value leaked: %q", board)
	}

	deck := engine.GenerateDeck(engine.DefaultSymbols(), rand.New(rand.NewPCG(3, 4)))
	if rows := strings.Count(renderBoard(deck), "\n"); rows != engine.DeckSize/boardColumns {
		t.Errorf("Expected %d rows, got %d", engine.DeckSize/boardColumns, rows)
	}
}
