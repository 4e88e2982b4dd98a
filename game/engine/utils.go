package engine

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	out.Cards = append([]Card(nil), s.Cards...)
	out.Selection = append([]int(nil), s.Selection...)
	if out.Cards == nil {
		out.Cards = []Card{}
	}
	if out.Selection == nil {
		out.Selection = []int{}
	}
	return out
}

// Public returns a copy that hides the value of every face-down, unmatched
// card, suitable for sending to players.
func (s State) Public() State {
	out := s.Clone()
	for i := range out.Cards {
		if !out.Cards[i].Flipped && !out.Cards[i].Matched {
			out.Cards[i].Value = HiddenCardSymbol
		}
	}
	return out
}

// AllMatched reports whether the deck is non-empty and every card is matched.
func AllMatched(cards []Card) bool {
	if len(cards) == 0 {
		return false
	}
	for _, c := range cards {
		if !c.Matched {
			return false
		}
	}
	return true
}

// CountMatched counts the matched cards in a deck
func CountMatched(cards []Card) int {
	count := 0
	for _, c := range cards {
		if c.Matched {
			count++
		}
	}
	return count
}

// RemainingPairs returns the number of pairs not yet matched.
func RemainingPairs(cards []Card) int {
	return (len(cards) - CountMatched(cards)) / 2
}

// CountValues counts how many cards carry each value.
func CountValues(cards []Card) map[string]int {
	counts := make(map[string]int)
	for _, c := range cards {
		counts[c.Value]++
	}
	return counts
}

func sameSelection(selection []int, pair [2]int) bool {
	return len(selection) == 2 && selection[0] == pair[0] && selection[1] == pair[1]
}
