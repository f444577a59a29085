package engine

// Shuffle permutes ids in place with a Fisher-Yates shuffle driven by rng.
func Shuffle(ids []string, rng Rand) {
	for i := len(ids) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}

func (s *State) setTurnOrder(order []string) {
	s.TurnOrder = order
	s.TurnSlot = make(map[string]int, len(order))
	for slot, id := range order {
		s.TurnSlot[id] = slot
	}
	s.TurnIndex = 0
}

// CurrentPlayer returns whose turn it is, or "" outside the active phase.
func (s State) CurrentPlayer() string {
	if s.Phase != PhaseActive || s.TurnIndex < 0 || s.TurnIndex >= len(s.TurnOrder) {
		return ""
	}
	return s.TurnOrder[s.TurnIndex]
}

// advanceTurn moves the cursor to the next slot whose player holds nothing,
// or ends the active phase when everyone holds an item.
func advanceTurn(s *State) []Event {
	n := len(s.TurnOrder)
	for step := 1; step <= n; step++ {
		slot := (s.TurnIndex + step) % n
		if _, holds := s.Holdings[s.TurnOrder[slot]]; !holds {
			s.TurnIndex = slot
			return []Event{{Type: EvtTurnAdvanced, PlayerID: s.TurnOrder[slot]}}
		}
	}

	beginReveal(s)
	return []Event{{Type: EvtPhaseChanged, Phase: PhaseReveal}}
}

// hasLegalMove reports whether id could claim or steal anything right now.
func hasLegalMove(s *State, id string) bool {
	if len(s.Pool()) > 0 {
		return true
	}
	for holder, itemID := range s.Holdings {
		if holder == id || itemID == s.LastStolenItemID {
			continue
		}
		if s.StealCount[itemID] < s.Rules.lockThreshold() {
			return true
		}
	}
	return false
}
