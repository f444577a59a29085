package engine

func beginReveal(s *State) {
	s.Phase = PhaseReveal
	s.RevealIndex = 0
	s.Revealed = []Reveal{}
	s.RevealOrder = RevealOrder(*s)
}

// RevealOrder lists item ids in the order they are disclosed: the item held
// by each player in turn order, then any unowned items in submission order.
// It depends only on turn order and final ownership.
func RevealOrder(s State) []string {
	order := make([]string, 0, len(s.Items))
	seen := make(map[string]bool, len(s.Items))
	for _, pid := range s.TurnOrder {
		if itemID, ok := s.Holdings[pid]; ok && !seen[itemID] {
			order = append(order, itemID)
			seen[itemID] = true
		}
	}
	for _, it := range s.Items {
		if !seen[it.ID] {
			order = append(order, it.ID)
			seen[it.ID] = true
		}
	}
	return order
}

func revealNext(s *State, cmd Command) ([]Event, error) {
	switch s.Phase {
	case PhaseFinished:
		return nil, ErrAlreadyFinished
	case PhaseReveal:
	default:
		return nil, ErrWrongPhase
	}
	if _, ok := s.playerIndex(cmd.PlayerID); !ok {
		return nil, ErrUnknownPlayer
	}
	if s.RevealIndex >= len(s.RevealOrder) {
		return nil, ErrAlreadyFinished
	}

	itemID := s.RevealOrder[s.RevealIndex]
	i, _ := s.itemIndex(itemID)
	s.Items[i].Revealed = true

	it := s.Items[i]
	rec := Reveal{
		ItemID:    it.ID,
		Title:     it.Title,
		ImageRef:  it.ImageRef,
		OwnerID:   s.Ownership[it.ID],
		CreatorID: it.CreatorID,
	}
	s.Revealed = append(s.Revealed, rec)
	s.RevealIndex++

	events := []Event{{Type: EvtItemRevealed, PlayerID: rec.OwnerID, ItemID: rec.ItemID, Reveal: &rec}}
	if s.RevealIndex == len(s.Items) {
		s.Phase = PhaseFinished
		events = append(events,
			Event{Type: EvtPhaseChanged, Phase: PhaseFinished},
			Event{Type: EvtGameFinished},
		)
	}
	return events, nil
}
