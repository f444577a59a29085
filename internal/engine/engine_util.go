package engine

import (
	"maps"
	"slices"
)

func NewEmptyState(code string, rules Rules) State {
	return State{
		Code:       code,
		Phase:      PhaseLobby,
		Players:    []Player{},
		Items:      []Item{},
		Ownership:  map[string]string{},
		Holdings:   map[string]string{},
		StealCount: map[string]int{},
		TurnSlot:   map[string]int{},
		Revealed:   []Reveal{},
		Rules:      rules,
	}
}

func DefaultRules() Rules {
	return Rules{
		LockThreshold:       DefaultLockThreshold,
		MinPlayers:          DefaultMinPlayers,
		CreatorsSeeOwnItems: true,
	}
}

// Clone returns a deep copy so Apply never mutates its input.
func (s State) Clone() State {
	c := s
	c.Players = slices.Clone(s.Players)
	c.Items = slices.Clone(s.Items)
	c.TurnOrder = slices.Clone(s.TurnOrder)
	c.RevealOrder = slices.Clone(s.RevealOrder)
	c.Revealed = slices.Clone(s.Revealed)
	c.Ownership = maps.Clone(s.Ownership)
	c.Holdings = maps.Clone(s.Holdings)
	c.StealCount = maps.Clone(s.StealCount)
	c.TurnSlot = maps.Clone(s.TurnSlot)
	return c
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// Pool returns unowned item ids in submission order.
func (s State) Pool() []string {
	pool := []string{}
	for _, it := range s.Items {
		if _, owned := s.Ownership[it.ID]; !owned {
			pool = append(pool, it.ID)
		}
	}
	return pool
}

func (s State) InPool(itemID string) bool {
	if _, ok := s.itemIndex(itemID); !ok {
		return false
	}
	_, owned := s.Ownership[itemID]
	return !owned
}

func (s State) Player(id string) (Player, bool) {
	i, ok := s.playerIndex(id)
	if !ok {
		return Player{}, false
	}
	return s.Players[i], true
}

func (s State) playerIndex(id string) (int, bool) {
	if id == "" {
		return 0, false
	}
	for i, p := range s.Players {
		if p.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (s State) itemIndex(id string) (int, bool) {
	for i, it := range s.Items {
		if it.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (s State) itemByCreator(playerID string) (int, bool) {
	for i, it := range s.Items {
		if it.CreatorID == playerID {
			return i, true
		}
	}
	return 0, false
}

func (s *State) setHost(id string) Event {
	for i := range s.Players {
		s.Players[i].IsHost = s.Players[i].ID == id
	}
	s.HostID = id
	return Event{Type: EvtHostChanged, PlayerID: id}
}

func (r Rules) lockThreshold() int {
	if r.LockThreshold <= 0 {
		return DefaultLockThreshold
	}
	return r.LockThreshold
}

func (r Rules) minPlayers() int {
	if r.MinPlayers < DefaultMinPlayers {
		return DefaultMinPlayers
	}
	return r.MinPlayers
}
