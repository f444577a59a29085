package engine

import (
	"errors"
	"strings"
)

var ErrRoomNotJoinable = errors.New("room not joinable")
var ErrDuplicateSubmission = errors.New("item already submitted")
var ErrNotAuthorized = errors.New("not authorized")
var ErrInsufficientPlayers = errors.New("not enough players")
var ErrIncompleteSubmissions = errors.New("not every player has submitted an item")
var ErrNotYourTurn = errors.New("not your turn")
var ErrPoolEmpty = errors.New("pool is empty")
var ErrTargetHasNoItem = errors.New("target holds no item")
var ErrStealBackForbidden = errors.New("cannot steal back the item just stolen")
var ErrItemLocked = errors.New("item is locked")
var ErrAlreadyFinished = errors.New("game already finished")
var ErrWrongPhase = errors.New("not allowed in current phase")
var ErrUnknownPlayer = errors.New("unknown player")
var ErrItemUnavailable = errors.New("item not available")
var ErrMalformedEvent = errors.New("malformed event")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseActive   Phase = "active"
	PhaseReveal   Phase = "reveal"
	PhaseFinished Phase = "finished"
)

const (
	DefaultLockThreshold = 3
	DefaultMinPlayers    = 2
)

type Player struct {
	ID          string
	DisplayName string
	AvatarRef   string
	Connected   bool
	IsHost      bool
}

type Item struct {
	ID        string
	Title     string
	ImageRef  string
	CreatorID string
	Revealed  bool
}

type Reveal struct {
	ItemID    string
	Title     string
	ImageRef  string
	OwnerID   string
	CreatorID string
}

type Rules struct {
	LockThreshold       int
	MinPlayers          int
	CreatorsSeeOwnItems bool
	HostFailover        bool
}

// State is one room's full game state. Ownership and Holdings are kept as
// inverse maps of each other; TurnSlot is the inverse of TurnOrder.
type State struct {
	Code    string
	Phase   Phase
	HostID  string
	Players []Player
	Items   []Item

	Ownership  map[string]string // item id -> holder id
	Holdings   map[string]string // holder id -> item id
	StealCount map[string]int

	TurnOrder []string
	TurnSlot  map[string]int
	TurnIndex int

	LastStolenItemID string
	LastStolenFromID string

	RevealOrder []string
	Revealed    []Reveal
	RevealIndex int

	Rules Rules
}

// Rand is the randomness the engine needs. *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type CommandType string

const (
	CmdJoin         CommandType = "Join"
	CmdDisconnect   CommandType = "Disconnect"
	CmdSubmitItem   CommandType = "SubmitItem"
	CmdRetractItem  CommandType = "RetractItem"
	CmdStartGame    CommandType = "StartGame"
	CmdClaim        CommandType = "ClaimFromPool"
	CmdSteal        CommandType = "StealItem"
	CmdRevealNext   CommandType = "RevealNext"
	CmdTransferHost CommandType = "TransferHost"
)

/*
	CmdJoin         -> EvtPlayerJoined (+ EvtHostChanged for the first joiner) | EvtPlayerReconnected
	CmdDisconnect   -> EvtPlayerDisconnected (+ EvtHostChanged with failover)
	CmdSubmitItem   -> EvtItemSubmitted
	CmdStartGame    -> EvtGameStarted -> EvtPhaseChanged(active)
	CmdClaim        -> EvtItemClaimed -> EvtTurnAdvanced | EvtPhaseChanged(reveal)
	CmdSteal        -> EvtItemStolen -> EvtTurnAdvanced (victim, or normal advance)
	CmdRevealNext   -> EvtItemRevealed (-> EvtPhaseChanged(finished) -> EvtGameFinished)
*/

// Command is a validated request from one player. PlayerID is the acting
// player; for CmdJoin it is the identity presented for a reconnect. NewID
// is the identifier issued by the caller for a fresh player or item.
type Command struct {
	Type           CommandType
	PlayerID       string
	NewID          string
	DisplayName    string
	AvatarRef      string
	ItemID         string
	Title          string
	ImageRef       string
	TargetPlayerID string
}

type EventType string

const (
	EvtPlayerJoined       EventType = "PlayerJoined"
	EvtPlayerReconnected  EventType = "PlayerReconnected"
	EvtPlayerDisconnected EventType = "PlayerDisconnected"
	EvtHostChanged        EventType = "HostChanged"
	EvtItemSubmitted      EventType = "ItemSubmitted"
	EvtItemRetracted      EventType = "ItemRetracted"
	EvtGameStarted        EventType = "GameStarted"
	EvtItemClaimed        EventType = "ItemClaimed"
	EvtItemStolen         EventType = "ItemStolen"
	EvtTurnAdvanced       EventType = "TurnAdvanced"
	EvtPhaseChanged       EventType = "PhaseChanged"
	EvtItemRevealed       EventType = "ItemRevealed"
	EvtGameFinished       EventType = "GameFinished"
)

type Event struct {
	Type           EventType
	PlayerID       string
	TargetPlayerID string
	ItemID         string
	Phase          Phase
	Reveal         *Reveal
}

// Apply validates cmd against s and returns the resulting events and state.
// On error the returned state is s, unchanged.
func Apply(s State, cmd Command, rng Rand) ([]Event, State, error) {
	next := s.Clone()

	var (
		events []Event
		err    error
	)
	switch cmd.Type {
	case CmdJoin:
		events, err = join(&next, cmd)
	case CmdDisconnect:
		events, err = disconnect(&next, cmd)
	case CmdSubmitItem:
		events, err = submitItem(&next, cmd)
	case CmdRetractItem:
		events, err = retractItem(&next, cmd)
	case CmdStartGame:
		events, err = startGame(&next, cmd, rng)
	case CmdClaim:
		events, err = claim(&next, cmd, rng)
	case CmdSteal:
		events, err = steal(&next, cmd)
	case CmdRevealNext:
		events, err = revealNext(&next, cmd)
	case CmdTransferHost:
		events, err = transferHost(&next, cmd)
	default:
		err = ErrUnsupportedCommand
	}
	if err != nil {
		return nil, s, err
	}
	return events, next, nil
}

func join(s *State, cmd Command) ([]Event, error) {
	// A known identity is a reconnect and is allowed in every phase.
	if i, ok := s.playerIndex(cmd.PlayerID); ok {
		s.Players[i].Connected = true
		return []Event{{Type: EvtPlayerReconnected, PlayerID: cmd.PlayerID}}, nil
	}

	if s.Phase != PhaseLobby {
		return nil, ErrRoomNotJoinable
	}

	name := strings.TrimSpace(cmd.DisplayName)
	if name == "" || cmd.NewID == "" {
		return nil, ErrMalformedEvent
	}
	if _, taken := s.playerIndex(cmd.NewID); taken {
		return nil, ErrMalformedEvent
	}

	p := Player{
		ID:          cmd.NewID,
		DisplayName: name,
		AvatarRef:   cmd.AvatarRef,
		Connected:   true,
	}
	s.Players = append(s.Players, p)
	events := []Event{{Type: EvtPlayerJoined, PlayerID: p.ID}}

	if s.HostID == "" {
		events = append(events, s.setHost(p.ID))
	}
	return events, nil
}

func disconnect(s *State, cmd Command) ([]Event, error) {
	i, ok := s.playerIndex(cmd.PlayerID)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	s.Players[i].Connected = false
	events := []Event{{Type: EvtPlayerDisconnected, PlayerID: cmd.PlayerID}}

	if s.Rules.HostFailover && s.HostID == cmd.PlayerID {
		for _, p := range s.Players {
			if p.Connected {
				events = append(events, s.setHost(p.ID))
				break
			}
		}
	}
	return events, nil
}

func submitItem(s *State, cmd Command) ([]Event, error) {
	if s.Phase != PhaseLobby {
		return nil, ErrWrongPhase
	}
	if _, ok := s.playerIndex(cmd.PlayerID); !ok {
		return nil, ErrUnknownPlayer
	}
	if _, ok := s.itemByCreator(cmd.PlayerID); ok {
		return nil, ErrDuplicateSubmission
	}

	title := strings.TrimSpace(cmd.Title)
	if title == "" || cmd.NewID == "" {
		return nil, ErrMalformedEvent
	}
	if _, taken := s.itemIndex(cmd.NewID); taken {
		return nil, ErrMalformedEvent
	}

	s.Items = append(s.Items, Item{
		ID:        cmd.NewID,
		Title:     title,
		ImageRef:  cmd.ImageRef,
		CreatorID: cmd.PlayerID,
	})
	return []Event{{Type: EvtItemSubmitted, PlayerID: cmd.PlayerID, ItemID: cmd.NewID}}, nil
}

func retractItem(s *State, cmd Command) ([]Event, error) {
	if s.Phase != PhaseLobby {
		return nil, ErrWrongPhase
	}
	if _, ok := s.playerIndex(cmd.PlayerID); !ok {
		return nil, ErrUnknownPlayer
	}
	i, ok := s.itemByCreator(cmd.PlayerID)
	if !ok {
		return nil, ErrItemUnavailable
	}

	id := s.Items[i].ID
	s.Items = append(s.Items[:i], s.Items[i+1:]...)
	return []Event{{Type: EvtItemRetracted, PlayerID: cmd.PlayerID, ItemID: id}}, nil
}

func startGame(s *State, cmd Command, rng Rand) ([]Event, error) {
	if s.Phase != PhaseLobby {
		return nil, ErrWrongPhase
	}
	if cmd.PlayerID == "" || cmd.PlayerID != s.HostID {
		return nil, ErrNotAuthorized
	}
	if len(s.Players) < s.Rules.minPlayers() {
		return nil, ErrInsufficientPlayers
	}

	submitters := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		if _, ok := s.itemByCreator(p.ID); !ok {
			return nil, ErrIncompleteSubmissions
		}
		submitters = append(submitters, p.ID)
	}

	Shuffle(submitters, rng)
	s.setTurnOrder(submitters)
	s.Phase = PhaseActive

	return []Event{
		{Type: EvtGameStarted, PlayerID: s.TurnOrder[0]},
		{Type: EvtPhaseChanged, Phase: PhaseActive},
	}, nil
}

func claim(s *State, cmd Command, rng Rand) ([]Event, error) {
	if s.Phase != PhaseActive {
		return nil, ErrWrongPhase
	}
	if cmd.PlayerID != s.CurrentPlayer() {
		return nil, ErrNotYourTurn
	}

	pool := s.Pool()
	if len(pool) == 0 {
		return nil, ErrPoolEmpty
	}

	itemID := cmd.ItemID
	if itemID == "" {
		itemID = pool[rng.IntN(len(pool))]
	} else if !s.InPool(itemID) {
		return nil, ErrItemUnavailable
	}

	s.Ownership[itemID] = cmd.PlayerID
	s.Holdings[cmd.PlayerID] = itemID
	s.LastStolenItemID = ""
	s.LastStolenFromID = ""

	events := []Event{{Type: EvtItemClaimed, PlayerID: cmd.PlayerID, ItemID: itemID}}
	return append(events, advanceTurn(s)...), nil
}

func steal(s *State, cmd Command) ([]Event, error) {
	if s.Phase != PhaseActive {
		return nil, ErrWrongPhase
	}
	if cmd.PlayerID != s.CurrentPlayer() {
		return nil, ErrNotYourTurn
	}

	victim := cmd.TargetPlayerID
	itemID, ok := s.Holdings[victim]
	if !ok || victim == cmd.PlayerID {
		return nil, ErrTargetHasNoItem
	}
	if itemID == s.LastStolenItemID {
		return nil, ErrStealBackForbidden
	}
	if s.StealCount[itemID] >= s.Rules.lockThreshold() {
		return nil, ErrItemLocked
	}

	delete(s.Holdings, victim)
	s.Ownership[itemID] = cmd.PlayerID
	s.Holdings[cmd.PlayerID] = itemID
	s.StealCount[itemID]++
	s.LastStolenItemID = itemID
	s.LastStolenFromID = victim

	events := []Event{{Type: EvtItemStolen, PlayerID: cmd.PlayerID, TargetPlayerID: victim, ItemID: itemID}}

	// The dispossessed player acts next, if there is anything they can do.
	if hasLegalMove(s, victim) {
		s.TurnIndex = s.TurnSlot[victim]
		return append(events, Event{Type: EvtTurnAdvanced, PlayerID: victim}), nil
	}
	return append(events, advanceTurn(s)...), nil
}

func transferHost(s *State, cmd Command) ([]Event, error) {
	if cmd.PlayerID == "" || cmd.PlayerID != s.HostID {
		return nil, ErrNotAuthorized
	}
	if _, ok := s.playerIndex(cmd.TargetPlayerID); !ok {
		return nil, ErrUnknownPlayer
	}
	if cmd.TargetPlayerID == s.HostID {
		return nil, nil
	}
	return []Event{s.setHost(cmd.TargetPlayerID)}, nil
}
