package room

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/gift-swap-backend/internal/archive"
	"github.com/DoyleJ11/gift-swap-backend/internal/engine"
	"github.com/DoyleJ11/gift-swap-backend/internal/ids"
	"github.com/DoyleJ11/gift-swap-backend/pkg/types"
)

var ErrClosed = errors.New("room closed")
var ErrNotJoined = errors.New("client has not joined the room")

const archiveTimeout = 5 * time.Second

type Msg interface{ isRoomMsg() }

// Join attaches a client connection. Token is the reconnect token issued by
// an earlier join; an empty or unknown token joins as a new player.
type Join struct {
	ClientID    string
	Token       string
	DisplayName string
	AvatarRef   string
	Outbox      chan Snapshot // where this client wants to receive snapshots
	Reply       chan JoinResult
}

func (Join) isRoomMsg() {}

// Seat is the identity a client was attached as. Token is private to that
// player and is the only way to reclaim the seat later.
type Seat struct {
	PlayerID string
	Token    string
}

type JoinResult struct {
	Seat Seat
	Err  error
}

// FromClient runs a command on behalf of the player bound to ClientID.
type FromClient struct {
	ClientID string
	Cmd      engine.Command
	Reply    chan error
}

func (FromClient) isRoomMsg() {}

type Leave struct{ ClientID string }

func (Leave) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

type Snapshot struct {
	Version int
	View    types.View
	Events  []types.Event
}

type View struct {
	Version    int
	NumClients int
	State      engine.State
}

type Config struct {
	Code      string
	Rules     engine.Rules
	IDs       ids.Generator
	Rand      engine.Rand
	Archiver  archive.Archiver
	IdleGrace time.Duration
	OnEvict   func(*Room)
	Logger    *zap.Logger
	Now       func() time.Time
}

type client struct {
	playerID string
	outbox   chan Snapshot
}

type Room struct {
	cfg     Config
	inbox   chan Msg
	state   engine.State
	version int
	clients map[string]client
	tokens  map[string]string // reconnect token -> player id
	idle    *time.Timer
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(parent context.Context, cfg Config) *Room {
	if cfg.IDs == nil {
		cfg.IDs = ids.Random{}
	}
	if cfg.Rand == nil {
		rng, err := ids.NewRand()
		if err != nil {
			rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
		}
		cfg.Rand = rng
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		cfg:     cfg,
		inbox:   make(chan Msg, 64), // Small buffer
		state:   engine.NewEmptyState(cfg.Code, cfg.Rules),
		clients: make(map[string]client),
		tokens:  make(map[string]string),
		log:     cfg.Logger.With(zap.String("room", cfg.Code)),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	r.armIdle()

	go r.loop()
	return r
}

func (r *Room) loop() {
	defer close(r.done)
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case <-r.idleC():
			r.idle = nil
			if len(r.clients) > 0 {
				break
			}
			r.log.Info("evicting idle room", zap.Duration("grace", r.cfg.IdleGrace))
			r.shutdown()
			if r.cfg.OnEvict != nil {
				r.cfg.OnEvict(r)
			}
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)

			case FromClient:
				r.handleCommand(msg)

			case Leave:
				r.handleLeave(msg.ClientID)

			case GetState:
				msg.Reply <- View{
					Version:    r.version,
					NumClients: len(r.clients),
					State:      r.state.Clone(),
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handleJoin(msg Join) {
	cmd := engine.Command{
		Type:        engine.CmdJoin,
		PlayerID:    r.tokens[msg.Token],
		NewID:       r.cfg.IDs.PlayerID(),
		DisplayName: msg.DisplayName,
		AvatarRef:   msg.AvatarRef,
	}
	events, err := r.apply(cmd)
	if err != nil {
		msg.Reply <- JoinResult{Err: err}
		return
	}

	seat := Seat{PlayerID: cmd.NewID, Token: uuid.NewString()}
	if engine.ContainsEvent(events, engine.EvtPlayerReconnected) {
		seat = Seat{PlayerID: cmd.PlayerID, Token: msg.Token}
	} else {
		r.tokens[seat.Token] = seat.PlayerID
	}

	r.clients[msg.ClientID] = client{playerID: seat.PlayerID, outbox: msg.Outbox}
	r.stopIdle()
	msg.Reply <- JoinResult{Seat: seat}
	r.log.Debug("client joined", zap.String("client", msg.ClientID), zap.String("player", seat.PlayerID))

	r.broadcast(events)
}

func (r *Room) handleCommand(msg FromClient) {
	c, ok := r.clients[msg.ClientID]
	if !ok {
		msg.Reply <- ErrNotJoined
		return
	}

	// Identity comes from the connection, never from the payload.
	cmd := msg.Cmd
	cmd.PlayerID = c.playerID
	if cmd.Type == engine.CmdSubmitItem {
		cmd.NewID = r.cfg.IDs.ItemID()
	}

	events, err := r.apply(cmd)
	msg.Reply <- err
	if err != nil || len(events) == 0 {
		return
	}
	r.broadcast(events)
}

func (r *Room) handleLeave(clientID string) {
	c, ok := r.clients[clientID]
	if !ok {
		return
	}
	close(c.outbox)
	delete(r.clients, clientID)

	r.disconnectIfGone(c.playerID)
	if len(r.clients) == 0 {
		r.armIdle()
	}
}

// apply runs cmd through the engine and commits the result. Failed commands
// and commands that produce no events leave the room untouched.
func (r *Room) apply(cmd engine.Command) ([]engine.Event, error) {
	prev := r.state.Phase
	events, next, err := engine.Apply(r.state, cmd, r.cfg.Rand)
	if err != nil {
		r.log.Debug("command rejected",
			zap.String("cmd", string(cmd.Type)),
			zap.String("player", cmd.PlayerID),
			zap.Error(err))
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	r.state = next
	r.version++
	if prev != next.Phase {
		r.log.Info("phase changed", zap.String("from", string(prev)), zap.String("to", string(next.Phase)))
	}
	if prev != engine.PhaseFinished && next.Phase == engine.PhaseFinished {
		r.archive()
	}
	return events, nil
}

func (r *Room) disconnectIfGone(playerID string) {
	for _, c := range r.clients {
		if c.playerID == playerID {
			return
		}
	}
	events, err := r.apply(engine.Command{Type: engine.CmdDisconnect, PlayerID: playerID})
	if err != nil {
		return
	}
	r.broadcast(events)
}

func (r *Room) broadcast(events []engine.Event) {
	var dropped []string
	for id, c := range r.clients {
		snap := Snapshot{
			Version: r.version,
			View:    engine.Project(r.state, c.playerID),
			Events:  toWireEvents(engine.ProjectEvents(events, c.playerID)),
		}
		select {
		case c.outbox <- snap:
			//ok
		default:
			// Client is slow/full - drop them.
			r.log.Warn("dropping slow client", zap.String("client", id), zap.String("player", c.playerID))
			close(c.outbox)
			delete(r.clients, id)
			dropped = append(dropped, c.playerID)
		}
	}

	for _, playerID := range dropped {
		r.disconnectIfGone(playerID)
	}
	if len(r.clients) == 0 {
		r.armIdle()
	}
}

func (r *Room) archive() {
	if r.cfg.Archiver == nil {
		return
	}
	rec := archive.FromState(r.state, r.cfg.Now())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := r.cfg.Archiver.Archive(ctx, rec); err != nil {
			r.log.Error("archive exchange", zap.Error(err))
			return
		}
		r.log.Info("exchange archived", zap.Int("reveals", len(rec.Reveals)))
	}()
}

func (r *Room) armIdle() {
	if r.cfg.IdleGrace <= 0 || r.idle != nil {
		return
	}
	r.idle = time.NewTimer(r.cfg.IdleGrace)
}

func (r *Room) stopIdle() {
	if r.idle == nil {
		return
	}
	r.idle.Stop()
	r.idle = nil
}

// idleC is nil, and so never ready, while no eviction is pending.
func (r *Room) idleC() <-chan time.Time {
	if r.idle == nil {
		return nil
	}
	return r.idle.C
}

func (r *Room) shutdown() {
	for id, c := range r.clients {
		close(c.outbox) // Tell client no more snapshots
		delete(r.clients, id)
	}
	r.stopIdle()
	r.cancel()
}

func toWireEvents(events []engine.Event) []types.Event {
	out := make([]types.Event, 0, len(events))
	for _, e := range events {
		we := types.Event{
			Type:           string(e.Type),
			PlayerID:       e.PlayerID,
			TargetPlayerID: e.TargetPlayerID,
			ItemID:         e.ItemID,
			Phase:          string(e.Phase),
		}
		if e.Reveal != nil {
			we.Reveal = &types.RevealRecord{
				ItemID:    e.Reveal.ItemID,
				Title:     e.Reveal.Title,
				ImageRef:  e.Reveal.ImageRef,
				OwnerID:   e.Reveal.OwnerID,
				CreatorID: e.Reveal.CreatorID,
			}
		}
		out = append(out, we)
	}
	return out
}
