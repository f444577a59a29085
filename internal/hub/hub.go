package hub

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/DoyleJ11/gift-swap-backend/internal/ids"
	"github.com/DoyleJ11/gift-swap-backend/internal/room"
)

var ErrCodeSpaceExhausted = errors.New("could not find a free room code")
var ErrClosed = errors.New("hub closed")

const defaultMaxCodeAttempts = 32

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	Reply chan CreateResult
}

type CreateResult struct {
	Room *room.Room
	Err  error
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

// RemoveRoom drops Code from the table. When Room is set the entry is only
// removed if it still points at that room.
type RemoveRoom struct {
	Code string
	Room *room.Room
}

type CountRooms struct {
	Reply chan int
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (RemoveRoom) isHubMsg()  {}
func (CountRooms) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type Config struct {
	Codes           ids.Generator
	MaxCodeAttempts int
	// Room is the template every new room is built from; Code and OnEvict
	// are filled in by the hub.
	Room   room.Config
	Logger *zap.Logger
}

type Hub struct {
	cfg    Config
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewHub(parent context.Context, cfg Config) *Hub {
	if cfg.Codes == nil {
		cfg.Codes = ids.Random{}
	}
	if cfg.MaxCodeAttempts <= 0 {
		cfg.MaxCodeAttempts = defaultMaxCodeAttempts
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Room.Logger == nil {
		cfg.Room.Logger = cfg.Logger
	}

	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		cfg:    cfg,
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		log:    cfg.Logger,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// NormalizeCode makes lookups case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				rm, err := h.create()
				msg.Reply <- CreateResult{Room: rm, Err: err}

			case GetRoom:
				msg.Reply <- h.rooms[NormalizeCode(msg.Code)] // May be nil

			case RemoveRoom:
				code := NormalizeCode(msg.Code)
				rm, ok := h.rooms[code]
				if !ok || (msg.Room != nil && msg.Room != rm) {
					break
				}
				delete(h.rooms, code)
				rm.Close()
				h.log.Info("room removed", zap.String("room", code), zap.Int("rooms", len(h.rooms)))

			case CountRooms:
				msg.Reply <- len(h.rooms)

			case ShutdownHub:
				h.closeAll()
				h.cancel()
				return
			}
		}
	}
}

// create runs on the hub goroutine, so the free-code check and the insert
// cannot interleave with another create.
func (h *Hub) create() (*room.Room, error) {
	for attempt := 0; attempt < h.cfg.MaxCodeAttempts; attempt++ {
		code, err := h.cfg.Codes.RoomCode()
		if err != nil {
			return nil, err
		}
		code = NormalizeCode(code)
		if _, taken := h.rooms[code]; taken {
			h.log.Debug("collision on code, regenerating", zap.String("room", code))
			continue
		}

		cfg := h.cfg.Room
		cfg.Code = code
		cfg.OnEvict = h.evict
		rm := room.New(h.ctx, cfg)
		h.rooms[code] = rm
		h.log.Info("room created", zap.String("room", code), zap.Int("rooms", len(h.rooms)))
		return rm, nil
	}
	return nil, ErrCodeSpaceExhausted
}

func (h *Hub) evict(rm *room.Room) {
	h.send(context.Background(), RemoveRoom{Code: rm.Code(), Room: rm})
}

func (h *Hub) closeAll() {
	for _, rm := range h.rooms {
		rm.Close()
	}
	clear(h.rooms)
}

func (h *Hub) send(ctx context.Context, m HubMsg) error {
	select {
	case h.inbox <- m:
		return nil
	case <-h.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Create registers a new room under a fresh code.
func (h *Hub) Create(ctx context.Context) (*room.Room, error) {
	reply := make(chan CreateResult, 1)
	if err := h.send(ctx, CreateRoom{Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case res := <-reply:
		return res.Room, res.Err
	case <-h.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Find looks a room up by code, ignoring case.
func (h *Hub) Find(ctx context.Context, code string) (*room.Room, bool) {
	reply := make(chan *room.Room, 1)
	if err := h.send(ctx, GetRoom{Code: code, Reply: reply}); err != nil {
		return nil, false
	}
	select {
	case rm := <-reply:
		return rm, rm != nil
	case <-h.done:
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

// Remove closes and forgets a room. Unknown codes are ignored.
func (h *Hub) Remove(code string) {
	_ = h.send(context.Background(), RemoveRoom{Code: code})
}

func (h *Hub) Count(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	if err := h.send(ctx, CountRooms{Reply: reply}); err != nil {
		return 0, err
	}
	select {
	case n := <-reply:
		return n, nil
	case <-h.done:
		return 0, ErrClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Shutdown closes every room and waits for the hub loop to stop.
func (h *Hub) Shutdown() {
	if err := h.send(context.Background(), ShutdownHub{}); err != nil {
		return
	}
	<-h.done
}
