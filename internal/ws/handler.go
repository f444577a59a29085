package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/DoyleJ11/gift-swap-backend/internal/hub"
	"github.com/DoyleJ11/gift-swap-backend/internal/room"
	"github.com/DoyleJ11/gift-swap-backend/internal/types"
)

const (
	writeTimeout = 3 * time.Second
	outboxSize   = 16
)

type Options struct {
	// OriginPatterns is passed to websocket.Accept. Empty means same-origin only.
	OriginPatterns []string
	// MessageRate and MessageBurst bound how fast one connection may send
	// commands. A zero rate disables limiting.
	MessageRate  rate.Limit
	MessageBurst int
	Logger       *zap.Logger
}

// Handler upgrades GET /ws?code=&name=&avatar=&token= and runs one client
// session against the named room. token is the reconnect token from an
// earlier Welcome.
func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		rm, ok := h.Find(r.Context(), code)
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Debug("websocket accept", zap.String("room", rm.Code()), zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")
		conn.SetReadLimit(types.MaxMessageSize)

		ctx := r.Context()
		clientID := uuid.NewString()
		log := log.With(zap.String("room", rm.Code()), zap.String("client", clientID))

		out := make(chan room.Snapshot, outboxSize)
		seat, err := rm.Join(ctx, room.Join{
			ClientID:    clientID,
			Token:       q.Get("token"),
			DisplayName: q.Get("name"),
			AvatarRef:   q.Get("avatar"),
			Outbox:      out,
		})
		if err != nil {
			_ = write(ctx, conn, types.ErrorMessage(err))
			conn.Close(websocket.StatusPolicyViolation, types.ErrorCode(err))
			return
		}
		defer rm.Leave(clientID)

		// Welcome goes out before the writer starts so it precedes every snapshot.
		if err := write(ctx, conn, types.WelcomeMessage(seat)); err != nil {
			return
		}
		playerID := seat.PlayerID
		log.Info("client connected", zap.String("player", playerID))

		go writeLoop(ctx, conn, out, log)

		limiter := rate.NewLimiter(rate.Inf, 0)
		if opts.MessageRate > 0 {
			limiter = rate.NewLimiter(opts.MessageRate, max(opts.MessageBurst, 1))
		}

		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					log.Info("client disconnected", zap.String("player", playerID))
				default:
					log.Debug("read failed", zap.String("player", playerID), zap.Error(err))
				}
				return
			}

			if !limiter.Allow() {
				_ = write(ctx, conn, types.ErrorMessage(types.ErrRateLimited))
				continue
			}

			cmd, err := types.Decode(data)
			if err != nil {
				_ = write(ctx, conn, types.ErrorMessage(err))
				continue
			}

			err = rm.Do(ctx, room.FromClient{ClientID: clientID, Cmd: cmd})
			switch {
			case err == nil:
			case errors.Is(err, room.ErrClosed):
				conn.Close(websocket.StatusGoingAway, "room closed")
				return
			default:
				// Errors only go back to the sender.
				_ = write(ctx, conn, types.ErrorMessage(err))
			}
		}
	}
}

// writeLoop forwards snapshots until the room closes the outbox, either
// because it is going away or because this client fell too far behind.
func writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan room.Snapshot, log *zap.Logger) {
	for snap := range out {
		if err := write(ctx, conn, types.SnapshotMessage(snap)); err != nil {
			log.Debug("write failed", zap.Error(err))
			conn.Close(websocket.StatusInternalError, "write failed")
			return
		}
	}
	conn.Close(websocket.StatusGoingAway, "detached")
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
