package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/gift-swap-backend/internal/archive"
	"github.com/DoyleJ11/gift-swap-backend/internal/engine"
	"github.com/DoyleJ11/gift-swap-backend/internal/hub"
)

const (
	defaultExchangeLimit = 20
	maxExchangeLimit     = 100
)

type roomInfo struct {
	Code     string `json:"code"`
	Phase    string `json:"phase"`
	Players  int    `json:"players"`
	Joinable bool   `json:"joinable"`
}

type exchangeReveal struct {
	Position    int    `json:"position"`
	ItemID      string `json:"item_id"`
	Title       string `json:"title"`
	ImageRef    string `json:"image_ref,omitempty"`
	OwnerID     string `json:"owner_id"`
	OwnerName   string `json:"owner_name"`
	CreatorID   string `json:"creator_id"`
	CreatorName string `json:"creator_name"`
}

type exchange struct {
	Code       string           `json:"code"`
	FinishedAt time.Time        `json:"finished_at"`
	TurnOrder  []string         `json:"turn_order"`
	Reveals    []exchangeReveal `json:"reveals"`
}

func CreateRoom(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm, err := h.Create(r.Context())
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, hub.ErrCodeSpaceExhausted) || errors.Is(err, hub.ErrClosed) {
				status = http.StatusServiceUnavailable
			}
			log.Error("create room", zap.Error(err))
			http.Error(w, "failed to create room", status)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: rm.Code()})
	}
}

func GetRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm, ok := h.Find(r.Context(), chi.URLParam(r, "code"))
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		view, err := rm.State(r.Context())
		if err != nil {
			// Closed between lookup and query.
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, roomInfo{
			Code:     rm.Code(),
			Phase:    string(view.State.Phase),
			Players:  len(view.State.Players),
			Joinable: view.State.Phase == engine.PhaseLobby,
		})
	}
}

// ListExchanges serves the most recent finished exchanges, newest first.
func ListExchanges(rd archive.Reader, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultExchangeLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = min(n, maxExchangeLimit)
		}

		recs, err := rd.Recent(r.Context(), limit)
		if err != nil {
			log.Error("list exchanges", zap.Error(err))
			http.Error(w, "failed to list exchanges", http.StatusInternalServerError)
			return
		}

		out := make([]exchange, 0, len(recs))
		for _, rec := range recs {
			ex := exchange{
				Code:       rec.Code,
				FinishedAt: rec.FinishedAt,
				TurnOrder:  rec.TurnOrder,
				Reveals:    make([]exchangeReveal, 0, len(rec.Reveals)),
			}
			for _, rv := range rec.Reveals {
				ex.Reveals = append(ex.Reveals, exchangeReveal(rv))
			}
			out = append(out, ex)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
