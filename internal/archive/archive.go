// Package archive records the outcome of finished exchanges. It never
// restores live rooms; it only keeps who ended up with what.
package archive

import (
	"context"
	"sync"
	"time"

	"github.com/DoyleJ11/gift-swap-backend/internal/engine"
)

type Record struct {
	Code       string
	FinishedAt time.Time
	TurnOrder  []string
	Reveals    []Reveal
}

// Reveal is one disclosed item with the display names resolved at the
// time the game finished.
type Reveal struct {
	Position    int
	ItemID      string
	Title       string
	ImageRef    string
	OwnerID     string
	OwnerName   string
	CreatorID   string
	CreatorName string
}

type Archiver interface {
	Archive(ctx context.Context, rec Record) error
}

type Reader interface {
	Recent(ctx context.Context, limit int) ([]Record, error)
}

// FromState builds a Record from a finished room.
func FromState(s engine.State, at time.Time) Record {
	names := make(map[string]string, len(s.Players))
	for _, p := range s.Players {
		names[p.ID] = p.DisplayName
	}

	rec := Record{
		Code:       s.Code,
		FinishedAt: at.UTC(),
		TurnOrder:  append([]string(nil), s.TurnOrder...),
		Reveals:    make([]Reveal, 0, len(s.Revealed)),
	}
	for i, r := range s.Revealed {
		rec.Reveals = append(rec.Reveals, Reveal{
			Position:    i,
			ItemID:      r.ItemID,
			Title:       r.Title,
			ImageRef:    r.ImageRef,
			OwnerID:     r.OwnerID,
			OwnerName:   names[r.OwnerID],
			CreatorID:   r.CreatorID,
			CreatorName: names[r.CreatorID],
		})
	}
	return rec
}

// Memory keeps records in process. It is the archive when no database is
// configured.
type Memory struct {
	mu      sync.RWMutex
	records []Record
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Archive(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Recent returns up to limit records, newest first.
func (m *Memory) Recent(_ context.Context, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		return []Record{}, nil
	}
	out := make([]Record, 0, min(limit, len(m.records)))
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}
