package engine

import "github.com/DoyleJ11/gift-swap-backend/pkg/types"

// RedactedTitle replaces an item's title while it is still wrapped.
const RedactedTitle = "Wrapped gift"

// Project derives what viewerID is allowed to see of s. An empty viewerID
// is an outside observer and never sees unrevealed contents.
func Project(s State, viewerID string) types.View {
	v := types.View{
		Code:             s.Code,
		Phase:            string(s.Phase),
		ViewerID:         viewerID,
		HostID:           s.HostID,
		Players:          make([]types.PlayerView, 0, len(s.Players)),
		Items:            make([]types.ItemView, 0, len(s.Items)),
		PoolItemIDs:      s.Pool(),
		TurnOrder:        append([]string{}, s.TurnOrder...),
		TurnIndex:        s.TurnIndex,
		CurrentPlayerID:  s.CurrentPlayer(),
		LastStolenItemID: s.LastStolenItemID,
		LastStolenFromID: s.LastStolenFromID,
		LockThreshold:    s.Rules.lockThreshold(),
		Reveals:          make([]types.RevealRecord, 0, len(s.Revealed)),
		RevealIndex:      s.RevealIndex,
		TotalItems:       len(s.Items),
	}
	v.PoolSize = len(v.PoolItemIDs)

	for _, p := range s.Players {
		_, submitted := s.itemByCreator(p.ID)
		v.Players = append(v.Players, types.PlayerView{
			ID:           p.ID,
			DisplayName:  p.DisplayName,
			AvatarRef:    p.AvatarRef,
			Connected:    p.Connected,
			IsHost:       p.IsHost,
			HasSubmitted: submitted,
			HeldItemID:   s.Holdings[p.ID],
		})
	}

	for _, it := range s.Items {
		// In the lobby an item id next to a fresh HasSubmitted would name
		// its creator, so only the viewer's own item is listed.
		if s.Phase == PhaseLobby && (viewerID == "" || it.CreatorID != viewerID) {
			continue
		}
		owner, owned := s.Ownership[it.ID]
		iv := types.ItemView{
			ID:         it.ID,
			OwnerID:    owner,
			InPool:     !owned,
			StealCount: s.StealCount[it.ID],
			Locked:     s.StealCount[it.ID] >= s.Rules.lockThreshold(),
			Revealed:   it.Revealed,
		}
		if canSee(s, it, viewerID) {
			iv.Title = it.Title
			iv.ImageRef = it.ImageRef
			iv.CreatorID = it.CreatorID
		} else {
			iv.Title = RedactedTitle
			iv.Hidden = true
		}
		v.Items = append(v.Items, iv)
	}

	for _, r := range s.Revealed {
		v.Reveals = append(v.Reveals, types.RevealRecord{
			ItemID:    r.ItemID,
			Title:     r.Title,
			ImageRef:  r.ImageRef,
			OwnerID:   r.OwnerID,
			CreatorID: r.CreatorID,
		})
	}
	return v
}

// ProjectEvents strips what viewerID may not learn from events. Other
// players' submit and retract events keep the player but lose the item id.
func ProjectEvents(events []Event, viewerID string) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		switch e.Type {
		case EvtItemSubmitted, EvtItemRetracted:
			if viewerID == "" || e.PlayerID != viewerID {
				e.ItemID = ""
			}
		}
		out = append(out, e)
	}
	return out
}

func canSee(s State, it Item, viewerID string) bool {
	if it.Revealed || s.Phase == PhaseFinished {
		return true
	}
	return s.Rules.CreatorsSeeOwnItems && viewerID != "" && it.CreatorID == viewerID
}
