package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/gift-swap-backend/pkg/types"
)

func itemView(t *testing.T, v types.View, id string) types.ItemView {
	t.Helper()
	for _, it := range v.Items {
		if it.ID == id {
			return it
		}
	}
	t.Fatalf("item %s not in view", id)
	return types.ItemView{}
}

func TestProject_LobbyListsOnlyOwnItem(t *testing.T) {
	s := lobbyWith(t, []string{"A", "B"}, []string{"X", "Y"})

	v := Project(s, "A")
	assert.Equal(t, 2, v.TotalItems)
	require.Len(t, v.Items, 1)
	own := itemView(t, v, "X")
	assert.Equal(t, "gift X", own.Title)
	assert.Equal(t, "A", own.CreatorID)
	assert.False(t, own.Hidden)

	s.Rules.CreatorsSeeOwnItems = false
	own = itemView(t, Project(s, "A"), "X")
	assert.True(t, own.Hidden)
	assert.Equal(t, RedactedTitle, own.Title)
	assert.Empty(t, own.CreatorID)

	observer := Project(s, "")
	assert.Empty(t, observer.Items)
	assert.Equal(t, 2, observer.TotalItems)
}

func TestProject_ActiveHidesContentsAndCreators(t *testing.T) {
	s := startedWith(t, []string{"A", "B"}, []string{"X", "Y"})

	v := Project(s, "A")
	require.Len(t, v.Items, 2)
	other := itemView(t, v, "Y")
	assert.Equal(t, RedactedTitle, other.Title)
	assert.Empty(t, other.CreatorID)
	assert.Empty(t, other.ImageRef)
	assert.True(t, other.Hidden)

	for _, it := range Project(s, "").Items {
		assert.True(t, it.Hidden, it.ID)
	}
}

func TestProjectEvents_HidesOtherPlayersItemIDs(t *testing.T) {
	events := []Event{
		{Type: EvtItemSubmitted, PlayerID: "B", ItemID: "Y"},
		{Type: EvtItemRetracted, PlayerID: "A", ItemID: "X"},
		{Type: EvtItemClaimed, PlayerID: "A", ItemID: "Y"},
	}

	forA := ProjectEvents(events, "A")
	assert.Equal(t, []Event{
		{Type: EvtItemSubmitted, PlayerID: "B"},
		{Type: EvtItemRetracted, PlayerID: "A", ItemID: "X"},
		{Type: EvtItemClaimed, PlayerID: "A", ItemID: "Y"},
	}, forA)

	forObserver := ProjectEvents(events, "")
	assert.Empty(t, forObserver[0].ItemID)
	assert.Empty(t, forObserver[1].ItemID)
	assert.Equal(t, "Y", events[0].ItemID, "input is not modified")
}

func TestProject_ActivePhaseExposesCursorAndPool(t *testing.T) {
	s := startedWith(t, []string{"A", "B", "C"}, []string{"X", "Y", "Z"})
	_, s = mustApply(t, s, Command{Type: CmdClaim, PlayerID: "A", ItemID: "Y"})

	v := Project(s, "C")
	assert.Equal(t, "active", v.Phase)
	assert.Equal(t, 2, v.PoolSize)
	assert.Equal(t, []string{"X", "Z"}, v.PoolItemIDs)
	assert.Equal(t, "B", v.CurrentPlayerID)
	assert.Equal(t, []string{"A", "B", "C"}, v.TurnOrder)
	assert.Equal(t, DefaultLockThreshold, v.LockThreshold)

	held := itemView(t, v, "Y")
	assert.Equal(t, "A", held.OwnerID)
	assert.False(t, held.InPool)
	assert.True(t, held.Hidden)
	require.Len(t, v.Players, 3)
	assert.Equal(t, "Y", v.Players[0].HeldItemID)
	assert.True(t, v.Players[0].HasSubmitted)
}

func TestProject_RevealDisclosesOneAtATime(t *testing.T) {
	s := startedWith(t, []string{"A", "B"}, []string{"X", "Y"})
	_, s = mustApply(t, s, Command{Type: CmdClaim, PlayerID: "A", ItemID: "Y"})
	_, s = mustApply(t, s, Command{Type: CmdClaim, PlayerID: "B", ItemID: "X"})
	require.Equal(t, PhaseReveal, s.Phase)

	_, s = mustApply(t, s, Command{Type: CmdRevealNext, PlayerID: "A"})
	v := Project(s, "B")
	assert.False(t, itemView(t, v, "Y").Hidden)
	assert.Equal(t, "B", itemView(t, v, "Y").CreatorID)
	require.Len(t, v.Reveals, 1)
	assert.Equal(t, types.RevealRecord{ItemID: "Y", Title: "gift Y", OwnerID: "A", CreatorID: "B"}, v.Reveals[0])

	// X is still wrapped for everyone but its creator.
	assert.True(t, itemView(t, Project(s, "B"), "X").Hidden)
	assert.False(t, itemView(t, Project(s, "A"), "X").Hidden)

	_, s = mustApply(t, s, Command{Type: CmdRevealNext, PlayerID: "A"})
	v = Project(s, "")
	assert.Equal(t, "finished", v.Phase)
	for _, it := range v.Items {
		assert.False(t, it.Hidden, it.ID)
	}
}
