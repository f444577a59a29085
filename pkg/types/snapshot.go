package types

// View is the player-visible projection of a room. It is what every
// StateSnapshot carries; it never exposes the engine's internal maps.
type View struct {
	Code             string         `json:"code"`
	Phase            string         `json:"phase"`
	ViewerID         string         `json:"viewer_id,omitempty"`
	HostID           string         `json:"host_id"`
	Players          []PlayerView   `json:"players"`
	Items            []ItemView     `json:"items"`
	PoolSize         int            `json:"pool_size"`
	PoolItemIDs      []string       `json:"pool_item_ids"`
	TurnOrder        []string       `json:"turn_order"`
	TurnIndex        int            `json:"turn_index"`
	CurrentPlayerID  string         `json:"current_player_id,omitempty"`
	LastStolenItemID string         `json:"last_stolen_item_id,omitempty"`
	LastStolenFromID string         `json:"last_stolen_from_id,omitempty"`
	LockThreshold    int            `json:"lock_threshold"`
	Reveals          []RevealRecord `json:"reveals"`
	RevealIndex      int            `json:"reveal_index"`
	TotalItems       int            `json:"total_items"`
}

type PlayerView struct {
	ID           string `json:"id"`
	DisplayName  string `json:"display_name"`
	AvatarRef    string `json:"avatar_ref,omitempty"`
	Connected    bool   `json:"connected"`
	IsHost       bool   `json:"is_host"`
	HasSubmitted bool   `json:"has_submitted"`
	HeldItemID   string `json:"held_item_id,omitempty"`
}

// ItemView carries an item's public fields. Title and ImageRef hold
// placeholders while Hidden is set.
type ItemView struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ImageRef   string `json:"image_ref,omitempty"`
	CreatorID  string `json:"creator_id,omitempty"`
	OwnerID    string `json:"owner_id,omitempty"`
	InPool     bool   `json:"in_pool"`
	StealCount int    `json:"steal_count"`
	Locked     bool   `json:"locked"`
	Hidden     bool   `json:"hidden"`
	Revealed   bool   `json:"revealed"`
}

type RevealRecord struct {
	ItemID    string `json:"item_id"`
	Title     string `json:"title"`
	ImageRef  string `json:"image_ref,omitempty"`
	OwnerID   string `json:"owner_id"`
	CreatorID string `json:"creator_id"`
}
