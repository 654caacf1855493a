package model

import "time"

// ItemState is the lifecycle state of a catalog item on the auction floor.
type ItemState string

// Item states.
const (
	ItemIdle   ItemState = "idle"
	ItemActive ItemState = "active"
	ItemSold   ItemState = "sold"
	ItemUnsold ItemState = "unsold"
)

// Valid reports whether s is one of the known states.
func (s ItemState) Valid() bool {
	switch s {
	case ItemIdle, ItemActive, ItemSold, ItemUnsold:
		return true
	}
	return false
}

// Item is a catalog entry (a player) that teams bid for.
type Item struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Rating         int        `json:"rating"`
	Category       string     `json:"category"`
	Nationality    string     `json:"nationality"`
	ImageMime      string     `json:"image_mime,omitempty"`
	BasePrice      int64      `json:"base_price"`
	CurrentBid     int64      `json:"current_bid"`
	State          ItemState  `json:"state"`
	BuyerTeamID    *int64     `json:"buyer_team_id,omitempty"`
	PreviousOwner  string     `json:"previous_owner,omitempty"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	UnsoldAt       *time.Time `json:"unsold_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Bid is an accepted bid. Bids are never modified.
type Bid struct {
	ID       int64     `json:"id"`
	ItemID   int64     `json:"item_id"`
	TeamID   int64     `json:"team_id"`
	Amount   int64     `json:"amount"`
	PlacedAt time.Time `json:"placed_at"`

	// Joined fields (not always populated).
	TeamName string `json:"team_name,omitempty"`
}
