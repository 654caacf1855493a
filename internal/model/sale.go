package model

import "time"

// Sale records the settlement of an item to a team. At most one exists per item.
type Sale struct {
	ItemID      int64     `json:"item_id"`
	TeamID      int64     `json:"team_id"`
	Amount      int64     `json:"amount"`
	IsRTM       bool      `json:"is_rtm"`
	ItemName    string    `json:"item_name"`
	Rating      int       `json:"rating"`
	Category    string    `json:"category"`
	Nationality string    `json:"nationality"`
	SoldAt      time.Time `json:"sold_at"`

	// Joined fields (not always populated).
	TeamName string `json:"team_name,omitempty"`
}

// Unsold records an item that went through the floor without a buyer.
type Unsold struct {
	ItemID      int64     `json:"item_id"`
	ItemName    string    `json:"item_name"`
	Rating      int       `json:"rating"`
	Category    string    `json:"category"`
	Nationality string    `json:"nationality"`
	MarkedAt    time.Time `json:"marked_at"`
}

// Negotiation is a pending right-to-match decision for the previous owner.
type Negotiation struct {
	ID           string    `json:"id"`
	ItemID       int64     `json:"item_id"`
	OwnerTeamID  int64     `json:"owner_team_id"`
	BidderTeamID int64     `json:"bidder_team_id"`
	Amount       int64     `json:"amount"`
	OpenedAt     time.Time `json:"opened_at"`
}

// RTMUsage counts right-to-match purchases.
type RTMUsage struct {
	Total    int `json:"total"`
	Domestic int `json:"domestic"`
	Overseas int `json:"overseas"`
}

// Ledger entry kinds.
const (
	LedgerDebit  = "debit"
	LedgerRefund = "refund"
	LedgerReset  = "reset"
)

// LedgerEntry is one budget movement. Amount is negative for debits.
type LedgerEntry struct {
	ID        int64     `json:"id"`
	TeamID    int64     `json:"team_id"`
	ItemID    *int64    `json:"item_id,omitempty"`
	Kind      string    `json:"kind"`
	Amount    int64     `json:"amount"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}
