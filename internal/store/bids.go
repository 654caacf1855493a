package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/drazba/internal/model"
)

// InsertBid appends an accepted bid.
func InsertBid(ctx context.Context, db DBTX, itemID, teamID, amount int64, now time.Time) (*model.Bid, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO bids (item_id, team_id, amount, placed_at) VALUES (?, ?, ?, ?)`,
		itemID, teamID, amount, now,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting bid: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting bid id: %w", err)
	}

	return &model.Bid{ID: id, ItemID: itemID, TeamID: teamID, Amount: amount, PlacedAt: now}, nil
}

// CountBids returns how many bids an item has.
func CountBids(ctx context.Context, db DBTX, itemID int64) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bids WHERE item_id = ?`, itemID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting bids: %w", err)
	}
	return n, nil
}

// HighestBid returns the item's highest bid, or nil if it has none. Amounts
// only rise, so ties resolve to the most recent bid.
func HighestBid(ctx context.Context, db DBTX, itemID int64) (*model.Bid, error) {
	b := &model.Bid{}
	err := db.QueryRowContext(ctx,
		`SELECT b.id, b.item_id, b.team_id, b.amount, b.placed_at, t.name
		 FROM bids b JOIN teams t ON t.id = b.team_id
		 WHERE b.item_id = ?
		 ORDER BY b.amount DESC, b.id DESC LIMIT 1`, itemID,
	).Scan(&b.ID, &b.ItemID, &b.TeamID, &b.Amount, &b.PlacedAt, &b.TeamName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting highest bid: %w", err)
	}
	return b, nil
}

// ListBids returns an item's bid history, newest first.
func ListBids(ctx context.Context, db DBTX, itemID int64) ([]model.Bid, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT b.id, b.item_id, b.team_id, b.amount, b.placed_at, t.name
		 FROM bids b JOIN teams t ON t.id = b.team_id
		 WHERE b.item_id = ?
		 ORDER BY b.id DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing bids: %w", err)
	}
	defer rows.Close()

	var bids []model.Bid
	for rows.Next() {
		var b model.Bid
		if err := rows.Scan(&b.ID, &b.ItemID, &b.TeamID, &b.Amount, &b.PlacedAt, &b.TeamName); err != nil {
			return nil, fmt.Errorf("scanning bid: %w", err)
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

// DeleteBids clears an item's bid history.
func DeleteBids(ctx context.Context, db DBTX, itemID int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM bids WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("deleting bids: %w", err)
	}
	return nil
}

// DeleteAllBids clears every bid.
func DeleteAllBids(ctx context.Context, db DBTX) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM bids`); err != nil {
		return fmt.Errorf("deleting bids: %w", err)
	}
	return nil
}
