package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/drazba/internal/model"
)

const negotiationColumns = `id, item_id, owner_team_id, bidder_team_id, amount, opened_at`

// CreateNegotiation opens a right-to-match round for an item.
func CreateNegotiation(ctx context.Context, db DBTX, n model.Negotiation) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO negotiations (`+negotiationColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.ItemID, n.OwnerTeamID, n.BidderTeamID, n.Amount, n.OpenedAt,
	)
	if err != nil {
		return fmt.Errorf("creating negotiation: %w", err)
	}
	return nil
}

// GetNegotiation returns the pending negotiation for an item, or nil.
func GetNegotiation(ctx context.Context, db DBTX, itemID int64) (*model.Negotiation, error) {
	n := &model.Negotiation{}
	err := db.QueryRowContext(ctx,
		`SELECT `+negotiationColumns+` FROM negotiations WHERE item_id = ?`, itemID,
	).Scan(&n.ID, &n.ItemID, &n.OwnerTeamID, &n.BidderTeamID, &n.Amount, &n.OpenedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting negotiation: %w", err)
	}
	return n, nil
}

// ListNegotiations returns every pending negotiation.
func ListNegotiations(ctx context.Context, db DBTX) ([]model.Negotiation, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+negotiationColumns+` FROM negotiations ORDER BY opened_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing negotiations: %w", err)
	}
	defer rows.Close()

	var list []model.Negotiation
	for rows.Next() {
		var n model.Negotiation
		if err := rows.Scan(&n.ID, &n.ItemID, &n.OwnerTeamID, &n.BidderTeamID, &n.Amount, &n.OpenedAt); err != nil {
			return nil, fmt.Errorf("scanning negotiation: %w", err)
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// ClaimNegotiation closes a negotiation by identity. Only one caller can
// close a given round; the others get false.
func ClaimNegotiation(ctx context.Context, db DBTX, id string) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM negotiations WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("closing negotiation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("closing negotiation: %w", err)
	}
	return n == 1, nil
}

// CancelNegotiations drops every pending negotiation and returns them.
func CancelNegotiations(ctx context.Context, db DBTX) ([]model.Negotiation, error) {
	list, err := ListNegotiations(ctx, db)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM negotiations`); err != nil {
		return nil, fmt.Errorf("cancelling negotiations: %w", err)
	}
	return list, nil
}
