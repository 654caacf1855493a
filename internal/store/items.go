package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/drazba/internal/model"
)

const itemColumns = `id, name, rating, category, nationality, image_mime, base_price, current_bid,
	state, buyer_team_id, previous_owner, last_activity_at, unsold_at, created_at`

func scanItem(s scanner) (*model.Item, error) {
	item := &model.Item{}
	var imageMime, previousOwner sql.NullString
	var buyer sql.NullInt64
	err := s.Scan(&item.ID, &item.Name, &item.Rating, &item.Category, &item.Nationality, &imageMime,
		&item.BasePrice, &item.CurrentBid, &item.State, &buyer, &previousOwner,
		&item.LastActivityAt, &item.UnsoldAt, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	item.ImageMime = imageMime.String
	item.PreviousOwner = previousOwner.String
	if buyer.Valid {
		item.BuyerTeamID = &buyer.Int64
	}
	return item, nil
}

// CreateItem adds a player to the catalog. The item starts Idle with its
// current bid at the base price.
func CreateItem(ctx context.Context, db DBTX, item model.Item) (*model.Item, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO items (name, rating, category, nationality, base_price, current_bid, previous_owner)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(item.Name), item.Rating, item.Category, item.Nationality,
		item.BasePrice, item.BasePrice, nullString(strings.TrimSpace(item.PreviousOwner)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, db DBTX, id int64) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// GetActiveItem returns the item currently on the floor, or nil.
func GetActiveItem(ctx context.Context, db DBTX) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE state = 'active' ORDER BY id LIMIT 1`,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting active item: %w", err)
	}
	return item, nil
}

// ListItems returns the catalog, optionally filtered by state.
func ListItems(ctx context.Context, db DBTX, state model.ItemState) ([]model.Item, error) {
	var rows *sql.Rows
	var err error

	if state != "" {
		rows, err = db.QueryContext(ctx,
			`SELECT `+itemColumns+` FROM items WHERE state = ? ORDER BY id`, state,
		)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT `+itemColumns+` FROM items ORDER BY id`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem updates an item's catalog attributes. Idle items also move
// their current bid to the new base price.
func UpdateItem(ctx context.Context, db DBTX, item model.Item) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, rating = ?, category = ?, nationality = ?, previous_owner = ?,
		        base_price = ?,
		        current_bid = CASE WHEN state = 'idle' THEN ? ELSE current_bid END
		 WHERE id = ?`,
		strings.TrimSpace(item.Name), item.Rating, item.Category, item.Nationality,
		nullString(strings.TrimSpace(item.PreviousOwner)), item.BasePrice, item.BasePrice, item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// DeleteItem removes an item together with its bids, sale, unsold record
// and negotiation. Ledger entries keep their amounts but lose the item link.
func DeleteItem(ctx context.Context, db DBTX, id int64) error {
	stmts := []string{
		`DELETE FROM bids WHERE item_id = ?`,
		`DELETE FROM sales WHERE item_id = ?`,
		`DELETE FROM unsold WHERE item_id = ?`,
		`DELETE FROM negotiations WHERE item_id = ?`,
		`UPDATE ledger_entries SET item_id = NULL WHERE item_id = ?`,
		`DELETE FROM items WHERE id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("deleting item: %w", err)
		}
	}
	return nil
}

// SetItemImage sets an item's portrait.
func SetItemImage(ctx context.Context, db DBTX, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ? WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return nil
}

// GetItemImage returns an item's portrait and MIME type.
func GetItemImage(ctx context.Context, db DBTX, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

// DeactivateItems moves every Active item back to Idle and returns their IDs.
func DeactivateItems(ctx context.Context, db DBTX) ([]int64, error) {
	rows, err := db.QueryContext(ctx, `SELECT id FROM items WHERE state = 'active'`)
	if err != nil {
		return nil, fmt.Errorf("listing active items: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning active item: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing active items: %w", err)
	}

	if _, err := db.ExecContext(ctx, `UPDATE items SET state = 'idle' WHERE state = 'active'`); err != nil {
		return nil, fmt.Errorf("deactivating items: %w", err)
	}
	return ids, nil
}

// OpenItem puts an item on the floor at the given amount.
func OpenItem(ctx context.Context, db DBTX, id, amount int64, now time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET state = 'active', current_bid = ?, buyer_team_id = NULL,
		        unsold_at = NULL, last_activity_at = ?
		 WHERE id = ?`,
		amount, now, id,
	)
	if err != nil {
		return fmt.Errorf("opening item: %w", err)
	}
	return nil
}

// ClaimActiveItem takes an item off the floor. Only one caller can claim a
// given activation; the others get false.
func ClaimActiveItem(ctx context.Context, db DBTX, id int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET state = 'idle' WHERE id = ? AND state = 'active'`, id,
	)
	if err != nil {
		return false, fmt.Errorf("claiming item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claiming item: %w", err)
	}
	return n == 1, nil
}

// RaiseBid moves an Active item's current bid from one amount to another.
// It fails (false) if the item is no longer Active, the amount moved, or
// another bid was recorded since the caller counted bidCount.
func RaiseBid(ctx context.Context, db DBTX, id, from, to int64, bidCount int, now time.Time) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET current_bid = ?, last_activity_at = ?
		 WHERE id = ? AND state = 'active' AND current_bid = ?
		   AND (SELECT COUNT(*) FROM bids WHERE item_id = ?) = ?`,
		to, now, id, from, id, bidCount,
	)
	if err != nil {
		return false, fmt.Errorf("raising bid: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("raising bid: %w", err)
	}
	return n == 1, nil
}

// MarkItemSold records the buyer on a claimed item.
func MarkItemSold(ctx context.Context, db DBTX, id, teamID, amount int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET state = 'sold', buyer_team_id = ?, current_bid = ? WHERE id = ?`,
		teamID, amount, id,
	)
	if err != nil {
		return fmt.Errorf("marking item sold: %w", err)
	}
	return nil
}

// MarkItemUnsold flags an item as having gone without a buyer.
func MarkItemUnsold(ctx context.Context, db DBTX, id int64, now time.Time) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET state = 'unsold', buyer_team_id = NULL, unsold_at = ? WHERE id = ?`,
		now, id,
	)
	if err != nil {
		return fmt.Errorf("marking item unsold: %w", err)
	}
	return nil
}

// ResetItemState returns an item to Idle at its base price.
func ResetItemState(ctx context.Context, db DBTX, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET state = 'idle', current_bid = base_price, buyer_team_id = NULL,
		        unsold_at = NULL, last_activity_at = NULL
		 WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("resetting item: %w", err)
	}
	return nil
}

// ResetAllItems returns every item to Idle at its base price.
func ResetAllItems(ctx context.Context, db DBTX) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET state = 'idle', current_bid = base_price, buyer_team_id = NULL,
		        unsold_at = NULL, last_activity_at = NULL`,
	)
	if err != nil {
		return fmt.Errorf("resetting items: %w", err)
	}
	return nil
}
