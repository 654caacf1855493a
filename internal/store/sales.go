package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/drazba/internal/model"
)

const saleColumns = `s.item_id, s.team_id, s.amount, s.is_rtm, s.item_name, s.rating, s.category,
	s.nationality, s.sold_at, t.name`

func scanSale(sc scanner) (*model.Sale, error) {
	s := &model.Sale{}
	err := sc.Scan(&s.ItemID, &s.TeamID, &s.Amount, &s.IsRTM, &s.ItemName, &s.Rating, &s.Category,
		&s.Nationality, &s.SoldAt, &s.TeamName)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// PutSale writes the sale record for an item, replacing any earlier one.
func PutSale(ctx context.Context, db DBTX, s model.Sale) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO sales (item_id, team_id, amount, is_rtm, item_name, rating, category, nationality, sold_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (item_id) DO UPDATE SET
		     team_id = excluded.team_id, amount = excluded.amount, is_rtm = excluded.is_rtm,
		     item_name = excluded.item_name, rating = excluded.rating, category = excluded.category,
		     nationality = excluded.nationality, sold_at = excluded.sold_at`,
		s.ItemID, s.TeamID, s.Amount, s.IsRTM, s.ItemName, s.Rating, s.Category, s.Nationality, s.SoldAt,
	)
	if err != nil {
		return fmt.Errorf("writing sale: %w", err)
	}
	return nil
}

// GetSale returns the sale record for an item, or nil.
func GetSale(ctx context.Context, db DBTX, itemID int64) (*model.Sale, error) {
	s, err := scanSale(db.QueryRowContext(ctx,
		`SELECT `+saleColumns+` FROM sales s JOIN teams t ON t.id = s.team_id
		 WHERE s.item_id = ?`, itemID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting sale: %w", err)
	}
	return s, nil
}

// ListSales returns all sales, most recent first. A teamID of 0 lists
// every team's purchases.
func ListSales(ctx context.Context, db DBTX, teamID int64) ([]model.Sale, error) {
	var rows *sql.Rows
	var err error

	if teamID != 0 {
		rows, err = db.QueryContext(ctx,
			`SELECT `+saleColumns+` FROM sales s JOIN teams t ON t.id = s.team_id
			 WHERE s.team_id = ? ORDER BY s.sold_at DESC, s.item_id`, teamID,
		)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT `+saleColumns+` FROM sales s JOIN teams t ON t.id = s.team_id
			 ORDER BY s.sold_at DESC, s.item_id`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	defer rows.Close()

	var sales []model.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sale: %w", err)
		}
		sales = append(sales, *s)
	}
	return sales, rows.Err()
}

// DeleteSale removes an item's sale record.
func DeleteSale(ctx context.Context, db DBTX, itemID int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM sales WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("deleting sale: %w", err)
	}
	return nil
}

// SquadCounts returns how many items a team owns and how many of them are
// overseas players. isDomestic classifies a sale's nationality.
func SquadCounts(ctx context.Context, db DBTX, teamID int64, isDomestic func(nationality string) bool) (total, overseas int, err error) {
	err = eachSaleNationality(ctx, db, teamID, false, func(nationality string) {
		total++
		if !isDomestic(nationality) {
			overseas++
		}
	})
	if err != nil {
		return 0, 0, fmt.Errorf("counting squad: %w", err)
	}
	return total, overseas, nil
}

// RTMUsage counts a team's right-to-match purchases.
func RTMUsage(ctx context.Context, db DBTX, teamID int64, isDomestic func(nationality string) bool) (model.RTMUsage, error) {
	var u model.RTMUsage
	err := eachSaleNationality(ctx, db, teamID, true, func(nationality string) {
		u.Total++
		if isDomestic(nationality) {
			u.Domestic++
		} else {
			u.Overseas++
		}
	})
	if err != nil {
		return model.RTMUsage{}, fmt.Errorf("counting rtm usage: %w", err)
	}
	return u, nil
}

func eachSaleNationality(ctx context.Context, db DBTX, teamID int64, rtmOnly bool, fn func(nationality string)) error {
	query := `SELECT nationality FROM sales WHERE team_id = ?`
	if rtmOnly {
		query += ` AND is_rtm = 1`
	}
	rows, err := db.QueryContext(ctx, query, teamID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var nationality string
		if err := rows.Scan(&nationality); err != nil {
			return err
		}
		fn(nationality)
	}
	return rows.Err()
}

// PutUnsold records an item as unsold, replacing any earlier record.
func PutUnsold(ctx context.Context, db DBTX, u model.Unsold) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO unsold (item_id, item_name, rating, category, nationality, marked_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (item_id) DO UPDATE SET
		     item_name = excluded.item_name, rating = excluded.rating, category = excluded.category,
		     nationality = excluded.nationality, marked_at = excluded.marked_at`,
		u.ItemID, u.ItemName, u.Rating, u.Category, u.Nationality, u.MarkedAt,
	)
	if err != nil {
		return fmt.Errorf("writing unsold record: %w", err)
	}
	return nil
}

// DeleteUnsold removes an item's unsold record.
func DeleteUnsold(ctx context.Context, db DBTX, itemID int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM unsold WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("deleting unsold record: %w", err)
	}
	return nil
}

// ListUnsold returns all unsold records, most recent first.
func ListUnsold(ctx context.Context, db DBTX) ([]model.Unsold, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT item_id, item_name, rating, category, nationality, marked_at
		 FROM unsold ORDER BY marked_at DESC, item_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing unsold records: %w", err)
	}
	defer rows.Close()

	var list []model.Unsold
	for rows.Next() {
		var u model.Unsold
		if err := rows.Scan(&u.ItemID, &u.ItemName, &u.Rating, &u.Category, &u.Nationality, &u.MarkedAt); err != nil {
			return nil, fmt.Errorf("scanning unsold record: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// ClearResults removes every sale and unsold record.
func ClearResults(ctx context.Context, db DBTX) error {
	for _, stmt := range []string{`DELETE FROM sales`, `DELETE FROM unsold`} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clearing results: %w", err)
		}
	}
	return nil
}
