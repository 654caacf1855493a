package auction

import (
	"context"
	"errors"
	"fmt"

	"github.com/erazemk/drazba/internal/events"
	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

// Finalize sells the active item. With a recipient the item goes to that team
// at the current bid; without one it goes to the highest bidder at the
// highest bid. It returns nil, nil when the item is no longer on the floor,
// which is how a caller that lost a settlement race finds out.
//
// If there is neither a recipient nor a bid, the item still leaves the floor
// but no sale is made; the caller decides whether to mark it unsold.
func (e *Engine) Finalize(ctx context.Context, itemID int64, recipient *int64, isRTM bool) (*model.Sale, error) {
	var sale *model.Sale

	err := e.run(ctx, "finalizing sale", func(t *txn) error {
		item, err := loadItem(ctx, t, itemID)
		if err != nil {
			return err
		}
		if item.State != model.ItemActive {
			return nil
		}

		var teamID, amount int64
		if recipient != nil {
			teamID, amount = *recipient, item.CurrentBid
		} else {
			top, err := store.HighestBid(ctx, t, itemID)
			if err != nil {
				return err
			}
			if top == nil {
				_, err := store.ClaimActiveItem(ctx, t, itemID)
				return err
			}
			teamID, amount = top.TeamID, top.Amount
		}

		if err := e.cancelItemNegotiation(ctx, t, itemID); err != nil {
			return err
		}

		sale, err = e.settle(ctx, t, item, teamID, amount, isRTM)
		if errors.Is(err, ErrAlreadySettled) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// settle claims the item off the floor and books the sale. The claim is a
// conditional update on the item's state, so only one settlement per
// activation gets past it; everyone else gets ErrAlreadySettled.
func (e *Engine) settle(ctx context.Context, t *txn, item *model.Item, teamID, amount int64, isRTM bool) (*model.Sale, error) {
	claimed, err := store.ClaimActiveItem(ctx, t, item.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrAlreadySettled
	}

	team, err := store.GetTeam(ctx, t, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, fmt.Errorf("team %d: %w", teamID, ErrNotFound)
	}

	if _, err := store.Debit(ctx, t, teamID, &item.ID, amount, t.now); err != nil {
		if errors.Is(err, store.ErrInsufficientFunds) {
			return nil, fmt.Errorf("%w: %s cannot pay %d", ErrInsufficientBudget, team.Name, amount)
		}
		return nil, err
	}

	sale := model.Sale{
		ItemID:      item.ID,
		TeamID:      teamID,
		Amount:      amount,
		IsRTM:       isRTM,
		ItemName:    item.Name,
		Rating:      item.Rating,
		Category:    item.Category,
		Nationality: item.Nationality,
		SoldAt:      t.now,
		TeamName:    team.Name,
	}
	if err := store.PutSale(ctx, t, sale); err != nil {
		return nil, err
	}
	if err := store.DeleteUnsold(ctx, t, item.ID); err != nil {
		return nil, err
	}
	if err := store.MarkItemSold(ctx, t, item.ID, teamID, amount); err != nil {
		return nil, err
	}

	t.emit(events.Event{Type: events.ItemSold, ItemID: item.ID, TeamID: teamID, Amount: amount, IsRTM: isRTM})
	e.log.Info("item sold", "item", item.Name, "team", team.Name, "amount", model.FormatAmount(amount), "rtm", isRTM)

	return &sale, nil
}
