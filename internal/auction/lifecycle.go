package auction

import (
	"context"
	"errors"
	"fmt"

	"github.com/erazemk/drazba/internal/events"
	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

// Activate puts an item on the floor. Whatever was on the floor goes back to
// Idle and every pending right-to-match round is cancelled. If the item had
// been sold, the buyer is refunded and the sale removed; the returned notice
// describes that refund. Bidding resumes from the item's highest bid, or from
// its base price if it has none.
func (e *Engine) Activate(ctx context.Context, itemID int64) (*RefundNotice, error) {
	var notice *RefundNotice
	var amount int64

	err := e.run(ctx, "activating item", func(t *txn) error {
		item, err := loadItem(ctx, t, itemID)
		if err != nil {
			return err
		}

		if err := e.cancelNegotiations(ctx, t); err != nil {
			return err
		}
		if _, err := store.DeactivateItems(ctx, t); err != nil {
			return err
		}

		notice, err = e.unwindSale(ctx, t, itemID)
		if err != nil {
			return err
		}

		amount = item.BasePrice
		top, err := store.HighestBid(ctx, t, itemID)
		if err != nil {
			return err
		}
		if top != nil {
			amount = top.Amount
		}

		if err := store.OpenItem(ctx, t, itemID, amount, t.now); err != nil {
			return err
		}

		t.emit(events.Event{Type: events.ItemActivated, ItemID: itemID, Amount: amount})
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("item activated", "item", itemID, "amount", model.FormatAmount(amount))
	return notice, nil
}

// Resolution is how an expiry check or a stop ended.
type Resolution string

// Resolutions.
const (
	ResolutionNone       Resolution = "none"
	ResolutionSold       Resolution = "sold"
	ResolutionUnsold     Resolution = "unsold"
	ResolutionRTMPending Resolution = "rtm_pending"
)

// Outcome is the result of CheckExpiry and StopBidding.
type Outcome struct {
	Resolution  Resolution         `json:"resolution"`
	Sale        *model.Sale        `json:"sale,omitempty"`
	Negotiation *model.Negotiation `json:"negotiation,omitempty"`
}

// Handled reports whether the call changed the item.
func (o Outcome) Handled() bool {
	return o.Resolution != ResolutionNone
}

// CheckExpiry resolves the item if it is on the floor and nobody has bid for
// the full bid duration. It is safe to call at any cadence; calls on an item
// that is not active, not yet expired or waiting on right to match do
// nothing.
func (e *Engine) CheckExpiry(ctx context.Context, itemID int64) (Outcome, error) {
	return e.resolve(ctx, itemID, true)
}

// StopBidding resolves the active item immediately, as if its timer had run
// out.
func (e *Engine) StopBidding(ctx context.Context, itemID int64) (Outcome, error) {
	return e.resolve(ctx, itemID, false)
}

func (e *Engine) resolve(ctx context.Context, itemID int64, onTimer bool) (Outcome, error) {
	out := Outcome{Resolution: ResolutionNone}

	err := e.run(ctx, "resolving item", func(t *txn) error {
		rules, err := store.LoadRules(ctx, t)
		if err != nil {
			return err
		}

		item, err := loadItem(ctx, t, itemID)
		if err != nil {
			return err
		}
		if item.State != model.ItemActive {
			return nil
		}
		if onTimer && !expired(item, rules, t.now) {
			return nil
		}
		if n, err := store.GetNegotiation(ctx, t, itemID); err != nil || n != nil {
			return err
		}

		top, err := store.HighestBid(ctx, t, itemID)
		if err != nil {
			return err
		}
		if top == nil {
			claimed, err := store.ClaimActiveItem(ctx, t, itemID)
			if err != nil || !claimed {
				return err
			}
			if err := e.markUnsold(ctx, t, item); err != nil {
				return err
			}
			out.Resolution = ResolutionUnsold
			return nil
		}

		owner, err := e.rtmOwner(ctx, t, rules, item, top)
		if err != nil {
			return err
		}
		if owner != nil {
			n, err := e.openNegotiation(ctx, t, item, owner, top)
			if err != nil {
				return err
			}
			out = Outcome{Resolution: ResolutionRTMPending, Negotiation: n}
			return nil
		}

		sale, err := e.settle(ctx, t, item, top.TeamID, top.Amount, false)
		if errors.Is(err, ErrAlreadySettled) {
			return nil
		}
		if err != nil {
			return err
		}
		out = Outcome{Resolution: ResolutionSold, Sale: sale}
		return nil
	})
	if err != nil {
		return Outcome{Resolution: ResolutionNone}, err
	}
	return out, nil
}

// markUnsold records an item that left the floor without a buyer.
func (e *Engine) markUnsold(ctx context.Context, t *txn, item *model.Item) error {
	if err := store.MarkItemUnsold(ctx, t, item.ID, t.now); err != nil {
		return err
	}
	err := store.PutUnsold(ctx, t, model.Unsold{
		ItemID:      item.ID,
		ItemName:    item.Name,
		Rating:      item.Rating,
		Category:    item.Category,
		Nationality: item.Nationality,
		MarkedAt:    t.now,
	})
	if err != nil {
		return err
	}

	t.emit(events.Event{Type: events.ItemUnsold, ItemID: item.ID})
	e.log.Info("item unsold", "item", item.Name)
	return nil
}

// MarkUnsold takes an item off the floor, or out of a sale, as unsold. A sold
// item's buyer is refunded.
func (e *Engine) MarkUnsold(ctx context.Context, itemID int64) (*RefundNotice, error) {
	var notice *RefundNotice

	err := e.run(ctx, "marking item unsold", func(t *txn) error {
		item, err := loadItem(ctx, t, itemID)
		if err != nil {
			return err
		}

		if err := e.cancelItemNegotiation(ctx, t, itemID); err != nil {
			return err
		}
		if item.State == model.ItemActive {
			if _, err := store.ClaimActiveItem(ctx, t, itemID); err != nil {
				return err
			}
		}
		notice, err = e.unwindSale(ctx, t, itemID)
		if err != nil {
			return err
		}
		return e.markUnsold(ctx, t, item)
	})
	if err != nil {
		return nil, err
	}
	return notice, nil
}

// ResetItem clears an item's bids and results and returns it to Idle at its
// base price. A sold item's buyer is refunded and a right-to-match round
// pending on it is cancelled; rounds on other items are left alone.
func (e *Engine) ResetItem(ctx context.Context, itemID int64) (*RefundNotice, error) {
	var notice *RefundNotice

	err := e.run(ctx, "resetting item", func(t *txn) error {
		if _, err := loadItem(ctx, t, itemID); err != nil {
			return err
		}

		if err := e.cancelItemNegotiation(ctx, t, itemID); err != nil {
			return err
		}

		var err error
		notice, err = e.unwindSale(ctx, t, itemID)
		if err != nil {
			return err
		}
		if err := store.DeleteUnsold(ctx, t, itemID); err != nil {
			return err
		}
		if err := store.DeleteBids(ctx, t, itemID); err != nil {
			return err
		}
		if err := store.ResetItemState(ctx, t, itemID); err != nil {
			return err
		}

		t.emit(events.Event{Type: events.ItemReset, ItemID: itemID})
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("item reset", "item", itemID)
	return notice, nil
}

// ResetAuction starts the auction over: every bid, sale and unsold record is
// cleared, every item returns to Idle and every purse is restored.
func (e *Engine) ResetAuction(ctx context.Context) error {
	err := e.run(ctx, "resetting auction", func(t *txn) error {
		if err := e.cancelNegotiations(ctx, t); err != nil {
			return err
		}
		if err := store.DeleteAllBids(ctx, t); err != nil {
			return err
		}
		if err := store.ClearResults(ctx, t); err != nil {
			return err
		}
		if err := store.ResetAllItems(ctx, t); err != nil {
			return err
		}
		if err := store.ResetBudgets(ctx, t, t.now); err != nil {
			return err
		}

		t.emit(events.Event{Type: events.AuctionReset})
		return nil
	})
	if err != nil {
		return err
	}

	e.log.Info("auction reset")
	return nil
}

// DeleteItem removes an item from the catalog. Items on the floor cannot be
// deleted; a sold item's buyer is refunded first.
func (e *Engine) DeleteItem(ctx context.Context, itemID int64) (*RefundNotice, error) {
	var notice *RefundNotice

	err := e.run(ctx, "deleting item", func(t *txn) error {
		item, err := loadItem(ctx, t, itemID)
		if err != nil {
			return err
		}
		if item.State == model.ItemActive {
			return fmt.Errorf("%w: item %d is on the floor", ErrInvalidTransition, itemID)
		}

		notice, err = e.unwindSale(ctx, t, itemID)
		if err != nil {
			return err
		}
		return store.DeleteItem(ctx, t, itemID)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("item deleted", "item", itemID)
	return notice, nil
}

// Tick is the driver's periodic entry point. It forces a decline on a
// right-to-match round that has outlived the decision window, and otherwise
// runs the expiry check on the active item.
func (e *Engine) Tick(ctx context.Context) error {
	item, err := store.GetActiveItem(ctx, e.db)
	if err != nil || item == nil {
		return err
	}

	rules, err := store.LoadRules(ctx, e.db)
	if err != nil {
		return err
	}

	n, err := store.GetNegotiation(ctx, e.db, item.ID)
	if err != nil {
		return err
	}
	if n != nil {
		if rules.RTMDecisionSec <= 0 || e.clock.Now().Sub(n.OpenedAt) < rules.RTMDecision() {
			return nil
		}
		e.log.Info("rtm decision timed out", "item", item.ID, "negotiation", n.ID)
		_, err := e.DeclineRTM(ctx, item.ID, n.ID)
		if errors.Is(err, ErrStaleNegotiation) {
			return nil
		}
		return err
	}

	_, err = e.CheckExpiry(ctx, item.ID)
	return err
}
