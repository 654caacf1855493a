package auction

import (
	"context"
	"fmt"

	"github.com/erazemk/drazba/internal/events"
	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

// PlaceBid places teamID's bid on the active item. The first bid since the
// item's bids were last cleared is taken at the current amount; every later
// bid adds the increment for the current amount.
//
// proposed is the amount the bidder saw as the next bid. Zero accepts
// whatever the next legal amount is; any other value that no longer matches
// is rejected with ErrOutbid.
func (e *Engine) PlaceBid(ctx context.Context, itemID, teamID, proposed int64) (*model.Bid, error) {
	var bid *model.Bid

	err := e.run(ctx, "placing bid", func(t *txn) error {
		rules, err := store.LoadRules(ctx, t)
		if err != nil {
			return err
		}

		item, err := loadItem(ctx, t, itemID)
		if err != nil {
			return err
		}
		if item.State != model.ItemActive {
			return fmt.Errorf("%w: item %d is not on the floor", ErrInvalidTransition, itemID)
		}
		if expired(item, rules, t.now) {
			return fmt.Errorf("%w: bidding on item %d has closed", ErrInvalidTransition, itemID)
		}
		if n, err := store.GetNegotiation(ctx, t, itemID); err != nil {
			return err
		} else if n != nil {
			return fmt.Errorf("%w: right to match pending on item %d", ErrInvalidTransition, itemID)
		}

		// A sale on an item that is back on the floor is a stale provisional
		// win; refund it before the new bid is weighed.
		if _, err := e.unwindSale(ctx, t, itemID); err != nil {
			return err
		}

		team, err := store.GetTeam(ctx, t, teamID)
		if err != nil {
			return err
		}
		if team == nil {
			return fmt.Errorf("team %d: %w", teamID, ErrNotFound)
		}

		count, err := store.CountBids(ctx, t, itemID)
		if err != nil {
			return err
		}

		amount := item.CurrentBid
		if count > 0 {
			top, err := store.HighestBid(ctx, t, itemID)
			if err != nil {
				return err
			}
			if top != nil && top.TeamID == teamID {
				return fmt.Errorf("%w: %s already holds the highest bid", ErrInvalidTransition, team.Name)
			}
			amount += rules.Increment(item.CurrentBid)
		}
		if amount <= 0 {
			amount = rules.Increment(0)
		}

		if proposed != 0 && proposed != amount {
			return fmt.Errorf("%w: next bid is %d", ErrOutbid, amount)
		}
		if amount > team.BudgetRemaining {
			return fmt.Errorf("%w: %s has %d left, bid is %d", ErrInsufficientBudget, team.Name, team.BudgetRemaining, amount)
		}
		if err := checkSquad(ctx, t, rules, team, item); err != nil {
			return err
		}

		ok, err := store.RaiseBid(ctx, t, itemID, item.CurrentBid, amount, count, t.now)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: item %d moved on", ErrOutbid, itemID)
		}

		bid, err = store.InsertBid(ctx, t, itemID, teamID, amount, t.now)
		if err != nil {
			return err
		}
		bid.TeamName = team.Name

		t.emit(events.Event{Type: events.BidAccepted, ItemID: itemID, TeamID: teamID, Amount: amount})
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("bid accepted", "item", itemID, "team", bid.TeamName, "amount", bid.Amount)
	return bid, nil
}

// checkSquad rejects a purchase that would take the team past its squad
// size or overseas limit.
func checkSquad(ctx context.Context, db store.DBTX, rules model.Rules, team *model.Team, item *model.Item) error {
	total, overseas, err := store.SquadCounts(ctx, db, team.ID, rules.IsDomestic)
	if err != nil {
		return err
	}
	if rules.MaxSquadSize > 0 && total >= rules.MaxSquadSize {
		return fmt.Errorf("%w: %s already has %d players", ErrSquadFull, team.Name, total)
	}
	if rules.MaxOverseas > 0 && !rules.IsDomestic(item.Nationality) && overseas >= rules.MaxOverseas {
		return fmt.Errorf("%w: %s already has %d overseas players", ErrSquadFull, team.Name, overseas)
	}
	return nil
}
