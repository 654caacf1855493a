package auction

import (
	"context"
	"errors"
	"fmt"

	"github.com/erazemk/drazba/internal/events"
	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

// Eligible reports whether a team may still use right to match on a
// domestic or overseas player. It returns nil when the team is eligible and
// a *QuotaError naming the exhausted quota otherwise.
func (e *Engine) Eligible(ctx context.Context, teamID int64, domestic bool) error {
	rules, err := store.LoadRules(ctx, e.db)
	if err != nil {
		return err
	}
	return eligible(ctx, e.db, rules, teamID, domestic)
}

func eligible(ctx context.Context, db store.DBTX, rules model.Rules, teamID int64, domestic bool) error {
	used, err := store.RTMUsage(ctx, db, teamID, rules.IsDomestic)
	if err != nil {
		return err
	}

	q := rules.RTMQuota
	switch {
	case used.Total >= q.Total:
		return &QuotaError{Quota: QuotaTotal, Used: used.Total, Limit: q.Total}
	case domestic && used.Domestic >= q.Domestic:
		return &QuotaError{Quota: QuotaDomestic, Used: used.Domestic, Limit: q.Domestic}
	case !domestic && used.Overseas >= q.Overseas:
		return &QuotaError{Quota: QuotaOverseas, Used: used.Overseas, Limit: q.Overseas}
	}
	return nil
}

// rtmOwner returns the previous owner who gets to answer a right-to-match
// round on item, or nil if bidding should settle directly.
func (e *Engine) rtmOwner(ctx context.Context, t *txn, rules model.Rules, item *model.Item, top *model.Bid) (*model.Team, error) {
	if !rules.RTMEnabled || item.PreviousOwner == "" || model.SameTeamName(item.PreviousOwner, top.TeamName) {
		return nil, nil
	}

	owner, err := store.GetTeamByName(ctx, t, item.PreviousOwner)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		e.log.Warn("previous owner is not a team", "item", item.Name, "previous_owner", item.PreviousOwner)
		return nil, nil
	}

	err = eligible(ctx, t, rules, owner.ID, rules.IsDomestic(item.Nationality))
	var quota *QuotaError
	if errors.As(err, &quota) {
		e.log.Info("rtm skipped", "item", item.Name, "team", owner.Name, "quota", quota.Quota)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return owner, nil
}

// AcceptRTM lets the previous owner match the winning bid. The negotiation
// must still be the one identified by negotiationID. On a quota or budget
// failure the negotiation stays open.
func (e *Engine) AcceptRTM(ctx context.Context, itemID int64, negotiationID string) (*model.Sale, error) {
	return e.answerRTM(ctx, itemID, negotiationID, true)
}

// DeclineRTM lets the previous owner pass; the item goes to the highest
// bidder.
func (e *Engine) DeclineRTM(ctx context.Context, itemID int64, negotiationID string) (*model.Sale, error) {
	return e.answerRTM(ctx, itemID, negotiationID, false)
}

func (e *Engine) answerRTM(ctx context.Context, itemID int64, negotiationID string, accept bool) (*model.Sale, error) {
	var sale *model.Sale

	err := e.run(ctx, "answering rtm", func(t *txn) error {
		rules, err := store.LoadRules(ctx, t)
		if err != nil {
			return err
		}

		item, err := loadItem(ctx, t, itemID)
		if err != nil {
			return err
		}
		n, err := store.GetNegotiation(ctx, t, itemID)
		if err != nil {
			return err
		}
		if n == nil || n.ID != negotiationID || item.State != model.ItemActive {
			return fmt.Errorf("%w: item %d round %q", ErrStaleNegotiation, itemID, negotiationID)
		}

		teamID := n.BidderTeamID
		if accept {
			teamID = n.OwnerTeamID
			if err := eligible(ctx, t, rules, teamID, rules.IsDomestic(item.Nationality)); err != nil {
				return err
			}
			owner, err := store.GetTeam(ctx, t, teamID)
			if err != nil {
				return err
			}
			if owner == nil {
				return fmt.Errorf("team %d: %w", teamID, ErrNotFound)
			}
			if owner.BudgetRemaining < item.CurrentBid {
				return fmt.Errorf("%w: %s has %d left, match is %d", ErrInsufficientBudget, owner.Name, owner.BudgetRemaining, item.CurrentBid)
			}
			if err := checkSquad(ctx, t, rules, owner, item); err != nil {
				return err
			}
		}

		ok, err := store.ClaimNegotiation(ctx, t, n.ID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: item %d round %q", ErrStaleNegotiation, itemID, negotiationID)
		}

		sale, err = e.settle(ctx, t, item, teamID, item.CurrentBid, accept)
		if errors.Is(err, ErrAlreadySettled) {
			return fmt.Errorf("%w: item %d round %q", ErrStaleNegotiation, itemID, negotiationID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("rtm answered", "item", itemID, "accepted", accept, "team", sale.TeamName)
	return sale, nil
}

// openNegotiation puts the item into right-to-match pending for owner.
func (e *Engine) openNegotiation(ctx context.Context, t *txn, item *model.Item, owner *model.Team, top *model.Bid) (*model.Negotiation, error) {
	n := model.Negotiation{
		ID:           e.newID(),
		ItemID:       item.ID,
		OwnerTeamID:  owner.ID,
		BidderTeamID: top.TeamID,
		Amount:       item.CurrentBid,
		OpenedAt:     t.now,
	}
	if err := store.CreateNegotiation(ctx, t, n); err != nil {
		return nil, err
	}

	t.emit(events.Event{Type: events.RTMOpened, ItemID: item.ID, TeamID: owner.ID, Amount: n.Amount, NegotiationID: n.ID})
	e.log.Info("rtm opened", "item", item.Name, "owner", owner.Name, "bidder", top.TeamName, "amount", model.FormatAmount(n.Amount))
	return &n, nil
}
