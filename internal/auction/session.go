package auction

import (
	"context"
	"time"

	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

// Session is the read model of the floor that every screen renders.
type Session struct {
	ActiveItem       *model.Item        `json:"active_item"`
	CurrentBid       int64              `json:"current_bid"`
	CurrentBidLabel  string             `json:"current_bid_label,omitempty"`
	NextBid          int64              `json:"next_bid"`
	NextBidLabel     string             `json:"next_bid_label,omitempty"`
	HighestBid       *model.Bid         `json:"highest_bid,omitempty"`
	RTM              *model.Negotiation `json:"rtm,omitempty"`
	TimeRemainingSec int                `json:"time_remaining_sec"`
	RTMRemainingSec  int                `json:"rtm_remaining_sec,omitempty"`
	AutoBreakSec     int                `json:"auto_break_sec"`
}

// State returns the current floor.
func (e *Engine) State(ctx context.Context) (*Session, error) {
	s := &Session{}

	err := e.run(ctx, "reading state", func(t *txn) error {
		rules, err := store.LoadRules(ctx, t)
		if err != nil {
			return err
		}
		s.AutoBreakSec = rules.AutoBreakSec

		item, err := store.GetActiveItem(ctx, t)
		if err != nil || item == nil {
			return err
		}
		s.ActiveItem = item
		s.CurrentBid = item.CurrentBid
		s.CurrentBidLabel = model.FormatAmount(item.CurrentBid)

		s.HighestBid, err = store.HighestBid(ctx, t, item.ID)
		if err != nil {
			return err
		}
		s.NextBid = item.CurrentBid
		if s.HighestBid != nil {
			s.NextBid += rules.Increment(item.CurrentBid)
		}
		if s.NextBid <= 0 {
			s.NextBid = rules.Increment(0)
		}
		s.NextBidLabel = model.FormatAmount(s.NextBid)

		s.RTM, err = store.GetNegotiation(ctx, t, item.ID)
		if err != nil {
			return err
		}
		if s.RTM != nil {
			if rules.RTMDecisionSec > 0 {
				s.RTMRemainingSec = remaining(s.RTM.OpenedAt, rules.RTMDecision(), t.now)
			}
		} else if item.LastActivityAt != nil {
			s.TimeRemainingSec = remaining(*item.LastActivityAt, rules.BidDuration(), t.now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// remaining returns the whole seconds left of a window, rounded up.
func remaining(start time.Time, window time.Duration, now time.Time) int {
	left := start.Add(window).Sub(now)
	if left <= 0 {
		return 0
	}
	return int((left + time.Second - 1) / time.Second)
}
