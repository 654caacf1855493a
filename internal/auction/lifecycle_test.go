package auction

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/erazemk/drazba/internal/events"
	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

func TestActivateSingleFloor(t *testing.T) {
	f := newFixture(t)
	first := f.item(t, "First", 500_000, "India", "")
	second := f.item(t, "Second", 700_000, "India", "")

	_, err := f.engine.Activate(f.ctx, first.ID)
	assert.NoError(t, err)
	_, err = f.engine.Activate(f.ctx, second.ID)
	assert.NoError(t, err)

	check.Equal(t, model.ItemIdle, f.getItem(t, first.ID).State)
	got := f.getItem(t, second.ID)
	check.Equal(t, model.ItemActive, got.State)
	check.Equal(t, int64(700_000), got.CurrentBid)
	check.NotNil(t, got.LastActivityAt)

	active, err := store.ListItems(f.ctx, f.db, model.ItemActive)
	assert.NoError(t, err)
	check.Equal(t, 1, len(active))

	_, err = f.engine.Activate(f.ctx, 999)
	check.True(t, errors.Is(err, ErrNotFound))
}

func TestActivateResumesFromHighestBid(t *testing.T) {
	f := newFixture(t, oneTier)
	a := f.team(t, "Alpha", 100_000_000)
	b := f.team(t, "Beta", 100_000_000)
	item := f.item(t, "Player", 500_000, "India", "")
	other := f.item(t, "Other", 500_000, "India", "")

	f.activate(t, item.ID)
	f.bid(t, item.ID, a.ID)
	f.bid(t, item.ID, b.ID)

	f.activate(t, other.ID)
	f.activate(t, item.ID)

	check.Equal(t, int64(1_000_000), f.getItem(t, item.ID).CurrentBid)
	check.Equal(t, int64(1_500_000), f.bid(t, item.ID, a.ID))
}

func TestReactivationRefundsSale(t *testing.T) {
	f := newFixture(t)
	a := f.team(t, "Team A", 100_000_000)
	item := f.item(t, "Player", 2_000_000, "India", "")

	f.activate(t, item.ID)
	check.Equal(t, int64(2_000_000), f.bid(t, item.ID, a.ID))
	out, err := f.engine.StopBidding(f.ctx, item.ID)
	assert.NoError(t, err)
	assert.Equal(t, ResolutionSold, out.Resolution)
	check.Equal(t, int64(98_000_000), f.budget(t, a.ID))

	f.rec.Reset()
	notice, err := f.engine.Activate(f.ctx, item.ID)
	assert.NoError(t, err)
	assert.NotNil(t, notice)
	check.Equal(t, a.ID, notice.TeamID)
	check.Equal(t, "Team A", notice.TeamName)
	check.Equal(t, int64(2_000_000), notice.Amount)

	check.Equal(t, int64(100_000_000), f.budget(t, a.ID))
	sale, err := store.GetSale(f.ctx, f.db, item.ID)
	assert.NoError(t, err)
	check.Nil(t, sale)

	got := f.getItem(t, item.ID)
	check.Equal(t, model.ItemActive, got.State)
	check.Nil(t, got.BuyerTeamID)
	check.Equal(t, []events.Type{events.RefundIssued, events.ItemActivated}, f.rec.Types())
}

func TestCheckExpiry(t *testing.T) {
	f := newFixture(t)
	a := f.team(t, "Alpha", 100_000_000)
	item := f.item(t, "Player", 500_000, "India", "")
	f.activate(t, item.ID)
	f.bid(t, item.ID, a.ID)

	f.clock.Advance(59 * time.Second)
	out, err := f.engine.CheckExpiry(f.ctx, item.ID)
	assert.NoError(t, err)
	check.Equal(t, ResolutionNone, out.Resolution)

	f.clock.Advance(time.Second)
	out, err = f.engine.CheckExpiry(f.ctx, item.ID)
	assert.NoError(t, err)
	check.Equal(t, ResolutionSold, out.Resolution)
	assert.NotNil(t, out.Sale)
	check.Equal(t, a.ID, out.Sale.TeamID)
	check.Equal(t, int64(500_000), out.Sale.Amount)
	check.False(t, out.Sale.IsRTM)
	check.Equal(t, int64(99_500_000), f.budget(t, a.ID))

	f.rec.Reset()
	out, err = f.engine.CheckExpiry(f.ctx, item.ID)
	assert.NoError(t, err)
	check.False(t, out.Handled())
	check.Equal(t, int64(99_500_000), f.budget(t, a.ID))
	check.Equal(t, 0, len(f.rec.Events()))

	got := f.getItem(t, item.ID)
	check.Equal(t, model.ItemSold, got.State)
	assert.NotNil(t, got.BuyerTeamID)
	check.Equal(t, a.ID, *got.BuyerTeamID)
}

func TestCheckExpiryWithoutBidsMarksUnsold(t *testing.T) {
	f := newFixture(t)
	item := f.item(t, "Nobody", 500_000, "India", "")
	f.activate(t, item.ID)

	f.clock.Advance(time.Minute)
	out, err := f.engine.CheckExpiry(f.ctx, item.ID)
	assert.NoError(t, err)
	check.Equal(t, ResolutionUnsold, out.Resolution)

	got := f.getItem(t, item.ID)
	check.Equal(t, model.ItemUnsold, got.State)
	check.NotNil(t, got.UnsoldAt)

	unsold, err := store.ListUnsold(f.ctx, f.db)
	assert.NoError(t, err)
	check.Equal(t, 1, len(unsold))

	out, err = f.engine.CheckExpiry(f.ctx, item.ID)
	assert.NoError(t, err)
	check.False(t, out.Handled())
}

func TestUnsoldItemSellsOnReactivation(t *testing.T) {
	f := newFixture(t)
	a := f.team(t, "Alpha", 100_000_000)
	item := f.item(t, "Second Chance", 500_000, "India", "")
	f.activate(t, item.ID)
	f.stop(t, item.ID)

	f.activate(t, item.ID)
	check.Nil(t, f.getItem(t, item.ID).UnsoldAt)
	f.bid(t, item.ID, a.ID)
	out, err := f.engine.StopBidding(f.ctx, item.ID)
	assert.NoError(t, err)
	check.Equal(t, ResolutionSold, out.Resolution)

	unsold, err := store.ListUnsold(f.ctx, f.db)
	assert.NoError(t, err)
	check.Equal(t, 0, len(unsold))
}

func TestStopBiddingIgnoresTimer(t *testing.T) {
	f := newFixture(t)
	a := f.team(t, "Alpha", 100_000_000)
	item := f.item(t, "Player", 500_000, "India", "")
	f.activate(t, item.ID)
	f.bid(t, item.ID, a.ID)

	out, err := f.engine.StopBidding(f.ctx, item.ID)
	assert.NoError(t, err)
	check.True(t, out.Handled())
	check.Equal(t, ResolutionSold, out.Resolution)

	out, err = f.engine.StopBidding(f.ctx, item.ID)
	assert.NoError(t, err)
	check.False(t, out.Handled())
}

func TestMarkUnsold(t *testing.T) {
	f := newFixture(t)
	a := f.team(t, "Alpha", 100_000_000)
	item := f.item(t, "Player", 500_000, "India", "")
	f.activate(t, item.ID)
	f.bid(t, item.ID, a.ID)
	f.stop(t, item.ID)

	notice, err := f.engine.MarkUnsold(f.ctx, item.ID)
	assert.NoError(t, err)
	assert.NotNil(t, notice)
	check.Equal(t, int64(500_000), notice.Amount)
	check.Equal(t, int64(100_000_000), f.budget(t, a.ID))

	got := f.getItem(t, item.ID)
	check.Equal(t, model.ItemUnsold, got.State)
	check.Nil(t, got.BuyerTeamID)

	sales, err := store.ListSales(f.ctx, f.db, 0)
	assert.NoError(t, err)
	check.Equal(t, 0, len(sales))
}

func TestMarkUnsoldActiveItem(t *testing.T) {
	f := newFixture(t)
	item := f.item(t, "Player", 500_000, "India", "")
	f.activate(t, item.ID)

	notice, err := f.engine.MarkUnsold(f.ctx, item.ID)
	assert.NoError(t, err)
	check.Nil(t, notice)
	check.Equal(t, model.ItemUnsold, f.getItem(t, item.ID).State)

	active, err := store.GetActiveItem(f.ctx, f.db)
	assert.NoError(t, err)
	check.Nil(t, active)
}

func TestResetItem(t *testing.T) {
	f := newFixture(t)
	a := f.team(t, "Alpha", 100_000_000)
	b := f.team(t, "Beta", 100_000_000)
	item := f.item(t, "Player", 500_000, "India", "")
	f.activate(t, item.ID)
	f.bid(t, item.ID, a.ID)
	f.bid(t, item.ID, b.ID)
	f.stop(t, item.ID)
	check.Equal(t, int64(99_000_000), f.budget(t, b.ID))

	notice, err := f.engine.ResetItem(f.ctx, item.ID)
	assert.NoError(t, err)
	assert.NotNil(t, notice)
	check.Equal(t, b.ID, notice.TeamID)
	check.Equal(t, int64(100_000_000), f.budget(t, b.ID))

	got := f.getItem(t, item.ID)
	check.Equal(t, model.ItemIdle, got.State)
	check.Equal(t, int64(500_000), got.CurrentBid)
	n, err := store.CountBids(f.ctx, f.db, item.ID)
	assert.NoError(t, err)
	check.Equal(t, 0, n)

	// With the history gone the next activation starts from the base price.
	f.activate(t, item.ID)
	check.Equal(t, int64(500_000), f.bid(t, item.ID, b.ID))
}

func TestResetAuction(t *testing.T) {
	f := newFixture(t)
	a := f.team(t, "Alpha", 100_000_000)
	sold := f.item(t, "Sold", 500_000, "India", "")
	unsold := f.item(t, "Unsold", 500_000, "India", "")
	open := f.item(t, "Open", 500_000, "India", "")

	f.activate(t, sold.ID)
	f.bid(t, sold.ID, a.ID)
	f.stop(t, sold.ID)
	f.activate(t, unsold.ID)
	f.stop(t, unsold.ID)
	f.activate(t, open.ID)

	assert.NoError(t, f.engine.ResetAuction(f.ctx))

	check.Equal(t, int64(100_000_000), f.budget(t, a.ID))
	items, err := store.ListItems(f.ctx, f.db, "")
	assert.NoError(t, err)
	for _, it := range items {
		check.Equal(t, model.ItemIdle, it.State)
		check.Equal(t, it.BasePrice, it.CurrentBid)
	}
	sales, _ := store.ListSales(f.ctx, f.db, 0)
	check.Equal(t, 0, len(sales))
	list, _ := store.ListUnsold(f.ctx, f.db)
	check.Equal(t, 0, len(list))

	entries, err := store.ListLedger(f.ctx, f.db, a.ID)
	assert.NoError(t, err)
	last := entries[len(entries)-1]
	check.Equal(t, model.LedgerReset, last.Kind)
	check.Equal(t, int64(100_000_000), last.Balance)
}

func TestDeleteItem(t *testing.T) {
	f := newFixture(t)
	a := f.team(t, "Alpha", 100_000_000)
	item := f.item(t, "Player", 500_000, "India", "")
	f.activate(t, item.ID)
	f.bid(t, item.ID, a.ID)

	_, err := f.engine.DeleteItem(f.ctx, item.ID)
	check.True(t, errors.Is(err, ErrInvalidTransition))

	f.stop(t, item.ID)
	notice, err := f.engine.DeleteItem(f.ctx, item.ID)
	assert.NoError(t, err)
	assert.NotNil(t, notice)
	check.Equal(t, int64(100_000_000), f.budget(t, a.ID))

	got, err := store.GetItem(f.ctx, f.db, item.ID)
	assert.NoError(t, err)
	check.Nil(t, got)
}

func TestConcurrentFinalize(t *testing.T) {
	f := newFixture(t)
	a := f.team(t, "Alpha", 100_000_000)
	b := f.team(t, "Beta", 100_000_000)
	item := f.item(t, "Player", 500_000, "India", "")
	f.activate(t, item.ID)
	f.bid(t, item.ID, a.ID)
	f.bid(t, item.ID, b.ID)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		sales []*model.Sale
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sale, err := f.engine.Finalize(f.ctx, item.ID, nil, false)
			if err != nil {
				t.Errorf("Finalize: %v", err)
				return
			}
			if sale != nil {
				mu.Lock()
				sales = append(sales, sale)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, len(sales))
	check.Equal(t, b.ID, sales[0].TeamID)
	check.Equal(t, int64(1_000_000), sales[0].Amount)
	check.Equal(t, int64(99_000_000), f.budget(t, b.ID))
	check.Equal(t, int64(100_000_000), f.budget(t, a.ID))

	stored, err := store.ListSales(f.ctx, f.db, 0)
	assert.NoError(t, err)
	check.Equal(t, 1, len(stored))
}

func TestConcurrentExpiryAndStop(t *testing.T) {
	f := newFixture(t)
	a := f.team(t, "Alpha", 100_000_000)
	item := f.item(t, "Player", 500_000, "India", "")
	f.activate(t, item.ID)
	f.bid(t, item.ID, a.ID)
	f.clock.Advance(2 * time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	handled := 0
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var out Outcome
			var err error
			if i%2 == 0 {
				out, err = f.engine.CheckExpiry(f.ctx, item.ID)
			} else {
				out, err = f.engine.StopBidding(f.ctx, item.ID)
			}
			if err != nil {
				t.Errorf("resolve: %v", err)
				return
			}
			if out.Handled() {
				mu.Lock()
				handled++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	check.Equal(t, 1, handled)
	check.Equal(t, int64(99_500_000), f.budget(t, a.ID))
}

func TestFinalizeWithRecipient(t *testing.T) {
	f := newFixture(t)
	a := f.team(t, "Alpha", 100_000_000)
	b := f.team(t, "Beta", 100_000_000)
	item := f.item(t, "Player", 500_000, "India", "")
	f.activate(t, item.ID)
	f.bid(t, item.ID, a.ID)

	sale, err := f.engine.Finalize(f.ctx, item.ID, &b.ID, true)
	assert.NoError(t, err)
	assert.NotNil(t, sale)
	check.Equal(t, b.ID, sale.TeamID)
	check.Equal(t, int64(500_000), sale.Amount)
	check.True(t, sale.IsRTM)
	check.Equal(t, "Player", sale.ItemName)
	check.Equal(t, "India", sale.Nationality)
}

func TestFinalizeWithoutBids(t *testing.T) {
	f := newFixture(t)
	item := f.item(t, "Player", 500_000, "India", "")
	f.activate(t, item.ID)

	sale, err := f.engine.Finalize(f.ctx, item.ID, nil, false)
	assert.NoError(t, err)
	check.Nil(t, sale)

	got := f.getItem(t, item.ID)
	check.NotEqual(t, model.ItemActive, got.State)
}

func TestSettlementInsufficientBudgetLeavesItemOpen(t *testing.T) {
	f := newFixture(t)
	a := f.team(t, "Alpha", 1_000_000)
	item := f.item(t, "Player", 500_000, "India", "")
	f.activate(t, item.ID)
	f.bid(t, item.ID, a.ID)

	// Spend the purse elsewhere between the bid and the settlement.
	_, err := store.Debit(f.ctx, f.db, a.ID, nil, 900_000, f.clock.Now())
	assert.NoError(t, err)

	_, err = f.engine.StopBidding(f.ctx, item.ID)
	check.True(t, errors.Is(err, ErrInsufficientBudget))
	check.Equal(t, model.ItemActive, f.getItem(t, item.ID).State)
}
