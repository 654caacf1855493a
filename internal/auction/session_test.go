package auction

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestStateEmptyFloor(t *testing.T) {
	f := newFixture(t)

	s, err := f.engine.State(f.ctx)
	assert.NoError(t, err)
	check.Nil(t, s.ActiveItem)
	check.Equal(t, 300, s.AutoBreakSec)
}

func TestStateActiveItem(t *testing.T) {
	f := newFixture(t)
	a := f.team(t, "Alpha", 100_000_000)
	item := f.item(t, "Player", 9_500_000, "India", "")
	f.activate(t, item.ID)

	s, err := f.engine.State(f.ctx)
	assert.NoError(t, err)
	assert.NotNil(t, s.ActiveItem)
	check.Equal(t, item.ID, s.ActiveItem.ID)
	check.Equal(t, int64(9_500_000), s.NextBid)
	check.Equal(t, "₹95L", s.NextBidLabel)
	check.Nil(t, s.HighestBid)
	check.Equal(t, 60, s.TimeRemainingSec)

	f.bid(t, item.ID, a.ID)
	f.clock.Advance(10500 * time.Millisecond)

	s, err = f.engine.State(f.ctx)
	assert.NoError(t, err)
	assert.NotNil(t, s.HighestBid)
	check.Equal(t, "Alpha", s.HighestBid.TeamName)
	check.Equal(t, int64(10_000_000), s.NextBid)
	check.Equal(t, "₹1.00 Cr", s.NextBidLabel)
	check.Equal(t, 50, s.TimeRemainingSec)
}

func TestStateRTMPending(t *testing.T) {
	f := newFixture(t)
	bidder := f.team(t, "Mumbai", 100_000_000)
	f.team(t, "Chennai", 100_000_000)
	item := f.item(t, "Retained", 2_000_000, "India", "Chennai")
	n := f.openRTM(t, item, bidder)

	f.clock.Advance(10 * time.Second)
	s, err := f.engine.State(f.ctx)
	assert.NoError(t, err)
	assert.NotNil(t, s.RTM)
	check.Equal(t, n.ID, s.RTM.ID)
	check.Equal(t, 20, s.RTMRemainingSec)
	check.Equal(t, 0, s.TimeRemainingSec)
}
