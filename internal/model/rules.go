package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Tier is one step of the bid increment schedule: while the current amount
// is below Ceiling, bids rise by Step.
type Tier struct {
	Ceiling int64 `json:"ceiling"`
	Step    int64 `json:"step"`
}

// RTMQuota caps how many right-to-match purchases a team may make.
type RTMQuota struct {
	Total    int `json:"total"`
	Domestic int `json:"domestic"`
	Overseas int `json:"overseas"`
}

// Rules is the configuration snapshot the auction engine runs against.
// A value is never mutated after it is loaded.
type Rules struct {
	Tiers               []Tier   `json:"tiers"`
	BidDurationSec      int      `json:"bid_duration_sec"`
	RTMDecisionSec      int      `json:"rtm_decision_sec"`
	AutoBreakSec        int      `json:"auto_break_sec"`
	InitialPurse        int64    `json:"initial_purse"`
	MaxSquadSize        int      `json:"max_squad_size"`
	MinSquadSize        int      `json:"min_squad_size"`
	MaxOverseas         int      `json:"max_overseas"`
	RTMEnabled          bool     `json:"rtm_enabled"`
	RTMQuota            RTMQuota `json:"rtm_quota"`
	DomesticNationality string   `json:"domestic_nationality"`
}

// DefaultRules returns the rules a fresh auction starts with.
func DefaultRules() Rules {
	return Rules{
		Tiers: []Tier{
			{Ceiling: 10_000_000, Step: 500_000},
			{Ceiling: 20_000_000, Step: 1_000_000},
			{Ceiling: 50_000_000, Step: 2_500_000},
			{Ceiling: 100_000_000, Step: 5_000_000},
			{Ceiling: 9_990_000_000, Step: 10_000_000},
		},
		BidDurationSec:      60,
		RTMDecisionSec:      30,
		AutoBreakSec:        300,
		InitialPurse:        1_000_000_000,
		MaxSquadSize:        25,
		MinSquadSize:        18,
		MaxOverseas:         8,
		RTMEnabled:          true,
		RTMQuota:            RTMQuota{Total: 2, Domestic: 1, Overseas: 1},
		DomesticNationality: "India",
	}
}

// Increment returns the bid step that applies at the given current amount.
func (r Rules) Increment(current int64) int64 {
	for _, t := range r.Tiers {
		if current < t.Ceiling {
			return t.Step
		}
	}
	return r.Tiers[len(r.Tiers)-1].Step
}

// BidDuration is how long an item stays open without a new bid.
func (r Rules) BidDuration() time.Duration {
	return time.Duration(r.BidDurationSec) * time.Second
}

// RTMDecision is how long the previous owner may take to answer. Zero means
// the negotiation waits for an explicit answer.
func (r Rules) RTMDecision() time.Duration {
	return time.Duration(r.RTMDecisionSec) * time.Second
}

// AutoBreak is the pause the floor takes between items.
func (r Rules) AutoBreak() time.Duration {
	return time.Duration(r.AutoBreakSec) * time.Second
}

// IsDomestic reports whether a player of the given nationality counts
// against the domestic quota.
func (r Rules) IsDomestic(nationality string) bool {
	return strings.EqualFold(strings.TrimSpace(nationality), strings.TrimSpace(r.DomesticNationality))
}

// Validate checks the rules for internal consistency.
func (r Rules) Validate() error {
	var errs []error
	if len(r.Tiers) == 0 {
		errs = append(errs, errors.New("at least one increment tier is required"))
	}
	for i, t := range r.Tiers {
		if t.Step <= 0 {
			errs = append(errs, fmt.Errorf("tier %d: step must be positive", i+1))
		}
		if i > 0 && t.Ceiling <= r.Tiers[i-1].Ceiling {
			errs = append(errs, fmt.Errorf("tier %d: ceilings must be ascending", i+1))
		}
	}
	if r.BidDurationSec <= 0 {
		errs = append(errs, errors.New("bid duration must be positive"))
	}
	if r.RTMDecisionSec < 0 || r.AutoBreakSec < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if r.InitialPurse < 0 {
		errs = append(errs, errors.New("initial purse must not be negative"))
	}
	if r.MaxSquadSize < 0 || r.MaxOverseas < 0 || r.MinSquadSize < 0 {
		errs = append(errs, errors.New("squad limits must not be negative"))
	}
	if r.RTMQuota.Total < 0 || r.RTMQuota.Domestic < 0 || r.RTMQuota.Overseas < 0 {
		errs = append(errs, errors.New("rtm quotas must not be negative"))
	}
	return errors.Join(errs...)
}
