package store

import (
	"context"

	"github.com/erazemk/drazba/internal/model"
)

// TeamSquad summarizes a team's purchases under the given rules. It returns
// nil if the team does not exist.
func TeamSquad(ctx context.Context, db DBTX, teamID int64, rules model.Rules) (*model.Squad, error) {
	team, err := GetTeam(ctx, db, teamID)
	if err != nil || team == nil {
		return nil, err
	}

	sales, err := ListSales(ctx, db, teamID)
	if err != nil {
		return nil, err
	}

	used, err := RTMUsage(ctx, db, teamID, rules.IsDomestic)
	if err != nil {
		return nil, err
	}

	squad := &model.Squad{
		TeamID:          team.ID,
		TeamName:        team.Name,
		Items:           sales,
		BudgetRemaining: team.BudgetRemaining,
		Categories:      map[string]int{},
		RTMUsed:         used,
		RTMRemaining: model.RTMUsage{
			Total:    max(rules.RTMQuota.Total-used.Total, 0),
			Domestic: max(rules.RTMQuota.Domestic-used.Domestic, 0),
			Overseas: max(rules.RTMQuota.Overseas-used.Overseas, 0),
		},
	}
	if squad.Items == nil {
		squad.Items = []model.Sale{}
	}
	for _, s := range sales {
		squad.TotalSpent += s.Amount
		squad.TotalRating += s.Rating
		squad.Categories[s.Category]++
		if rules.IsDomestic(s.Nationality) {
			squad.Domestic++
		} else {
			squad.Overseas++
		}
	}
	return squad, nil
}
