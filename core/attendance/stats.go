package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/tujenge/kazi/core"
)

const defaultRecentForms = 14

type (
	// StatsFilter selects either a rolling window of Days ending today
	// (default 30) or, with All, the employee's whole history.
	StatsFilter struct {
		Days int  `query:"days"`
		All  bool `query:"all"`
	}

	// Stats is an employee's own running tally, confirmed days only for the
	// money figures and everything for the activity ones.
	Stats struct {
		Range                DateRange   `json:"range"`
		DaysWorked           int         `json:"days_worked"`
		TotalScore           int         `json:"total_score"`
		TotalBonus           int         `json:"total_bonus"`
		AverageScore         float64     `json:"average_score"`
		PendingApprovalCount int         `json:"pending_approval_count"`
		RecentForms          []DailyForm `json:"recent_forms"`
	}
)

func (f *StatsFilter) resolve(today time.Time) (DateRange, error) {
	if f.All {
		// open-ended: a zero From bounds nothing
		return DateRange{To: today}, nil
	}
	if f.Days == 0 {
		f.Days = 30
	}
	if f.Days < 0 || f.Days > maxWindowDays {
		return DateRange{}, core.NewValidationError(nil, core.FieldError{Field: "days", Error: "days must be between 1 and 92"})
	}
	return DateRange{From: today.AddDate(0, 0, -(f.Days - 1)), To: today}, nil
}

func (svc *service) SelfStats(employeeID string, filter StatsFilter) (Stats, error) {
	rng, err := filter.resolve(svc.today())
	if err != nil {
		return Stats{}, err
	}

	forms, err := svc.repo.QueryEmployeeForms(context.Background(), employeeID, nil)
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying daily forms")
	}

	stats := Stats{Range: rng, RecentForms: []DailyForm{}}
	confirmed := 0
	for i := range forms {
		f := forms[i]
		if (!rng.From.IsZero() && f.Date.Before(rng.From)) || f.Date.After(rng.To) {
			continue
		}
		Reconcile(&f)

		stats.DaysWorked++
		if f.AdminConfirmed {
			confirmed++
			stats.TotalScore += f.Score
			stats.TotalBonus += f.DailyBonus
		} else if f.Submitted {
			stats.PendingApprovalCount++
		}
		if len(stats.RecentForms) < defaultRecentForms {
			stats.RecentForms = append(stats.RecentForms, f)
		}
	}
	if confirmed > 0 {
		stats.AverageScore = float64(stats.TotalScore) / float64(confirmed)
	}
	return stats, nil
}
