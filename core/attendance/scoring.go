package attendance

// Scoring constants. Bonus is an EGP amount.
const (
	screensharingBonus = 5
	bonusPerPoint      = 10
	maxDailyBonus      = 500
)

// hoursTiers are mutually exclusive; highest threshold wins.
var hoursTiers = []struct {
	threshold float64
	bonus     int
}{
	{8, 10},
	{6, 7},
	{4, 4},
	{2, 2},
}

// ComputeScore evaluates a reconciled form:
// one point per completed standard or custom task (tags are markers, never
// scored), +5 for screensharing, plus the hours-attended tier bonus. The
// monetary bonus is score x 10, capped at 500. Pure; runs only inside the
// admin-confirm transition so an employee cannot infer the bonus before
// review.
func ComputeScore(f *DailyForm) (score, dailyBonus int) {
	for _, t := range f.StandardTasks {
		if t.IsCompleted {
			score++
		}
	}
	for _, t := range f.CustomTasks {
		if t.IsCompleted {
			score++
		}
	}

	if f.Screensharing {
		score += screensharingBonus
	}

	for _, tier := range hoursTiers {
		if f.HoursAttended >= tier.threshold {
			score += tier.bonus
			break
		}
	}

	dailyBonus = score * bonusPerPoint
	if dailyBonus > maxDailyBonus {
		dailyBonus = maxDailyBonus
	}
	return score, dailyBonus
}

// deriveHours recomputes HoursAttended from entry & exit times when both are
// set (clamped at 0); a manual value is kept only when times are absent.
func deriveHours(f *DailyForm) {
	if f.EntryTime != nil && f.ExitTime != nil {
		hours := f.ExitTime.Sub(*f.EntryTime).Hours()
		if hours < 0 {
			hours = 0
		}
		f.HoursAttended = hours
	}
	if f.HoursAttended < 0 {
		f.HoursAttended = 0
	}
}

// invalidateScore zeroes score & bonus pending (re)confirmation. Called
// whenever scoring inputs change outside the confirm transition.
func invalidateScore(f *DailyForm) {
	f.AdminConfirmed = false
	f.AdminConfirmedAt = nil
	f.Score = 0
	f.DailyBonus = 0
	f.ScoreCalculatedAt = nil
}
