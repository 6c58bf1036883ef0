package attendance

import (
	"context"
	"sort"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/tujenge/kazi/core"
)

type SourceMode string

const (
	SourceAuto      SourceMode = "auto"
	SourceApproved  SourceMode = "approved"
	SourceSubmitted SourceMode = "submitted"
)

const (
	defaultWindowDays = 7
	maxWindowDays     = 92

	// auto mode walks at most this many prior windows before giving up
	// and returning a zero-filled board.
	maxHistoricalWindows = 6
)

type (
	// LeaderboardFilter carries the raw query parameters of a leaderboard
	// request. Resolve turns them into a concrete range and source tier.
	LeaderboardFilter struct {
		Date   string `query:"date"`
		Days   int    `query:"days"`
		Source string `query:"source"`
	}

	DateRange struct {
		From time.Time `json:"from"`
		To   time.Time `json:"to"`
	}

	LeaderboardRow struct {
		Rank          int     `json:"rank"`
		EmployeeID    string  `json:"employee_id"`
		Name          string  `json:"name"`
		Username      string  `json:"username"`
		DaysWorked    int     `json:"days_worked"`
		TotalScore    int     `json:"total_score"`
		TotalBonus    int     `json:"total_bonus"`
		AverageScore  float64 `json:"average_score"`
		ApprovedCount int     `json:"approved_count"`
		PendingCount  int     `json:"pending_count"`
	}

	// LeaderboardMeta tells the caller which tier actually produced the
	// rows, so a board built from unreviewed submissions is never mistaken
	// for final numbers.
	LeaderboardMeta struct {
		SourceTierUsed SourceMode `json:"source_tier_used"`
		Historical     bool       `json:"historical"`
		ResolvedRange  DateRange  `json:"resolved_range"`
		FormsEvaluated int        `json:"forms_evaluated"`
		ApprovedCount  int        `json:"approved_count"`
		PendingCount   int        `json:"pending_count"`
	}

	Leaderboard struct {
		RequestedRange DateRange        `json:"requested_range"`
		Rows           []LeaderboardRow `json:"rows"`
		Meta           LeaderboardMeta  `json:"meta"`
	}
)

func (r DateRange) String() string {
	return r.From.Format(dateLayout) + ".." + r.To.Format(dateLayout)
}

func (r DateRange) shiftBack() DateRange {
	days := int(r.To.Sub(r.From).Hours()/24) + 1
	return DateRange{
		From: r.From.AddDate(0, 0, -days),
		To:   r.To.AddDate(0, 0, -days),
	}
}

// Resolve validates the filter and fills in defaults: the window ends today
// and spans a week unless told otherwise.
func (f *LeaderboardFilter) Resolve(today time.Time, loc *time.Location) (DateRange, SourceMode, error) {
	if f.Days == 0 {
		f.Days = defaultWindowDays
	}
	if f.Source == "" {
		f.Source = string(SourceAuto)
	}
	f.Source = core.CleanString(f.Source, true /* lower */)

	end := today
	if f.Date != "" {
		parsed, err := time.ParseInLocation(dateLayout, f.Date, loc)
		if err != nil {
			return DateRange{}, "", core.NewValidationError(err, core.FieldError{Field: "date", Error: "date must be formatted as 2006-01-02"})
		}
		end = NormalizeDate(parsed, loc)
	}

	if err := vala.BeginValidation().Validate(
		vala.GreaterThan(f.Days, 0, "days"),
		vala.Not(vala.GreaterThan(f.Days, maxWindowDays, "days")),
	).Check(); err != nil {
		return DateRange{}, "", core.NewValidationError(err, core.FieldError{Field: "days", Error: err.Error()})
	}

	source := SourceMode(f.Source)
	switch source {
	case SourceAuto, SourceApproved, SourceSubmitted:
	default:
		return DateRange{}, "", core.NewValidationError(nil, core.FieldError{Field: "source", Error: "source must be one of: auto, approved, submitted"})
	}

	rng := DateRange{From: end.AddDate(0, 0, -(f.Days - 1)), To: end}
	return rng, source, nil
}

func approvedForms(forms []DailyForm) []DailyForm {
	kept := make([]DailyForm, 0, len(forms))
	for _, f := range forms {
		if f.AdminConfirmed {
			kept = append(kept, f)
		}
	}
	return kept
}

func submittedForms(forms []DailyForm) []DailyForm {
	kept := make([]DailyForm, 0, len(forms))
	for _, f := range forms {
		if f.Submitted || f.AdminConfirmed {
			kept = append(kept, f)
		}
	}
	return kept
}

// resolveTier picks the forms backing the board. Tiers are tried in order and
// never merged: a board is built entirely from approved forms or entirely
// from submitted ones. In auto mode an empty window falls back to earlier
// windows of the same length.
func (svc *service) resolveTier(ctx context.Context, rng DateRange, source SourceMode) ([]DailyForm, LeaderboardMeta, error) {
	meta := LeaderboardMeta{SourceTierUsed: source, ResolvedRange: rng}

	query := func(r DateRange) ([]DailyForm, error) {
		return svc.repo.QueryFormsInRange(ctx, r.From, r.To)
	}

	switch source {
	case SourceApproved, SourceSubmitted:
		forms, err := query(rng)
		if err != nil {
			return nil, meta, err
		}
		if source == SourceApproved {
			return approvedForms(forms), meta, nil
		}
		return submittedForms(forms), meta, nil
	}

	// auto: this window first, then walk back window by window
	window := rng
	for step := 0; step <= maxHistoricalWindows; step++ {
		forms, err := query(window)
		if err != nil {
			return nil, meta, err
		}
		meta.Historical = step > 0
		meta.ResolvedRange = window
		if approved := approvedForms(forms); len(approved) > 0 {
			meta.SourceTierUsed = SourceApproved
			return approved, meta, nil
		}
		if submitted := submittedForms(forms); len(submitted) > 0 {
			meta.SourceTierUsed = SourceSubmitted
			return submitted, meta, nil
		}
		window = window.shiftBack()
	}

	// nothing anywhere: a zero-filled board over the requested range
	meta.SourceTierUsed = SourceApproved
	meta.Historical = false
	meta.ResolvedRange = rng
	return nil, meta, nil
}

// Leaderboard builds the ranked board for the filter's window. Every active
// employee gets a row, zeros included, so absences are visible rather than
// silently dropped.
func (svc *service) Leaderboard(filter LeaderboardFilter) (Leaderboard, error) {
	rng, source, err := filter.Resolve(svc.today(), svc.conf.Location())
	if err != nil {
		return Leaderboard{}, err
	}

	ctx := context.Background()
	roster, err := svc.roster.ActiveEmployees()
	if err != nil {
		return Leaderboard{}, errors.Wrap(err, "loading roster")
	}

	forms, meta, err := svc.resolveTier(ctx, rng, source)
	if err != nil {
		return Leaderboard{}, errors.Wrap(err, "resolving leaderboard source")
	}

	rows := make([]LeaderboardRow, 0, len(roster))
	byEmployee := make(map[string]*LeaderboardRow, len(roster))
	for _, emp := range roster {
		rows = append(rows, LeaderboardRow{
			EmployeeID: emp.ID,
			Name:       emp.Name,
			Username:   emp.Username,
		})
		byEmployee[emp.ID] = &rows[len(rows)-1]
	}

	for _, f := range forms {
		row, ok := byEmployee[f.EmployeeID]
		if !ok {
			continue // deactivated since; not on the board
		}
		meta.FormsEvaluated++
		row.DaysWorked++
		row.TotalScore += f.Score
		row.TotalBonus += f.DailyBonus
		if f.AdminConfirmed {
			row.ApprovedCount++
			meta.ApprovedCount++
		} else {
			row.PendingCount++
			meta.PendingCount++
		}
	}

	for i := range rows {
		if rows[i].DaysWorked > 0 {
			rows[i].AverageScore = float64(rows[i].TotalScore) / float64(rows[i].DaysWorked)
		}
	}

	// stable sort: tied rows keep roster order
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalBonus > rows[j].TotalBonus
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}

	return Leaderboard{RequestedRange: rng, Rows: rows, Meta: meta}, nil
}
