package attendance

import (
	"time"
)

const dateLayout = "2006-01-02"

// NowFunc returns the current wall-clock time. mockable
var NowFunc = time.Now

// FormState is the edit-window state of a DailyForm, derived from its
// calendar date, submission and confirmation flags. It is never stored.
type FormState string

const (
	// StateEditable: the form is for today and has not been submitted;
	// the employee may still mutate it.
	StateEditable FormState = "editable"
	// StateSubmittedPendingReview: submitted, waiting for an admin.
	StateSubmittedPendingReview FormState = "submitted_pending_review"
	// StateLocked: the calendar day has rolled over; frozen for the
	// employee regardless of submission. Admins may still mutate & confirm.
	StateLocked FormState = "locked"
	// StateConfirmed: an admin confirmed the day; score & bonus are final
	// until the next admin edit.
	StateConfirmed FormState = "confirmed"
)

// NormalizeDate maps an instant to its calendar day in the org timezone,
// encoded as midnight UTC of that day. One policy, applied everywhere: form
// dates, "today" comparisons and leaderboard ranges all round-trip through
// this function.
func NormalizeDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StateAt derives the form's state given today's normalized date.
// The Locked transition is automatic: purely a function of the date crossing
// midnight, no explicit action involved.
func (f *DailyForm) StateAt(today time.Time) FormState {
	switch {
	case f.AdminConfirmed:
		return StateConfirmed
	case f.Date.Before(today):
		return StateLocked
	case f.Submitted:
		return StateSubmittedPendingReview
	default:
		return StateEditable
	}
}

// CanEmployeeEdit reports whether an employee mutation is allowed: only
// today's form, and only before submission. Callers translate a false into
// ErrFormReadOnly, a recoverable signal the UI degrades on.
func (f *DailyForm) CanEmployeeEdit(today time.Time) bool {
	return f.StateAt(today) == StateEditable && f.Date.Equal(today)
}
