package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tujenge/kazi/core"
)

var (
	// errors
	ErrFormNotFound     = core.NewNotFoundError("daily form not found")
	ErrFormExists       = core.NewConflictError("a daily form already exists for this employee and day")
	ErrAlreadySubmitted = core.NewConflictError("daily form already submitted")
	ErrFormReadOnly     = core.NewForbiddenError("daily form is read-only")
	ErrNotSubmitted     = core.NewStateError("daily form has not been submitted")
)

// TaskEntry is a single checklist item on a DailyForm. IsCompleted is a
// derived projection (employee checkmark AND admin checkmark); it is
// recomputed on every read/write path and never trusted from storage.
type TaskEntry struct {
	ID              string `json:"id"`
	Label           string `json:"label"`
	Category        string `json:"category,omitempty"`
	Frequency       string `json:"frequency,omitempty"`
	EmployeeChecked bool   `json:"employee_checked"`
	AdminChecked    bool   `json:"admin_checked"`
	IsCompleted     bool   `json:"is_completed"`
	CreatedBy       string `json:"created_by,omitempty"` // empty for catalog items
}

// TagEntry is an ad hoc marker an admin attaches to a specific employee & day.
type TagEntry struct {
	TaskEntry
	Color string `json:"color,omitempty"`
}

// DailyForm is the one-per-employee-per-day attendance & task record.
// Identity is (EmployeeID, Date); rows are never deleted.
type DailyForm struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	Date       time.Time `json:"date"` // normalized calendar day, see NormalizeDate

	EntryTime *time.Time `json:"entry_time"`
	ExitTime  *time.Time `json:"exit_time"`

	StandardTasks []TaskEntry `json:"standard_tasks"`
	CustomTasks   []TaskEntry `json:"custom_tasks"`
	CustomTags    []TagEntry  `json:"custom_tags"`

	HoursAttended float64 `json:"hours_attended"`
	Screensharing bool    `json:"screensharing"`

	Submitted   bool       `json:"submitted"`
	SubmittedAt *time.Time `json:"submitted_at"`

	AdminConfirmed   bool       `json:"admin_confirmed"`
	AdminConfirmedAt *time.Time `json:"admin_confirmed_at"`

	Score             int        `json:"score"`
	DailyBonus        int        `json:"daily_bonus"`
	ScoreCalculatedAt *time.Time `json:"score_calculated_at"`

	AdminNotes   string     `json:"admin_notes"`
	LastEditedBy string     `json:"last_edited_by"`
	LastEditedAt *time.Time `json:"last_edited_at"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// DateString renders the form's calendar day in ISO format.
func (f *DailyForm) DateString() string {
	return f.Date.Format(dateLayout)
}

// FormEdits is what an employee may change on today's form.
// Checked maps entry IDs to the employee checkmark value.
type FormEdits struct {
	EntryTime     *time.Time      `json:"entry_time"`
	ExitTime      *time.Time      `json:"exit_time"`
	HoursAttended *float64        `json:"hours_attended" validate:"omitempty,gte=0"`
	Screensharing *bool           `json:"screensharing"`
	Checked       map[string]bool `json:"checked"`
}

func (fe *FormEdits) Validate(validate *validator.Validate) error {
	return validate.Struct(fe)
}

// NewCustomTask is an admin-injected checklist item for one employee & day.
type NewCustomTask struct {
	Label     string `json:"label" validate:"required"`
	Category  string `json:"category"`
	Frequency string `json:"frequency"`
}

type NewCustomTag struct {
	Label string `json:"label" validate:"required"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// AdminEdits is what an admin may change on any form.
// Checked maps entry IDs to the admin checkmark value.
type AdminEdits struct {
	EntryTime     *time.Time      `json:"entry_time"`
	ExitTime      *time.Time      `json:"exit_time"`
	HoursAttended *float64        `json:"hours_attended" validate:"omitempty,gte=0"`
	Screensharing *bool           `json:"screensharing"`
	Checked       map[string]bool `json:"checked"`
	AdminNotes    *string         `json:"admin_notes"`
	CustomTasks   []NewCustomTask `json:"custom_tasks" validate:"omitempty,dive"`
	CustomTags    []NewCustomTag  `json:"custom_tags" validate:"omitempty,dive"`
}

func (ae *AdminEdits) Validate(validate *validator.Validate) error {
	return validate.Struct(ae)
}
