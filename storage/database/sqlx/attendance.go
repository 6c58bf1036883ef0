package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tujenge/kazi/core"
	"github.com/tujenge/kazi/core/attendance"
)

type formRow struct {
	ID                string      `db:"id"`
	EmployeeID        string      `db:"employee_id"`
	Date              time.Time   `db:"date"`
	EntryTime         null.Time   `db:"entry_time"`
	ExitTime          null.Time   `db:"exit_time"`
	StandardTasks     []byte      `db:"standard_tasks"`
	CustomTasks       []byte      `db:"custom_tasks"`
	CustomTags        []byte      `db:"custom_tags"`
	HoursAttended     float64     `db:"hours_attended"`
	Screensharing     bool        `db:"screensharing"`
	Submitted         bool        `db:"submitted"`
	SubmittedAt       null.Time   `db:"submitted_at"`
	AdminConfirmed    bool        `db:"admin_confirmed"`
	AdminConfirmedAt  null.Time   `db:"admin_confirmed_at"`
	Score             int         `db:"score"`
	DailyBonus        int         `db:"daily_bonus"`
	ScoreCalculatedAt null.Time   `db:"score_calculated_at"`
	AdminNotes        string      `db:"admin_notes"`
	LastEditedBy      string      `db:"last_edited_by"`
	LastEditedAt      null.Time   `db:"last_edited_at"`
	CreatedAt         null.Time   `db:"created_at"`
	UpdatedAt         null.Time   `db:"updated_at"`
}

func packForm(form attendance.DailyForm) (formRow, error) {
	standard, err := json.Marshal(form.StandardTasks)
	if err != nil {
		return formRow{}, errors.Wrap(err, "marshaling standard tasks")
	}
	tasks, err := json.Marshal(form.CustomTasks)
	if err != nil {
		return formRow{}, errors.Wrap(err, "marshaling custom tasks")
	}
	tags, err := json.Marshal(form.CustomTags)
	if err != nil {
		return formRow{}, errors.Wrap(err, "marshaling custom tags")
	}
	return formRow{
		ID:                form.ID,
		EmployeeID:        form.EmployeeID,
		Date:              form.Date,
		EntryTime:         null.TimeFromPtr(form.EntryTime),
		ExitTime:          null.TimeFromPtr(form.ExitTime),
		StandardTasks:     standard,
		CustomTasks:       tasks,
		CustomTags:        tags,
		HoursAttended:     form.HoursAttended,
		Screensharing:     form.Screensharing,
		Submitted:         form.Submitted,
		SubmittedAt:       null.TimeFromPtr(form.SubmittedAt),
		AdminConfirmed:    form.AdminConfirmed,
		AdminConfirmedAt:  null.TimeFromPtr(form.AdminConfirmedAt),
		Score:             form.Score,
		DailyBonus:        form.DailyBonus,
		ScoreCalculatedAt: null.TimeFromPtr(form.ScoreCalculatedAt),
		AdminNotes:        form.AdminNotes,
		LastEditedBy:      form.LastEditedBy,
		LastEditedAt:      null.TimeFromPtr(form.LastEditedAt),
		CreatedAt:         null.NewTime(form.CreatedAt.UTC(), !form.CreatedAt.IsZero()),
		UpdatedAt:         null.NewTime(form.UpdatedAt.UTC(), !form.UpdatedAt.IsZero()),
	}, nil
}

func (r formRow) unpack() (attendance.DailyForm, error) {
	form := attendance.DailyForm{
		ID:                r.ID,
		EmployeeID:        r.EmployeeID,
		Date:              r.Date.UTC(),
		EntryTime:         r.EntryTime.Ptr(),
		ExitTime:          r.ExitTime.Ptr(),
		HoursAttended:     r.HoursAttended,
		Screensharing:     r.Screensharing,
		Submitted:         r.Submitted,
		SubmittedAt:       r.SubmittedAt.Ptr(),
		AdminConfirmed:    r.AdminConfirmed,
		AdminConfirmedAt:  r.AdminConfirmedAt.Ptr(),
		Score:             r.Score,
		DailyBonus:        r.DailyBonus,
		ScoreCalculatedAt: r.ScoreCalculatedAt.Ptr(),
		AdminNotes:        r.AdminNotes,
		LastEditedBy:      r.LastEditedBy,
		LastEditedAt:      r.LastEditedAt.Ptr(),
		CreatedAt:         r.CreatedAt.Time,
		UpdatedAt:         r.UpdatedAt.Time,
	}
	if err := json.Unmarshal(r.StandardTasks, &form.StandardTasks); err != nil {
		return attendance.DailyForm{}, errors.Wrap(err, "unmarshaling standard tasks")
	}
	if err := json.Unmarshal(r.CustomTasks, &form.CustomTasks); err != nil {
		return attendance.DailyForm{}, errors.Wrap(err, "unmarshaling custom tasks")
	}
	if err := json.Unmarshal(r.CustomTags, &form.CustomTags); err != nil {
		return attendance.DailyForm{}, errors.Wrap(err, "unmarshaling custom tags")
	}
	return form, nil
}

type formRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*formRepository)(nil) // interface compliance check

func NewFormRepository(db *sqlx.DB) *formRepository {
	return &formRepository{db: db}
}

func (repo formRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return attendance.ErrFormNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo formRepository) CreateForm(ctx context.Context, form attendance.DailyForm) (attendance.DailyForm, error) {
	form.ID = uuid.New().String()
	row, err := packForm(form)
	if err != nil {
		return attendance.DailyForm{}, err
	}
	_, err = repo.db.NamedExecContext(ctx, `
		INSERT INTO "daily_form" (id, employee_id, date, entry_time, exit_time,
			standard_tasks, custom_tasks, custom_tags, hours_attended, screensharing,
			submitted, submitted_at, admin_confirmed, admin_confirmed_at,
			score, daily_bonus, score_calculated_at, admin_notes,
			last_edited_by, last_edited_at, created_at, updated_at)
		VALUES (:id, :employee_id, :date, :entry_time, :exit_time,
			:standard_tasks, :custom_tasks, :custom_tags, :hours_attended, :screensharing,
			:submitted, :submitted_at, :admin_confirmed, :admin_confirmed_at,
			:score, :daily_bonus, :score_calculated_at, :admin_notes,
			:last_edited_by, :last_edited_at, :created_at, :updated_at)`,
		row)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return attendance.DailyForm{}, attendance.ErrFormExists
		}
		return attendance.DailyForm{}, errors.Wrap(err, "inserting daily form")
	}
	return form, nil
}

func (repo formRepository) GetFormByID(ctx context.Context, id string) (attendance.DailyForm, error) {
	if _, err := uuid.Parse(id); err != nil {
		return attendance.DailyForm{}, attendance.ErrFormNotFound
	}
	var row formRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM "daily_form" WHERE id = $1`, id); err != nil {
		return attendance.DailyForm{}, repo.trapNoRowsErr(err, "finding daily form by ID")
	}
	return row.unpack()
}

func (repo formRepository) GetFormByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.DailyForm, error) {
	var row formRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM "daily_form" WHERE employee_id = $1 AND date = $2`, employeeID, date)
	if err != nil {
		return attendance.DailyForm{}, repo.trapNoRowsErr(err, "finding daily form by date")
	}
	return row.unpack()
}

func (repo formRepository) QueryEmployeeForms(ctx context.Context, employeeID string, ordering []core.DBOrdering) ([]attendance.DailyForm, error) {
	q := `SELECT * FROM "daily_form" WHERE employee_id = $1`
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		q += " ORDER BY " + strings.Join(orderList, ", ")
	} else {
		q += " ORDER BY date DESC"
	}

	var rows []formRow
	if err := repo.db.SelectContext(ctx, &rows, q, employeeID); err != nil {
		return nil, errors.Wrap(err, "querying daily forms")
	}
	return unpackSlice(rows)
}

func (repo formRepository) QueryFormsInRange(ctx context.Context, from, to time.Time) ([]attendance.DailyForm, error) {
	var rows []formRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM "daily_form" WHERE date BETWEEN $1 AND $2 ORDER BY date, employee_id`, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "querying daily forms in range")
	}
	return unpackSlice(rows)
}

func (repo formRepository) UpdateForm(ctx context.Context, form attendance.DailyForm) (attendance.DailyForm, error) {
	row, err := packForm(form)
	if err != nil {
		return attendance.DailyForm{}, err
	}
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE "daily_form"
		SET entry_time = :entry_time, exit_time = :exit_time,
		    standard_tasks = :standard_tasks, custom_tasks = :custom_tasks, custom_tags = :custom_tags,
		    hours_attended = :hours_attended, screensharing = :screensharing,
		    submitted = :submitted, submitted_at = :submitted_at,
		    admin_confirmed = :admin_confirmed, admin_confirmed_at = :admin_confirmed_at,
		    score = :score, daily_bonus = :daily_bonus, score_calculated_at = :score_calculated_at,
		    admin_notes = :admin_notes, last_edited_by = :last_edited_by, last_edited_at = :last_edited_at,
		    updated_at = :updated_at
		WHERE id = :id`,
		row)
	if err != nil {
		return attendance.DailyForm{}, errors.Wrap(err, "updating daily form")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.DailyForm{}, attendance.ErrFormNotFound
	}
	return form, nil
}

func unpackSlice(rows []formRow) ([]attendance.DailyForm, error) {
	forms := make([]attendance.DailyForm, 0, len(rows))
	for _, row := range rows {
		form, err := row.unpack()
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
	return forms, nil
}
