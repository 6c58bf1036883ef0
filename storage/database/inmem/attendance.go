package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tujenge/kazi/core"
	"github.com/tujenge/kazi/core/attendance"
)

type formRepository struct {
	db *formTable
}

var _ attendance.Repository = (*formRepository)(nil) // interface compliance check

func NewFormRepository(db *DB) *formRepository {
	return &formRepository{db: db.form}
}

func (repo *formRepository) CreateForm(ctx context.Context, form attendance.DailyForm) (attendance.DailyForm, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, f := range repo.db.table {
		if f.EmployeeID == form.EmployeeID && f.Date.Equal(form.Date) {
			return attendance.DailyForm{}, attendance.ErrFormExists
		}
	}

	form.ID = uuid.New().String()
	repo.db.table[form.ID] = &form
	return form, nil
}

func (repo *formRepository) GetFormByID(ctx context.Context, id string) (attendance.DailyForm, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if form, ok := repo.db.table[id]; ok {
		return *form, nil
	}
	return attendance.DailyForm{}, attendance.ErrFormNotFound
}

func (repo *formRepository) GetFormByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.DailyForm, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, form := range repo.db.table {
		if form.EmployeeID == employeeID && form.Date.Equal(date) {
			return *form, nil
		}
	}
	return attendance.DailyForm{}, attendance.ErrFormNotFound
}

func (repo *formRepository) QueryEmployeeForms(ctx context.Context, employeeID string, ordering []core.DBOrdering) ([]attendance.DailyForm, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	forms := make([]attendance.DailyForm, 0)
	for _, form := range repo.db.table {
		if form.EmployeeID == employeeID {
			forms = append(forms, *form)
		}
	}
	sort.Slice(forms, func(i, j int) bool { return forms[i].Date.After(forms[j].Date) })
	return forms, nil
}

func (repo *formRepository) QueryFormsInRange(ctx context.Context, from, to time.Time) ([]attendance.DailyForm, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	forms := make([]attendance.DailyForm, 0)
	for _, form := range repo.db.table {
		if !form.Date.Before(from) && !form.Date.After(to) {
			forms = append(forms, *form)
		}
	}
	sort.Slice(forms, func(i, j int) bool {
		if !forms[i].Date.Equal(forms[j].Date) {
			return forms[i].Date.Before(forms[j].Date)
		}
		return forms[i].EmployeeID < forms[j].EmployeeID
	})
	return forms, nil
}

func (repo *formRepository) UpdateForm(ctx context.Context, form attendance.DailyForm) (attendance.DailyForm, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[form.ID]; !ok {
		return attendance.DailyForm{}, attendance.ErrFormNotFound
	}
	repo.db.table[form.ID] = &form
	return form, nil
}
