package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/tujenge/kazi/core/attendance"
)

func TestFormRepository(t *testing.T) {
	db, err := Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	repo := NewFormRepository(db)
	ctx := context.Background()

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	form, err := repo.CreateForm(ctx, attendance.DailyForm{EmployeeID: "e1", Date: date})
	if err != nil {
		t.Fatalf("CreateForm() failed: %v", err)
	}
	if form.ID == "" {
		t.Fatal("created form has no ID")
	}

	if _, err = repo.CreateForm(ctx, attendance.DailyForm{EmployeeID: "e1", Date: date}); err != attendance.ErrFormExists {
		t.Errorf("duplicate create error = %v, want ErrFormExists", err)
	}
	if _, err = repo.CreateForm(ctx, attendance.DailyForm{EmployeeID: "e1", Date: date.AddDate(0, 0, 1)}); err != nil {
		t.Errorf("next-day create failed: %v", err)
	}
	if _, err = repo.CreateForm(ctx, attendance.DailyForm{EmployeeID: "e2", Date: date}); err != nil {
		t.Errorf("same-day create for another employee failed: %v", err)
	}

	got, err := repo.GetFormByEmployeeAndDate(ctx, "e1", date)
	if err != nil {
		t.Fatalf("GetFormByEmployeeAndDate() failed: %v", err)
	}
	if got.ID != form.ID {
		t.Errorf("got form %s, want %s", got.ID, form.ID)
	}

	if _, err = repo.GetFormByID(ctx, "nope"); err != attendance.ErrFormNotFound {
		t.Errorf("missing form error = %v, want ErrFormNotFound", err)
	}

	forms, err := repo.QueryEmployeeForms(ctx, "e1", nil)
	if err != nil {
		t.Fatalf("QueryEmployeeForms() failed: %v", err)
	}
	if len(forms) != 2 || forms[0].Date.Before(forms[1].Date) {
		t.Errorf("forms = %d rows, want 2 newest first", len(forms))
	}

	inRange, err := repo.QueryFormsInRange(ctx, date, date)
	if err != nil {
		t.Fatalf("QueryFormsInRange() failed: %v", err)
	}
	if len(inRange) != 2 {
		t.Errorf("in-range forms = %d, want 2", len(inRange))
	}

	form.Score = 12
	if _, err = repo.UpdateForm(ctx, form); err != nil {
		t.Fatalf("UpdateForm() failed: %v", err)
	}
	got, _ = repo.GetFormByID(ctx, form.ID)
	if got.Score != 12 {
		t.Errorf("updated score = %d, want 12", got.Score)
	}

	if _, err = repo.UpdateForm(ctx, attendance.DailyForm{ID: "nope"}); err != attendance.ErrFormNotFound {
		t.Errorf("updating missing form error = %v, want ErrFormNotFound", err)
	}
}
