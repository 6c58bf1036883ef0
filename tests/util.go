package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/tujenge/kazi/core/attendance"
	"github.com/tujenge/kazi/core/employee"
)

func CreateEmployee(
	t *testing.T,
	repo employee.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) employee.Employee {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	emp := employee.Employee{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  &isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := emp.SetPassword(pwd); err != nil {
			t.Fatalf("CreateEmployee() failed: %v", err)
		}
	}
	emp, err := repo.CreateEmployee(context.Background(), emp)
	if err != nil {
		t.Fatalf("CreateEmployee() failed: %v", err)
	}
	return emp
}

func CreateForm(
	t *testing.T,
	repo attendance.Repository,
	employeeID string,
	date time.Time,
	mutate ...func(*attendance.DailyForm),
) attendance.DailyForm {
	form := attendance.DailyForm{
		EmployeeID:    employeeID,
		Date:          attendance.NormalizeDate(date, time.UTC),
		StandardTasks: attendance.StandardCatalog(),
	}
	for _, fn := range mutate {
		fn(&form)
	}
	form, err := repo.CreateForm(context.Background(), form)
	if err != nil {
		t.Fatalf("CreateForm() failed: %v", err)
	}
	return form
}
