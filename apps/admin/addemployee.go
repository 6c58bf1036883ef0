package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tujenge/kazi/core"
	"github.com/tujenge/kazi/core/employee"
)

// addEmployee updates or creates an employee.Employee.
func (cli *commandLine) addEmployee(name, uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	var create bool
	emp, err := cli.getEmployee(ctx, uname, email)
	if err != nil {
		if errors.Cause(err) != employee.ErrNotFound {
			return err
		}
		create = true
		emp = employee.Employee{
			Username: uname,
			Email:    email,
		}
	}

	if name != "" {
		emp.Name = core.CleanString(name)
	}
	if isAdmin {
		emp.Roles = employee.AllRoles
	} else if len(emp.Roles) == 0 {
		emp.Roles = employee.EmployeeRoles
	}
	if err = emp.SetPassword(pwd); err != nil {
		return err
	}

	isActive := true
	if create {
		emp.IsActive = &isActive
		_, err = cli.empRepo.CreateEmployee(ctx, emp)
		return err
	}
	_, err = cli.empRepo.UpdateEmployee(ctx, emp, &isActive)
	return err
}

func (cli *commandLine) getEmployee(ctx context.Context, uname, email string) (employee.Employee, error) {
	if uname != "" {
		if emp, err := cli.empRepo.GetEmployeeByUsername(ctx, uname); err == nil {
			return emp, nil
		} else if errors.Cause(err) != employee.ErrNotFound {
			return employee.Employee{}, err
		}
	}
	if email != "" {
		return cli.empRepo.GetEmployeeByEmail(ctx, email)
	}
	return employee.Employee{}, employee.ErrNotFound
}
