package main

import (
	"context"

	"github.com/tujenge/kazi/core"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	emp, err := cli.empRepo.GetEmployeeByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
	if err != nil {
		return err
	}
	if err := emp.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.empRepo.UpdateEmployee(ctx, emp, nil); err != nil {
		return err
	}
	return nil
}
