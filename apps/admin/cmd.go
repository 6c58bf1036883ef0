package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/tujenge/kazi/core/employee"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sqlx.DB
	empRepo employee.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  addemployee -name NAME -username USERNAME -email EMAIL [-admin] - create or update an employee")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset employee's password")
	fmt.Println("  migrate COMMAND [args] - run database migrations (up, down, status, ...)")
}

func (cli *commandLine) promptPassword(usage func()) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addEmployeeCmd := flag.NewFlagSet("addemployee", flag.ExitOnError)
	addEmployeeName := addEmployeeCmd.String("name", "", "The employee's full name.")
	addEmployeeUname := addEmployeeCmd.String("username", "", "The employee's username.")
	addEmployeeEmail := addEmployeeCmd.String("email", "", "The employee's email.")
	addEmployeeAdmin := addEmployeeCmd.Bool("admin", false, "Grant all admin roles.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The employee's username or email. The password will be prompted next.")

	switch args[1] {
	case "addemployee":
		if err := addEmployeeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addEmployeeUname == "" && *addEmployeeEmail == "" {
			addEmployeeCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(addEmployeeCmd.Usage)
		if err != nil {
			return err
		}
		return cli.addEmployee(*addEmployeeName, *addEmployeeUname, *addEmployeeEmail, pwd, *addEmployeeAdmin)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(resetPasswordCmd.Usage)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}
