package inmemdb

import (
	"sync"

	"github.com/tujenge/kazi/core/attendance"
	"github.com/tujenge/kazi/core/employee"
)

type (
	// DB is a map-backed database for tests and local hacking; repositories
	// share its per-table locks.
	DB struct {
		employee *employeeTable
		form     *formTable
	}

	employeeTable struct {
		table map[string]*employee.Employee
		mutex sync.RWMutex
	}

	formTable struct {
		table map[string]*attendance.DailyForm
		mutex sync.RWMutex
	}
)

func Open() (*DB, error) {
	db := &DB{
		employee: &employeeTable{table: make(map[string]*employee.Employee)},
		form:     &formTable{table: make(map[string]*attendance.DailyForm)},
	}
	return db, nil
}
