package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/tujenge/kazi/core"
	"github.com/tujenge/kazi/core/employee"
)

type employeeRepository struct {
	db *employeeTable
}

var _ employee.Repository = (*employeeRepository)(nil) // interface compliance check

func NewEmployeeRepository(db *DB) *employeeRepository {
	return &employeeRepository{db: db.employee}
}

// query returns a copy of all rows; callers hold the lock.
func (repo *employeeRepository) query() []employee.Employee {
	employees := make([]employee.Employee, 0, len(repo.db.table))
	for _, emp := range repo.db.table {
		employees = append(employees, *emp)
	}
	sort.Slice(employees, func(i, j int) bool { return employees[i].CreatedAt.Before(employees[j].CreatedAt) })
	return employees
}

func isExcluded(emp employee.Employee, excluded []employee.Employee) bool {
	for _, excl := range excluded {
		if emp.ID == excl.ID {
			return true
		}
	}
	return false
}

func (repo *employeeRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excluded ...employee.Employee) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, emp := range repo.query() {
		if isExcluded(emp, excluded) {
			continue
		}
		if (username != "" && emp.Username == username) || (email != "" && emp.Email == email) {
			return employee.ErrEmployeeExists
		}
	}
	return nil
}

func (repo *employeeRepository) CreateEmployee(ctx context.Context, emp employee.Employee) (employee.Employee, error) {
	if err := repo.CheckUsernameUniqueness(ctx, emp.Username, emp.Email); err != nil {
		return employee.Employee{}, err
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	emp.ID = uuid.New().String()
	repo.db.table[emp.ID] = &emp
	return emp, nil
}

func matchesSearch(emp employee.Employee, search string) bool {
	search = strings.ToLower(search)
	for _, val := range []string{emp.Name, emp.Username, emp.Email} {
		if strings.Contains(strings.ToLower(val), search) {
			return true
		}
	}
	return false
}

func matchesRoles(emp employee.Employee, roles []string) bool {
	for _, role := range roles {
		if emp.RoleStartsWith(role) {
			return true
		}
	}
	return false
}

func (repo *employeeRepository) QueryEmployees(ctx context.Context, filter *employee.QueryFilter, ordering []core.DBOrdering) ([]employee.Employee, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	all := repo.query()
	if filter == nil || filter.IsEmpty() {
		return all, nil
	}

	employees := make([]employee.Employee, 0, len(all))
	for _, emp := range all {
		if filter.Search != "" && !matchesSearch(emp, filter.Search) {
			continue
		}
		if len(filter.Roles) > 0 && !matchesRoles(emp, filter.Roles) {
			continue
		}
		if filter.IsActive != nil && emp.Active() != *filter.IsActive {
			continue
		}
		if !filter.CreatedFrom.IsZero() && emp.CreatedAt.Before(filter.CreatedFrom) {
			continue
		}
		if !filter.CreatedTo.IsZero() && emp.CreatedAt.After(filter.CreatedTo) {
			continue
		}
		employees = append(employees, emp)
	}
	return employees, nil
}

func (repo *employeeRepository) GetEmployeeByID(ctx context.Context, id string) (employee.Employee, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if emp, ok := repo.db.table[id]; ok {
		return *emp, nil
	}
	return employee.Employee{}, employee.ErrNotFound
}

func (repo *employeeRepository) GetEmployeeByUsername(ctx context.Context, username string) (employee.Employee, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, emp := range repo.query() {
		if emp.Username == username {
			return emp, nil
		}
	}
	return employee.Employee{}, employee.ErrNotFound
}

func (repo *employeeRepository) GetEmployeeByEmail(ctx context.Context, email string) (employee.Employee, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, emp := range repo.query() {
		if emp.Email == email {
			return emp, nil
		}
	}
	return employee.Employee{}, employee.ErrNotFound
}

func (repo *employeeRepository) GetEmployeeByUsernameOrEmail(ctx context.Context, username string) (employee.Employee, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, emp := range repo.query() {
		if emp.Username == username || emp.Email == username {
			return emp, nil
		}
	}
	return employee.Employee{}, employee.ErrNotFound
}

func (repo *employeeRepository) UpdateEmployee(ctx context.Context, emp employee.Employee, isActive *bool) (employee.Employee, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	existing, ok := repo.db.table[emp.ID]
	if !ok {
		return employee.Employee{}, employee.ErrNotFound
	}

	if emp.Name != "" {
		existing.Name = emp.Name
	}
	if emp.Username != "" {
		existing.Username = emp.Username
	}
	if emp.Email != "" {
		existing.Email = emp.Email
	}
	if len(emp.Roles) > 0 {
		existing.Roles = emp.Roles
	}
	if len(emp.PasswordHash) > 0 {
		existing.PasswordHash = emp.PasswordHash
	}
	if !emp.LastLogin.IsZero() {
		existing.LastLogin = emp.LastLogin
	}
	if !emp.UpdatedAt.IsZero() {
		existing.UpdatedAt = emp.UpdatedAt
	}
	if isActive != nil {
		existing.IsActive = isActive
	}
	return *existing, nil
}

func (repo *employeeRepository) DeleteEmployeesByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
