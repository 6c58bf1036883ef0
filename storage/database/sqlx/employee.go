package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tujenge/kazi/core"
	"github.com/tujenge/kazi/core/employee"
)

type employeeRow struct {
	ID           string         `db:"id"`
	Name         null.String    `db:"name"`
	Username     null.String    `db:"username"`
	Email        null.String    `db:"email"`
	IsActive     null.Bool      `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash null.Bytes     `db:"password_hash"`
	CreatedAt    null.Time      `db:"created_at"`
	UpdatedAt    null.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func (r employeeRow) unpack() employee.Employee {
	return employee.Employee{
		ID:           r.ID,
		Name:         r.Name.String,
		Username:     r.Username.String,
		Email:        r.Email.String,
		IsActive:     r.IsActive.Ptr(),
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash.Bytes,
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
		LastLogin:    r.LastLogin.Time,
	}
}

func packEmployee(emp employee.Employee) employeeRow {
	return employeeRow{
		ID:           emp.ID,
		Name:         null.NewString(emp.Name, emp.Name != ""),
		Username:     null.NewString(emp.Username, emp.Username != ""),
		Email:        null.NewString(emp.Email, emp.Email != ""),
		IsActive:     null.BoolFromPtr(emp.IsActive),
		Roles:        emp.Roles,
		PasswordHash: null.BytesFrom(emp.PasswordHash),
		CreatedAt:    null.NewTime(emp.CreatedAt.UTC(), !emp.CreatedAt.IsZero()),
		UpdatedAt:    null.NewTime(emp.UpdatedAt.UTC(), !emp.UpdatedAt.IsZero()),
		LastLogin:    null.NewTime(emp.LastLogin.UTC(), !emp.LastLogin.IsZero()),
	}
}

type employeeRepository struct {
	db *sqlx.DB
}

var _ employee.Repository = (*employeeRepository)(nil) // interface compliance check

func NewEmployeeRepository(db *sqlx.DB) *employeeRepository {
	return &employeeRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to employee.ErrNotFound
func (repo employeeRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return employee.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo employeeRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excluded ...employee.Employee) error {
	q := `SELECT EXISTS (SELECT 1 FROM "employee" WHERE (username = $1 OR email = $2)`
	args := []interface{}{username, email}
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, emp := range excluded {
			ids = append(ids, emp.ID)
		}
		q += " AND id != ALL($3)"
		args = append(args, pq.Array(ids))
	}
	q += ")"

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking employee uniqueness")
	}
	if exists {
		return employee.ErrEmployeeExists
	}
	return nil
}

func (repo employeeRepository) CreateEmployee(ctx context.Context, emp employee.Employee) (employee.Employee, error) {
	emp.ID = uuid.New().String()
	row := packEmployee(emp)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO "employee" (id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login)
		VALUES (:id, :name, :username, :email, :is_active, :roles, :password_hash, :created_at, :updated_at, :last_login)`,
		row)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return employee.Employee{}, employee.ErrEmployeeExists
		}
		return employee.Employee{}, errors.Wrap(err, "inserting employee")
	}
	return row.unpack(), nil
}

func (repo employeeRepository) QueryEmployees(ctx context.Context, filter *employee.QueryFilter, ordering []core.DBOrdering) ([]employee.Employee, error) {
	q := `SELECT * FROM "employee"`
	var where []string
	var args []interface{}
	arg := func(val interface{}) string {
		args = append(args, val)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			p := arg(val)
			where = append(where, fmt.Sprintf("(name ILIKE %s OR username ILIKE %s OR email ILIKE %s)", p, p, p))
		}
		// employees with any role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			roleOrs := make([]string, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				roleOrs = append(roleOrs, fmt.Sprintf(
					`id IN (SELECT id FROM "employee", UNNEST(roles) employee_role WHERE employee_role ILIKE %s)`,
					arg(role+"%")))
			}
			where = append(where, "("+strings.Join(roleOrs, " OR ")+")")
		}
		if filter.IsActive != nil {
			where = append(where, fmt.Sprintf("is_active = %s", arg(*filter.IsActive)))
		}
		if !filter.CreatedFrom.IsZero() {
			where = append(where, fmt.Sprintf("created_at >= %s", arg(filter.CreatedFrom.UTC())))
		}
		if !filter.CreatedTo.IsZero() {
			where = append(where, fmt.Sprintf("created_at <= %s", arg(filter.CreatedTo.UTC())))
		}
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}

	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		q += " ORDER BY " + strings.Join(orderList, ", ")
	} else {
		q += " ORDER BY created_at"
	}

	var rows []employeeRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying employees")
	}
	employees := make([]employee.Employee, 0, len(rows))
	for _, row := range rows {
		employees = append(employees, row.unpack())
	}
	return employees, nil
}

func (repo employeeRepository) getEmployee(ctx context.Context, where string, args ...interface{}) (employee.Employee, error) {
	var row employeeRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM "employee" WHERE `+where, args...); err != nil {
		return employee.Employee{}, repo.trapNoRowsErr(err, "finding employee")
	}
	return row.unpack(), nil
}

func (repo employeeRepository) GetEmployeeByID(ctx context.Context, id string) (employee.Employee, error) {
	if _, err := uuid.Parse(id); err != nil {
		return employee.Employee{}, employee.ErrNotFound
	}
	return repo.getEmployee(ctx, "id = $1", id)
}

func (repo employeeRepository) GetEmployeeByUsername(ctx context.Context, username string) (employee.Employee, error) {
	return repo.getEmployee(ctx, "username = $1", username)
}

func (repo employeeRepository) GetEmployeeByEmail(ctx context.Context, email string) (employee.Employee, error) {
	return repo.getEmployee(ctx, "email = $1", email)
}

func (repo employeeRepository) GetEmployeeByUsernameOrEmail(ctx context.Context, username string) (employee.Employee, error) {
	return repo.getEmployee(ctx, "username = $1 OR email = $1", username)
}

// UpdateEmployee merges the non-zero fields of emp into the stored row.
// isActive is applied separately so an explicit deactivation is not mistaken
// for "unchanged".
func (repo employeeRepository) UpdateEmployee(ctx context.Context, emp employee.Employee, isActive *bool) (employee.Employee, error) {
	existing, err := repo.GetEmployeeByID(ctx, emp.ID)
	if err != nil {
		return employee.Employee{}, err
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

	row := packEmployee(existing)
	_, err = repo.db.NamedExecContext(ctx, `
		UPDATE "employee"
		SET name = :name, username = :username, email = :email, is_active = :is_active,
		    roles = :roles, password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`,
		row)
	if err != nil {
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return employee.Employee{}, employee.ErrEmployeeExists
		}
		return employee.Employee{}, errors.Wrap(err, "updating employee")
	}
	return existing, nil
}

func (repo employeeRepository) DeleteEmployeesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM "employee" WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting employees")
	}
	return nil
}
