package employee

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/tujenge/kazi/core"
)

// Roles
const (
	RoleAdmin      = "admin:"
	RoleAdminOwner = "admin:owner"

	RoleEmployee = "employee:"
)

var (
	AdminRoles    = []string{RoleAdmin, RoleAdminOwner}
	EmployeeRoles = []string{RoleEmployee}
	AllRoles      = getAllRoles()

	rolePriorities = map[string]int{
		// Admins: 20 - 11
		RoleAdminOwner: 20,
		RoleAdmin:      11,

		// Employees: 10 - 1
		RoleEmployee: 1,
	}

	Roles = []Role{
		{Name: "Employee", Value: RoleEmployee},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Admin Owner", Value: RoleAdminOwner},
	}
)

func getAllRoles() []string {
	all := make([]string, 0, 3)
	all = append(all, AdminRoles...)
	all = append(all, EmployeeRoles...)
	return all
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Employee struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	IsActive     *bool     `json:"is_active"`
	Roles        []string  `json:"roles"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (e *Employee) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	e.PasswordHash = hash
	return nil
}

func (e *Employee) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(e.PasswordHash, []byte(pwd))
}

func (e *Employee) Active() bool {
	return e.IsActive == nil || *e.IsActive
}

func (e *Employee) RoleStartsWith(prefix string) bool {
	for _, role := range e.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (e *Employee) IsAdmin() bool {
	return e.RoleStartsWith(RoleAdmin)
}

func (e *Employee) IsEmployee() bool {
	return e.RoleStartsWith(RoleEmployee)
}

// NewEmployee contains information needed to register a new Employee.
type NewEmployee struct {
	Name            string   `json:"name" validate:"required"`
	Username        string   `json:"username" validate:"omitempty,min=4,alphanum_"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
}

func (ne *NewEmployee) Validate(validate *validator.Validate, svc Service) error {
	ne.Name = core.CleanString(ne.Name)
	ne.Username = core.CleanString(ne.Username, true /* lower */)
	ne.Email = core.CleanString(ne.Email, true /* lower */)

	if err := validate.Struct(ne); err != nil {
		return err
	}
	return svc.CheckUniqueness(ne.Username, ne.Email)
}

// UpdateEmployee defines what information may be provided to modify an existing Employee.
type UpdateEmployee struct {
	Name            string   `json:"name"`
	Username        string   `json:"username" validate:"omitempty,min=4,alphanum_"`
	Email           string   `json:"email" validate:"omitempty,email"`
	IsActive        *bool    `json:"is_active"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
	Password        string   `json:"password" validate:"omitempty"`
	PasswordConfirm string   `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (ue *UpdateEmployee) Validate(orig Employee, validate *validator.Validate, svc Service) error {
	if name := core.CleanString(ue.Name); name != "" {
		ue.Name = name
	} else {
		ue.Name = orig.Name
	}

	if uname := core.CleanString(ue.Username, true /* lower */); uname != "" {
		ue.Username = uname
	} else {
		ue.Username = orig.Username
	}

	if email := core.CleanString(ue.Email, true /* lower */); email != "" {
		ue.Email = email
	} else {
		ue.Email = orig.Email
	}

	if err := validate.Struct(ue); err != nil {
		return err
	}
	return svc.CheckUniqueness(ue.Username, ue.Email, orig)
}

type ResetEmployeePassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetEmployeePassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
