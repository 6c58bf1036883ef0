package employee

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/tujenge/kazi/core"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("employee not found")
	ErrEmployeeExists = core.NewConflictError("an employee with this username or email already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excluded ...Employee) error
		CreateEmployee(ctx context.Context, emp Employee) (Employee, error)
		// QueryEmployees applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Name, Username or Email.
		QueryEmployees(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Employee, error)
		GetEmployeeByID(ctx context.Context, id string) (Employee, error)
		GetEmployeeByUsername(ctx context.Context, username string) (Employee, error)
		GetEmployeeByEmail(ctx context.Context, email string) (Employee, error)
		GetEmployeeByUsernameOrEmail(ctx context.Context, username string) (Employee, error)
		UpdateEmployee(ctx context.Context, emp Employee, isActive *bool) (Employee, error)
		DeleteEmployeesByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		CheckUniqueness(uname, email string, excl ...Employee) error
		Create(ne NewEmployee) (Employee, error)
		Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Employee, error)
		ActiveEmployees() ([]Employee, error)
		GetByID(id string) (Employee, error)
		GetByUsername(uname string) (Employee, error)
		GetByEmail(email string) (Employee, error)
		GetByUsernameOrEmail(uname string) (Employee, error)
		SetLastLogin(emp Employee) (Employee, error)
		Update(id string, ue UpdateEmployee) (Employee, error)
		Delete(ids ...string) error
		RequestPasswordReset(email string) error
		ResetPassword(rp ResetEmployeePassword) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *service) CheckUniqueness(uname, email string, excl ...Employee) error {
	if err := svc.repo.CheckUsernameUniqueness(context.Background(), uname, email, excl...); err != nil {
		if errors.Cause(err) == ErrEmployeeExists {
			return core.NewValidationError(err,
				core.FieldError{Field: "username", Error: err.Error()},
				core.FieldError{Field: "email", Error: err.Error()},
			)
		}
		return err
	}
	return nil
}

func (svc *service) Create(ne NewEmployee) (Employee, error) {
	now := time.Now().UTC()
	active := true
	emp := Employee{
		Name:      ne.Name,
		Username:  ne.Username,
		Email:     ne.Email,
		IsActive:  &active,
		Roles:     ne.Roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(emp.Roles) == 0 {
		emp.Roles = []string{RoleEmployee}
	}
	if err := emp.SetPassword(ne.Password); err != nil {
		return Employee{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateEmployee(context.Background(), emp)
}

func (svc *service) Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Employee, error) {
	return svc.repo.QueryEmployees(context.Background(), filter, ordering)
}

// ActiveEmployees returns the full active roster; the leaderboard
// aggregator zero-fills from it.
func (svc *service) ActiveEmployees() ([]Employee, error) {
	active := true
	return svc.repo.QueryEmployees(context.Background(), &QueryFilter{IsActive: &active}, nil)
}

func (svc *service) GetByID(id string) (Employee, error) {
	return svc.repo.GetEmployeeByID(context.Background(), id)
}

func (svc *service) GetByUsername(uname string) (Employee, error) {
	return svc.repo.GetEmployeeByUsername(context.Background(), core.CleanString(uname, true /* lower */))
}

func (svc *service) GetByEmail(email string) (Employee, error) {
	return svc.repo.GetEmployeeByEmail(context.Background(), core.CleanString(email, true /* lower */))
}

func (svc *service) GetByUsernameOrEmail(uname string) (Employee, error) {
	return svc.repo.GetEmployeeByUsernameOrEmail(context.Background(), core.CleanString(uname, true /* lower */))
}

func (svc *service) SetLastLogin(emp Employee) (Employee, error) {
	emp.LastLogin = time.Now().UTC()
	emp.UpdatedAt = emp.LastLogin
	return svc.repo.UpdateEmployee(context.Background(), emp, nil)
}

func (svc *service) Update(id string, ue UpdateEmployee) (Employee, error) {
	emp := Employee{
		ID:        id,
		Name:      ue.Name,
		Username:  ue.Username,
		Email:     ue.Email,
		Roles:     ue.Roles,
		UpdatedAt: time.Now().UTC(),
	}
	if ue.Password != "" {
		if err := emp.SetPassword(ue.Password); err != nil {
			return Employee{}, errors.Wrap(err, "setting password")
		}
	}
	return svc.repo.UpdateEmployee(context.Background(), emp, ue.IsActive)
}

func (svc *service) Delete(ids ...string) error {
	return svc.repo.DeleteEmployeesByID(context.Background(), ids...)
}

func (svc *service) RequestPasswordReset(email string) error {
	emp, err := svc.GetByEmail(email)
	if err != nil {
		return err
	}
	go svc.sendPasswordResetMail(emp)
	return nil
}

func (svc *service) sendPasswordResetMail(emp Employee) {
	token, err := MakeToken(emp, svc.conf)
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: emp.Name, Address: emp.Email}},
		Subject:      fmt.Sprintf("Password reset on %s", svc.conf.AppName),
		TemplateName: "password-reset",
		TemplateData: struct {
			Name  string
			UID   string
			Token string
		}{emp.Name, EncodeUID(emp), token},
	})
}

func (svc *service) ResetPassword(rp ResetEmployeePassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	emp, err := svc.GetByID(id)
	if err != nil {
		return err
	}
	if err = verifyToken(emp, rp.Token, svc.conf); err != nil {
		return core.NewValidationError(err)
	}
	if err = emp.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	emp.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateEmployee(context.Background(), emp, nil)
	return err
}
