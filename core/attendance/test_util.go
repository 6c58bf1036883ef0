package attendance

import (
	"time"

	"github.com/tujenge/kazi/core"
	"github.com/tujenge/kazi/core/employee"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service whose side effects (emails) run
// synchronously and whose autosaver flushes near-instantly.
func NewServiceMock(repo Repository, roster employee.Service, mailSvc core.EmailService, conf *core.Config, logger core.Logger) Service {
	svc := &serviceMock{
		service: service{
			repo:    repo,
			roster:  roster,
			mailSvc: mailSvc,
			conf:    conf,
			logger:  logger,
		},
	}
	svc.saver = newAutosaver(svc.persistBuffered, 5*time.Millisecond, 20*time.Millisecond)
	svc.notify = svc.sendScoreNotice // run synchronously
	return svc
}
