package attendance

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tujenge/kazi/core"
	"github.com/tujenge/kazi/core/employee"
)

type (
	Repository interface {
		// CreateForm inserts a new form; ErrFormExists when the
		// (employee, date) row already exists.
		CreateForm(ctx context.Context, form DailyForm) (DailyForm, error)
		GetFormByID(ctx context.Context, id string) (DailyForm, error)
		GetFormByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (DailyForm, error)
		// QueryEmployeeForms returns the employee's forms, newest first by default.
		QueryEmployeeForms(ctx context.Context, employeeID string, ordering []core.DBOrdering) ([]DailyForm, error)
		// QueryFormsInRange returns all forms with from <= date <= to.
		QueryFormsInRange(ctx context.Context, from, to time.Time) ([]DailyForm, error)
		UpdateForm(ctx context.Context, form DailyForm) (DailyForm, error)
	}

	Service interface {
		GetOrCreateTodayForm(employeeID string) (DailyForm, error)
		SaveTodayForm(employeeID string, edits FormEdits) (DailyForm, error)
		SubmitTodayForm(employeeID string, edits FormEdits) (DailyForm, error)
		ListEmployeeForms(employeeID string) ([]DailyForm, error)
		GetForm(formID string) (DailyForm, error)
		UpdateForm(formID string, edits AdminEdits, adminID string) (DailyForm, error)
		ConfirmForm(formID, adminID string) (DailyForm, error)
		CreateOrMergeCustom(employeeID string, date time.Time, tasks []NewCustomTask, tags []NewCustomTag, adminID string) (DailyForm, error)
		Leaderboard(filter LeaderboardFilter) (Leaderboard, error)
		SelfStats(employeeID string, filter StatsFilter) (Stats, error)
		// Flush drains buffered employee edits; called on shutdown.
		Flush()
	}

	service struct {
		repo    Repository
		roster  employee.Service
		mailSvc core.EmailService
		conf    *core.Config
		logger  core.Logger
		saver   *autosaver
		notify  func(DailyForm)
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, roster employee.Service, mailSvc core.EmailService, conf *core.Config, logger core.Logger) Service {
	svc := &service{
		repo:    repo,
		roster:  roster,
		mailSvc: mailSvc,
		conf:    conf,
		logger:  logger,
	}
	svc.saver = newAutosaver(svc.persistBuffered, defaultQuietDelay, defaultMaxDelay)
	svc.notify = func(form DailyForm) { go svc.sendScoreNotice(form) }
	return svc
}

// today returns the current calendar day in the org timezone.
func (svc *service) today() time.Time {
	return NormalizeDate(NowFunc(), svc.conf.Location())
}

func formKey(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format(dateLayout)
}

// persistBuffered writes a debounced form; flush errors are logged, the next
// successful save wins.
func (svc *service) persistBuffered(form DailyForm) {
	if _, err := svc.repo.UpdateForm(context.Background(), form); err != nil {
		svc.logger.Error(fmt.Sprintf("flushing buffered form %s: %v", form.ID, err), err)
	}
}

// getOrCreate returns the (employee, date) form, seeding a new one from the
// standard catalog on first access. A uniqueness conflict from a concurrent
// first access is treated as "fetch the winner's row", never surfaced.
func (svc *service) getOrCreate(ctx context.Context, employeeID string, date time.Time) (DailyForm, error) {
	form, err := svc.repo.GetFormByEmployeeAndDate(ctx, employeeID, date)
	if err == nil {
		Reconcile(&form)
		return form, nil
	}
	if errors.Cause(err) != ErrFormNotFound {
		return DailyForm{}, errors.Wrap(err, "finding daily form")
	}

	now := time.Now().UTC()
	form = DailyForm{
		EmployeeID:    employeeID,
		Date:          date,
		StandardTasks: StandardCatalog(),
		CustomTasks:   []TaskEntry{},
		CustomTags:    []TagEntry{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	created, err := svc.repo.CreateForm(ctx, form)
	if err != nil {
		if errors.Cause(err) == ErrFormExists {
			// lost the first-access race; the winner's row is the form
			form, err = svc.repo.GetFormByEmployeeAndDate(ctx, employeeID, date)
			if err != nil {
				return DailyForm{}, errors.Wrap(err, "re-fetching daily form")
			}
			Reconcile(&form)
			return form, nil
		}
		return DailyForm{}, errors.Wrap(err, "creating daily form")
	}
	return created, nil
}

// currentTodayForm prefers the buffered (freshest) copy over storage.
func (svc *service) currentTodayForm(employeeID string) (DailyForm, error) {
	today := svc.today()
	if form, ok := svc.saver.get(formKey(employeeID, today)); ok {
		return form, nil
	}
	return svc.getOrCreate(context.Background(), employeeID, today)
}

func (svc *service) GetOrCreateTodayForm(employeeID string) (DailyForm, error) {
	return svc.currentTodayForm(employeeID)
}

// applyEmployeeEdits mutates the form with the employee's edits and
// recomputes all derived fields.
func applyEmployeeEdits(form *DailyForm, edits FormEdits, employeeID string, now time.Time) {
	if edits.EntryTime != nil {
		form.EntryTime = edits.EntryTime
	}
	if edits.ExitTime != nil {
		form.ExitTime = edits.ExitTime
	}
	if edits.HoursAttended != nil {
		form.HoursAttended = *edits.HoursAttended
	}
	if edits.Screensharing != nil {
		form.Screensharing = *edits.Screensharing
	}
	for id, checked := range edits.Checked {
		setEmployeeChecked(form, id, checked)
	}
	if form.AdminConfirmed {
		// inputs of a confirmed day changed; back to pending reconfirmation
		invalidateScore(form)
	}
	deriveHours(form)
	Reconcile(form)
	form.LastEditedBy = employeeID
	form.LastEditedAt = &now
	form.UpdatedAt = now
}

func setEmployeeChecked(form *DailyForm, id string, checked bool) {
	for i := range form.StandardTasks {
		if form.StandardTasks[i].ID == id {
			form.StandardTasks[i].EmployeeChecked = checked
			return
		}
	}
	for i := range form.CustomTasks {
		if form.CustomTasks[i].ID == id {
			form.CustomTasks[i].EmployeeChecked = checked
			return
		}
	}
	for i := range form.CustomTags {
		if form.CustomTags[i].ID == id {
			form.CustomTags[i].EmployeeChecked = checked
			return
		}
	}
}

func setAdminChecked(form *DailyForm, id string, checked bool) {
	for i := range form.StandardTasks {
		if form.StandardTasks[i].ID == id {
			form.StandardTasks[i].AdminChecked = checked
			return
		}
	}
	for i := range form.CustomTasks {
		if form.CustomTasks[i].ID == id {
			form.CustomTasks[i].AdminChecked = checked
			return
		}
	}
	for i := range form.CustomTags {
		if form.CustomTags[i].ID == id {
			form.CustomTags[i].AdminChecked = checked
			return
		}
	}
}

// SaveTodayForm buffers an employee edit; writes are debounced to bound the
// write rate under rapid UI interaction.
func (svc *service) SaveTodayForm(employeeID string, edits FormEdits) (DailyForm, error) {
	form, err := svc.currentTodayForm(employeeID)
	if err != nil {
		return DailyForm{}, err
	}

	today := svc.today()
	if !form.CanEmployeeEdit(today) {
		return DailyForm{}, ErrFormReadOnly
	}

	applyEmployeeEdits(&form, edits, employeeID, time.Now().UTC())
	svc.saver.put(formKey(employeeID, today), form)
	return form, nil
}

// SubmitTodayForm applies any final edits then flips the once-only submitted
// flag. A second submit is a Conflict; SubmittedAt is left untouched.
func (svc *service) SubmitTodayForm(employeeID string, edits FormEdits) (DailyForm, error) {
	form, err := svc.currentTodayForm(employeeID)
	if err != nil {
		return DailyForm{}, err
	}
	if form.Submitted {
		return DailyForm{}, ErrAlreadySubmitted
	}

	today := svc.today()
	if !form.CanEmployeeEdit(today) {
		return DailyForm{}, ErrFormReadOnly
	}

	now := time.Now().UTC()
	applyEmployeeEdits(&form, edits, employeeID, now)
	form.Submitted = true
	form.SubmittedAt = &now

	svc.saver.discard(formKey(employeeID, today))
	updated, err := svc.repo.UpdateForm(context.Background(), form)
	if err != nil {
		return DailyForm{}, errors.Wrap(err, "submitting daily form")
	}
	return updated, nil
}

func (svc *service) ListEmployeeForms(employeeID string) ([]DailyForm, error) {
	forms, err := svc.repo.QueryEmployeeForms(context.Background(), employeeID, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying daily forms")
	}
	for i := range forms {
		Reconcile(&forms[i])
	}
	return forms, nil
}

func (svc *service) GetForm(formID string) (DailyForm, error) {
	form, err := svc.repo.GetFormByID(context.Background(), formID)
	if err != nil {
		return DailyForm{}, err
	}
	Reconcile(&form)
	return form, nil
}

// UpdateForm applies admin edits to any form, past or present. An edit to an
// already-confirmed form recomputes score & bonus as part of the same write.
func (svc *service) UpdateForm(formID string, edits AdminEdits, adminID string) (DailyForm, error) {
	form, err := svc.repo.GetFormByID(context.Background(), formID)
	if err != nil {
		return DailyForm{}, err
	}
	svc.saver.flushKey(formKey(form.EmployeeID, form.Date))

	wasConfirmed := form.AdminConfirmed
	now := time.Now().UTC()

	if edits.EntryTime != nil {
		form.EntryTime = edits.EntryTime
	}
	if edits.ExitTime != nil {
		form.ExitTime = edits.ExitTime
	}
	if edits.HoursAttended != nil {
		form.HoursAttended = *edits.HoursAttended
	}
	if edits.Screensharing != nil {
		form.Screensharing = *edits.Screensharing
	}
	for id, checked := range edits.Checked {
		setAdminChecked(&form, id, checked)
	}
	if edits.AdminNotes != nil {
		form.AdminNotes = *edits.AdminNotes
	}
	mergeCustom(&form, edits.CustomTasks, edits.CustomTags, adminID)

	deriveHours(&form)
	Reconcile(&form)

	if wasConfirmed {
		// confirmed rows stay valid: recompute within the same write
		score, bonus := ComputeScore(&form)
		form.Score = score
		form.DailyBonus = bonus
		form.ScoreCalculatedAt = &now
	} else {
		form.Score = 0
		form.DailyBonus = 0
	}

	form.LastEditedBy = adminID
	form.LastEditedAt = &now
	form.UpdatedAt = now

	updated, err := svc.repo.UpdateForm(context.Background(), form)
	if err != nil {
		return DailyForm{}, errors.Wrap(err, "updating daily form")
	}
	return updated, nil
}

// ConfirmForm is the single transition handler that freezes a day:
// reconciliation, scoring and timestamping happen together, never as
// separately invokable steps.
func (svc *service) ConfirmForm(formID, adminID string) (DailyForm, error) {
	form, err := svc.repo.GetFormByID(context.Background(), formID)
	if err != nil {
		return DailyForm{}, err
	}
	svc.saver.flushKey(formKey(form.EmployeeID, form.Date))

	today := svc.today()
	if !form.Submitted && !form.Date.Before(today) {
		// a same-day form must be submitted first; past days may be
		// confirmed on the employee's behalf
		return DailyForm{}, ErrNotSubmitted
	}

	now := time.Now().UTC()
	deriveHours(&form)
	Reconcile(&form)
	score, bonus := ComputeScore(&form)
	form.Score = score
	form.DailyBonus = bonus
	form.AdminConfirmed = true
	form.AdminConfirmedAt = &now
	form.ScoreCalculatedAt = &now
	form.LastEditedBy = adminID
	form.LastEditedAt = &now
	form.UpdatedAt = now

	updated, err := svc.repo.UpdateForm(context.Background(), form)
	if err != nil {
		return DailyForm{}, errors.Wrap(err, "confirming daily form")
	}

	svc.notify(updated)
	return updated, nil
}

func (svc *service) sendScoreNotice(form DailyForm) {
	emp, err := svc.roster.GetByID(form.EmployeeID)
	if err != nil || emp.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: emp.Name, Address: emp.Email}},
		Subject:      fmt.Sprintf("Your %s score for %s", svc.conf.AppName, form.DateString()),
		TemplateName: "score-notice",
		TemplateData: struct {
			Name  string
			Date  string
			Score int
			Bonus int
		}{emp.Name, form.DateString(), form.Score, form.DailyBonus},
	})
}

func mergeCustom(form *DailyForm, tasks []NewCustomTask, tags []NewCustomTag, adminID string) {
	for _, t := range tasks {
		form.CustomTasks = append(form.CustomTasks, TaskEntry{
			ID:        uuid.New().String(),
			Label:     core.CleanString(t.Label),
			Category:  core.CleanString(t.Category),
			Frequency: core.CleanString(t.Frequency),
			CreatedBy: adminID,
		})
	}
	for _, t := range tags {
		form.CustomTags = append(form.CustomTags, TagEntry{
			TaskEntry: TaskEntry{
				ID:        uuid.New().String(),
				Label:     core.CleanString(t.Label),
				CreatedBy: adminID,
			},
			Color: core.CleanString(t.Color, true /* lower */),
		})
	}
}

// CreateOrMergeCustom finds or creates the (employee, date) form and appends
// the supplied custom items, preserving any pre-existing ones.
func (svc *service) CreateOrMergeCustom(employeeID string, date time.Time, tasks []NewCustomTask, tags []NewCustomTag, adminID string) (DailyForm, error) {
	if _, err := svc.roster.GetByID(employeeID); err != nil {
		return DailyForm{}, err
	}

	date = NormalizeDate(date, svc.conf.Location())
	svc.saver.flushKey(formKey(employeeID, date))

	form, err := svc.getOrCreate(context.Background(), employeeID, date)
	if err != nil {
		return DailyForm{}, err
	}

	now := time.Now().UTC()
	mergeCustom(&form, tasks, tags, adminID)
	Reconcile(&form)
	form.LastEditedBy = adminID
	form.LastEditedAt = &now
	form.UpdatedAt = now

	updated, err := svc.repo.UpdateForm(context.Background(), form)
	if err != nil {
		return DailyForm{}, errors.Wrap(err, "merging custom items")
	}
	return updated, nil
}

func (svc *service) Flush() {
	svc.saver.flushAll()
}
