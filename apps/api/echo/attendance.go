package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tujenge/kazi/core"
	"github.com/tujenge/kazi/core/attendance"
	"github.com/tujenge/kazi/core/employee"
)

type attendanceApi struct {
	svc      attendance.Service
	empSvc   employee.Service
	validate *validator.Validate
	conf     *core.Config
}

func registerAttendanceAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc attendance.Service,
	empSvc employee.Service,
	validate *validator.Validate,
	conf *core.Config,
) {
	api := attendanceApi{
		svc:      svc,
		empSvc:   empSvc,
		validate: validate,
		conf:     conf,
	}

	ag := g.Group("/attendance", jwt)

	// employee endpoints
	ag.GET("/today", api.today)
	ag.PATCH("/today", api.saveToday)
	ag.POST("/today/submit", api.submitToday)
	ag.GET("/stats", api.stats)
	ag.GET("/forms", api.listForms)
	ag.GET("/leaderboard", api.leaderboard)

	// admin endpoints
	ag.GET("/forms/:id", api.retrieve, adminMiddleware())
	ag.PUT("/forms/:id", api.update, adminMiddleware())
	ag.POST("/forms/:id/confirm", api.confirm, adminMiddleware())
	ag.POST("/custom", api.addCustom, adminMiddleware())
	ag.GET("/leaderboard/export", api.exportLeaderboard, adminMiddleware())
}

// FormResponse decorates a form with its derived edit-window state so clients
// never re-implement the transition rules.
type FormResponse struct {
	attendance.DailyForm
	State attendance.FormState `json:"state"`
}

func (api *attendanceApi) formResponse(form attendance.DailyForm) FormResponse {
	today := attendance.NormalizeDate(attendance.NowFunc(), api.conf.Location())
	return FormResponse{DailyForm: form, State: form.StateAt(today)}
}

// Handlers

func (api *attendanceApi) today(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	form, err := api.svc.GetOrCreateTodayForm(claims.Subject)
	if err != nil {
		return errors.Wrap(err, "getting today's form")
	}
	return ctx.JSON(http.StatusOK, api.formResponse(form))
}

func (api *attendanceApi) saveToday(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data attendance.FormEdits
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FormEdits")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	form, err := api.svc.SaveTodayForm(claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.formResponse(form))
}

func (api *attendanceApi) submitToday(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data attendance.FormEdits
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FormEdits")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	form, err := api.svc.SubmitTodayForm(claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.formResponse(form))
}

func (api *attendanceApi) stats(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var filter attendance.StatsFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to StatsFilter")
	}

	stats, err := api.svc.SelfStats(claims.Subject, filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

// listForms returns the caller's own forms; admins may pass ?employee= to
// list another employee's.
func (api *attendanceApi) listForms(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	employeeID := claims.Subject
	if target := core.CleanString(ctx.QueryParam("employee")); target != "" && target != employeeID {
		if !claims.IsAdmin {
			return errHttpForbidden
		}
		employeeID = target
	}

	forms, err := api.svc.ListEmployeeForms(employeeID)
	if err != nil {
		return errors.Wrap(err, "listing forms")
	}
	resp := make([]FormResponse, 0, len(forms))
	for _, form := range forms {
		resp = append(resp, api.formResponse(form))
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *attendanceApi) retrieve(ctx echo.Context) error {
	form, err := api.svc.GetForm(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.formResponse(form))
}

func (api *attendanceApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data attendance.AdminEdits
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AdminEdits")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	form, err := api.svc.UpdateForm(ctx.Param("id"), data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.formResponse(form))
}

func (api *attendanceApi) confirm(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	form, err := api.svc.ConfirmForm(ctx.Param("id"), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.formResponse(form))
}

type CustomItemsRequest struct {
	EmployeeID string                     `json:"employee_id" validate:"required"`
	Date       string                     `json:"date" validate:"required"`
	Tasks      []attendance.NewCustomTask `json:"tasks" validate:"omitempty,dive"`
	Tags       []attendance.NewCustomTag  `json:"tags" validate:"omitempty,dive"`
}

func (cr *CustomItemsRequest) Validate(validate *validator.Validate) error {
	cr.EmployeeID = core.CleanString(cr.EmployeeID)
	cr.Date = core.CleanString(cr.Date)
	return validate.Struct(cr)
}

func (api *attendanceApi) addCustom(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data CustomItemsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CustomItemsRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	date, err := time.ParseInLocation("2006-01-02", data.Date, api.conf.Location())
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "date", Error: "date must be formatted as 2006-01-02"})
	}

	form, err := api.svc.CreateOrMergeCustom(data.EmployeeID, date, data.Tasks, data.Tags, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.formResponse(form))
}

func (api *attendanceApi) leaderboard(ctx echo.Context) error {
	var filter attendance.LeaderboardFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to LeaderboardFilter")
	}

	board, err := api.svc.Leaderboard(filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, board)
}
