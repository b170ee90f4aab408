package echoapi

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"net/mail"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ejournal/core"
	"github.com/trezcool/ejournal/core/analytics"
	"github.com/trezcool/ejournal/core/calendar"
	"github.com/trezcool/ejournal/core/export"
	"github.com/trezcool/ejournal/core/journal"
	"github.com/trezcool/ejournal/core/lesson"
	"github.com/trezcool/ejournal/core/mark"
	"github.com/trezcool/ejournal/core/roster"
)

type (
	journalApi struct {
		conf     *core.Config
		jnl      *journal.Journal
		mailSvc  core.EmailService
		metrics  *metrics
		validate *validator.Validate
	}

	DateView struct {
		Date  calendar.DateKey `json:"date"`
		Label string           `json:"label"`
	}

	JournalView struct {
		Class    string            `json:"class"`
		Classes  []string          `json:"classes"`
		Subject  journal.Subject   `json:"subject"`
		Subjects []journal.Subject `json:"subjects"`
		Dates    []DateView        `json:"dates"`
		Students []roster.Student  `json:"students"`
	}

	GradeView struct {
		Grade    int           `json:"grade"`
		Severity mark.Severity `json:"severity"`
	}

	VocabularyView struct {
		MinGrade int              `json:"min_grade"`
		MaxGrade int              `json:"max_grade"`
		Grades   []GradeView      `json:"grades"`
		Statuses []mark.StatusDef `json:"statuses"`
	}
)

func registerJournalAPI(g *echo.Group, deps Deps, m *metrics) {
	api := journalApi{
		conf:     deps.Conf,
		jnl:      deps.Journal,
		mailSvc:  deps.MailSvc,
		metrics:  m,
		validate: deps.Validate,
	}

	jg := g.Group("/journal")
	jg.GET("", api.view)
	jg.GET("/vocabulary", api.vocabulary)
	jg.GET("/analytics", api.analytics)
	jg.GET("/export", api.export)
	jg.POST("/export/mail", api.mailExport)

	sg := jg.Group("/students/:id")
	sg.GET("", api.retrieveStudent)
	sg.PUT("/marks/:date", api.setMark)
	sg.DELETE("/marks/:date", api.clearMark)
	sg.PUT("/attendance", api.setAttendance)

	lg := jg.Group("/lessons")
	lg.GET("", api.queryLessons)
	lg.GET("/:date", api.retrieveLesson)
	lg.PUT("/:date", api.setLessonField)
}

// Handlers

func (api *journalApi) view(ctx echo.Context) error {
	class, err := api.jnl.ResolveClass(ctx.QueryParam("class"))
	if err != nil {
		return err
	}
	subj, err := api.jnl.SubjectFromParam(ctx.QueryParam("subject"))
	if err != nil {
		return errors.Wrap(err, "resolving subject")
	}
	students, err := api.jnl.Roster.Roster()
	if err != nil {
		return errors.Wrap(err, "querying roster")
	}

	dates := make([]DateView, 0, len(api.jnl.Axis))
	for _, d := range api.jnl.Axis {
		dates = append(dates, DateView{Date: d, Label: d.Short()})
	}
	if students == nil {
		students = []roster.Student{}
	}
	return ctx.JSON(http.StatusOK, JournalView{
		Class:    class,
		Classes:  api.jnl.Classes,
		Subject:  subj,
		Subjects: api.jnl.Subjects,
		Dates:    dates,
		Students: students,
	})
}

func (api *journalApi) vocabulary(ctx echo.Context) error {
	vocab := api.jnl.Vocab
	minGrade, maxGrade := vocab.Range()
	grades := make([]GradeView, 0, maxGrade-minGrade+1)
	for g := maxGrade; g >= minGrade; g-- {
		grades = append(grades, GradeView{Grade: g, Severity: vocab.Classify(mark.Numeric(g)).Severity})
	}
	return ctx.JSON(http.StatusOK, VocabularyView{
		MinGrade: minGrade,
		MaxGrade: maxGrade,
		Grades:   grades,
		Statuses: vocab.Statuses(),
	})
}

func (api *journalApi) retrieveStudent(ctx echo.Context) error {
	id, err := studentID(ctx)
	if err != nil {
		return err
	}
	st, err := api.jnl.Roster.GetByID(id)
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *journalApi) setMark(ctx echo.Context) error {
	id, err := studentID(ctx)
	if err != nil {
		return err
	}

	var data MarkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	m, err := api.jnl.Vocab.ParseValue(data.Mark)
	if err != nil {
		return err
	}

	st, err := api.jnl.Roster.SetMark(id, ctx.Param("date"), m)
	if err != nil {
		return errors.Wrap(err, "setting mark")
	}
	api.metrics.markSet(m)
	return ctx.JSON(http.StatusOK, st)
}

func (api *journalApi) clearMark(ctx echo.Context) error {
	id, err := studentID(ctx)
	if err != nil {
		return err
	}
	st, err := api.jnl.Roster.ClearMark(id, ctx.Param("date"))
	if err != nil {
		return errors.Wrap(err, "clearing mark")
	}
	api.metrics.markSet(mark.Mark{})
	return ctx.JSON(http.StatusOK, st)
}

func (api *journalApi) setAttendance(ctx echo.Context) error {
	id, err := studentID(ctx)
	if err != nil {
		return err
	}

	var data AttendanceRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AttendanceRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := api.jnl.Roster.SetAttendance(id, *data.Attendance)
	if err != nil {
		return errors.Wrap(err, "setting attendance")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *journalApi) queryLessons(ctx echo.Context) error {
	recs, err := api.jnl.Lessons.Lessons(api.jnl.Axis)
	if err != nil {
		return errors.Wrap(err, "querying lessons")
	}
	if recs == nil {
		recs = []lesson.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *journalApi) retrieveLesson(ctx echo.Context) error {
	rec, err := api.jnl.Lessons.Get(ctx.Param("date"))
	if err != nil {
		return errors.Wrap(err, "getting lesson")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *journalApi) setLessonField(ctx echo.Context) error {
	var data LessonFieldRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LessonFieldRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.jnl.Lessons.SetField(ctx.Param("date"), data.Field, data.Value)
	if err != nil {
		return errors.Wrap(err, "setting lesson field")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *journalApi) analytics(ctx echo.Context) error {
	var query AnalyticsQuery
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to AnalyticsQuery")
	}
	if err := query.Validate(api.validate); err != nil {
		return err
	}

	opts := analytics.Options{
		ExcellentThreshold: api.conf.Journal.ExcellentThreshold,
		From:               calendar.DateKey(query.From),
		To:                 calendar.DateKey(query.To),
	}
	if query.Threshold != "" {
		threshold, err := strconv.ParseFloat(query.Threshold, 64)
		if err != nil {
			return errors.Wrap(err, "parsing threshold")
		}
		opts.ExcellentThreshold = threshold
	}

	sum, err := api.jnl.Summarize(opts)
	if err != nil {
		return errors.Wrap(err, "summarizing journal")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *journalApi) export(ctx echo.Context) error {
	var query ExportQuery
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to ExportQuery")
	}
	if err := query.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.runExport(query.Class, query.Subject, query.Format)
	if err != nil {
		return err
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": res.Filename})
	ctx.Response().Header().Set(echo.HeaderContentDisposition, disposition)
	return ctx.Blob(http.StatusOK, res.ContentType, res.Content)
}

func (api *journalApi) mailExport(ctx echo.Context) error {
	var data ExportMailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ExportMailRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.runExport(data.Class, data.Subject, data.Format)
	if err != nil {
		return err
	}
	msg, err := exportMessage(api.conf.AppName, res, data.To...)
	if err != nil {
		return errors.Wrap(err, "composing export email")
	}
	api.mailSvc.SendMessages(msg)

	return ctx.JSON(http.StatusAccepted, SuccessResponse{
		Success: fmt.Sprintf("%s will be sent to %d recipient(s).", res.Filename, len(msg.To)),
	})
}

func (api *journalApi) runExport(class, subject, format string) (export.Result, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return export.Result{}, err
	}
	res, err := api.jnl.Export(class, subject, f, export.Options{Labels: export.LabelsFromConfig(api.conf.Export)})
	if err != nil {
		return export.Result{}, errors.Wrap(err, "exporting journal")
	}
	api.metrics.exported(f)
	return res, nil
}

// exportMessage builds the email delivering an export as attachment.
func exportMessage(appName string, res export.Result, to ...string) (*core.EmailMessage, error) {
	msg := &core.EmailMessage{
		Subject: res.Filename,
		BodyStr: fmt.Sprintf("Please find attached the journal export %s from %s.", res.Filename, appName),
	}
	for _, addr := range to {
		a, err := mail.ParseAddress(addr)
		if err != nil {
			return nil, core.NewValidationError(err, core.FieldError{Field: "to", Error: "must be a valid email address"})
		}
		msg.To = append(msg.To, *a)
	}
	if err := msg.Attach(bytes.NewReader(res.Content), res.Filename, res.ContentType); err != nil {
		return nil, err
	}
	return msg, nil
}

func studentID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return 0, errHttpNotFound
	}
	return id, nil
}
