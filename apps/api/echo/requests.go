package echoapi

import (
	"github.com/go-playground/validator/v10"
)

type (
	// MarkRequest carries a grade (number) or a status code (string).
	MarkRequest struct {
		Mark interface{} `json:"mark" validate:"required"`
	}

	AttendanceRequest struct {
		Attendance *int `json:"attendance" validate:"required,min=0,max=100"`
	}

	LessonFieldRequest struct {
		Field string `json:"field" validate:"required,lessonfield"`
		Value string `json:"value"`
	}

	// ExportQuery selects what to export; empty values fall back to the journal defaults.
	ExportQuery struct {
		Class   string `query:"class"`
		Subject string `query:"subject"`
		Format  string `query:"format" validate:"omitempty,exportformat"`
	}

	ExportMailRequest struct {
		Class   string   `json:"class"`
		Subject string   `json:"subject"`
		Format  string   `json:"format" validate:"omitempty,exportformat"`
		To      []string `json:"to" validate:"required,min=1,dive,notblank,email"`
	}

	AnalyticsQuery struct {
		Threshold string `query:"threshold" validate:"omitempty,numeric"`
		From      string `query:"from" validate:"datekey"`
		To        string `query:"to" validate:"datekey"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (r MarkRequest) Validate(validate *validator.Validate) error        { return validate.Struct(r) }
func (r AttendanceRequest) Validate(validate *validator.Validate) error  { return validate.Struct(r) }
func (r LessonFieldRequest) Validate(validate *validator.Validate) error { return validate.Struct(r) }
func (r ExportQuery) Validate(validate *validator.Validate) error        { return validate.Struct(r) }
func (r ExportMailRequest) Validate(validate *validator.Validate) error  { return validate.Struct(r) }
func (r AnalyticsQuery) Validate(validate *validator.Validate) error     { return validate.Struct(r) }
