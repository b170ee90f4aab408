package lesson

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/ejournal/core"
	"github.com/trezcool/ejournal/core/calendar"
)

// Fields of a lesson record.
const (
	FieldTopic    Field = "topic"
	FieldHomework Field = "homework"
)

var (
	// errors
	ErrInvalidField = errors.New("field must be one of: topic, homework")

	Fields = []Field{FieldTopic, FieldHomework}

	fieldTag  = "lessonfield"
	fieldText = "must be one of: topic, homework"
)

type (
	Field string

	// Record holds the plan of the lesson given on Date.
	Record struct {
		Date     calendar.DateKey `json:"date"`
		Topic    string           `json:"topic"`
		Homework string           `json:"homework"`
	}

	Repository interface {
		SaveLesson(rec Record) (Record, error)
		// GetLesson returns false when no record exists for date.
		GetLesson(date calendar.DateKey) (Record, bool, error)
		// UpdateLesson applies fn to the record of date, created empty if absent, and stores it.
		UpdateLesson(date calendar.DateKey, fn func(*Record)) (Record, error)
	}

	Service struct {
		repo Repository
	}
)

func ParseField(s string) (Field, error) {
	f := Field(core.CleanString(s, true /* lower */))
	switch f {
	case FieldTopic, FieldHomework:
		return f, nil
	default:
		return "", core.NewValidationError(
			errors.Wrapf(ErrInvalidField, "%q", s),
			core.FieldError{Field: "field", Error: fieldText},
		)
	}
}

func (r *Record) set(f Field, value string) {
	switch f {
	case FieldTopic:
		r.Topic = value
	case FieldHomework:
		r.Homework = value
	}
}

func NewService(repo Repository) (*Service, error) {
	if err := vala.BeginValidation().Validate(vala.IsNotNil(repo, "repo")).Check(); err != nil {
		return nil, err
	}
	return &Service{repo: repo}, nil
}

func (svc *Service) Seed(records ...Record) error {
	for _, rec := range records {
		if _, err := calendar.ParseDateKey(string(rec.Date)); err != nil {
			return errors.Wrap(err, "seeding lesson")
		}
		if _, err := svc.repo.SaveLesson(rec); err != nil {
			return errors.Wrapf(err, "seeding lesson %s", rec.Date)
		}
	}
	return nil
}

// SetField replaces one field of the lesson given on date, leaving the other untouched.
// The text is stored as is.
func (svc *Service) SetField(date, field, value string) (Record, error) {
	d, err := calendar.ParseField("date", date)
	if err != nil {
		return Record{}, err
	}
	f, err := ParseField(field)
	if err != nil {
		return Record{}, err
	}
	return svc.repo.UpdateLesson(d, func(rec *Record) {
		rec.set(f, value)
	})
}

// Get returns the lesson given on date, an empty record if none was planned.
func (svc *Service) Get(date string) (Record, error) {
	d, err := calendar.ParseField("date", date)
	if err != nil {
		return Record{}, err
	}
	return svc.get(d)
}

func (svc *Service) get(d calendar.DateKey) (Record, error) {
	rec, ok, err := svc.repo.GetLesson(d)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{Date: d}, nil
	}
	return rec, nil
}

// Lessons returns one record per axis date, in axis order.
func (svc *Service) Lessons(axis calendar.Axis) ([]Record, error) {
	recs := make([]Record, 0, len(axis))
	for _, d := range axis {
		rec, err := svc.get(d)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// RegisterValidators registers the `lessonfield` validation tag.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(fieldTag, func(fl validator.FieldLevel) bool {
		_, err := ParseField(fl.Field().String())
		return err == nil
	})
	core.RegisterCustomTranslation(validate, translator, fieldTag, fieldText)
}
