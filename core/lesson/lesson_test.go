package lesson_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ejournal/core"
	"github.com/trezcool/ejournal/core/calendar"
	"github.com/trezcool/ejournal/core/lesson"
	testutil "github.com/trezcool/ejournal/tests"
)

func TestService_SetField(t *testing.T) {
	svc := testutil.NewLessonService(t, lesson.Record{Date: "2024-09-15", Topic: "Квадратные уравнения", Homework: "№ 1-5"})

	t.Run("creates the record lazily", func(t *testing.T) {
		rec, err := svc.SetField("2024-09-16", "homework", "стр. 42")
		require.NoError(t, err)
		assert.Equal(t, lesson.Record{Date: "2024-09-16", Homework: "стр. 42"}, rec)
	})

	t.Run("replaces one field only", func(t *testing.T) {
		rec, err := svc.SetField("2024-09-15", "topic", "Теорема Виета")
		require.NoError(t, err)
		assert.Equal(t, lesson.Record{Date: "2024-09-15", Topic: "Теорема Виета", Homework: "№ 1-5"}, rec)
	})

	t.Run("idempotent", func(t *testing.T) {
		once, err := svc.SetField("2024-09-15", "Homework", "  ")
		require.NoError(t, err)
		twice, err := svc.SetField("2024-09-15", "homework", "  ")
		require.NoError(t, err)
		assert.Equal(t, once, twice)
		assert.Equal(t, "  ", twice.Homework, "text is stored as is")
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := svc.SetField("2024-09-15", "grade", "5")
		assert.True(t, errors.Is(err, lesson.ErrInvalidField))
		assert.True(t, core.IsValidationError(err))

		_, err = svc.SetField("yesterday", "topic", "x")
		assert.True(t, errors.Is(err, calendar.ErrInvalidDate))
	})
}

func TestService_Get(t *testing.T) {
	svc := testutil.NewLessonService(t, lesson.Record{Date: "2024-09-15", Topic: "Дроби"})

	rec, err := svc.Get("2024-09-15")
	require.NoError(t, err)
	assert.Equal(t, "Дроби", rec.Topic)

	rec, err = svc.Get("2024-10-01")
	require.NoError(t, err)
	assert.Equal(t, lesson.Record{Date: "2024-10-01"}, rec)

	_, err = svc.Get("")
	assert.Error(t, err)
}

func TestService_Lessons(t *testing.T) {
	svc := testutil.NewLessonService(t, lesson.Record{Date: "2024-09-17", Topic: "Проценты"})

	recs, err := svc.Lessons(calendar.Axis{"2024-09-18", "2024-09-17"})
	require.NoError(t, err)
	assert.Equal(t, []lesson.Record{
		{Date: "2024-09-18"},
		{Date: "2024-09-17", Topic: "Проценты"},
	}, recs)
}

func TestService_Seed(t *testing.T) {
	svc := testutil.NewLessonService(t)
	err := svc.Seed(lesson.Record{Date: "17/09/2024"})
	assert.True(t, errors.Is(err, calendar.ErrInvalidDate))
}

func TestRegisterValidators(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	lesson.RegisterValidators(validate, translator)

	type input struct {
		Field string `json:"field" validate:"required,lessonfield"`
	}
	assert.NoError(t, validate.Struct(input{Field: "topic"}))

	err := validate.Struct(input{Field: "teacher"})
	require.Error(t, err)
	var vErrs validator.ValidationErrors
	require.True(t, errors.As(err, &vErrs))
	assert.Equal(t, map[string]string{"field": "must be one of: topic, homework"}, core.TranslateValidationErrors(vErrs, translator))
}
