package inmemdb

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ejournal/core/lesson"
	"github.com/trezcool/ejournal/core/mark"
	"github.com/trezcool/ejournal/core/roster"
)

func TestStudentRepository(t *testing.T) {
	repo := NewStudentRepository(Open())

	for _, id := range []int{3, 1, 2} {
		_, err := repo.AddStudent(roster.Student{ID: id, Name: "student"})
		require.NoError(t, err)
	}
	_, err := repo.AddStudent(roster.Student{ID: 1})
	assert.True(t, errors.Is(err, roster.ErrDuplicateID))

	students, err := repo.QueryAllStudents()
	require.NoError(t, err)
	var ids []int
	for _, st := range students {
		ids = append(ids, st.ID)
	}
	assert.Equal(t, []int{3, 1, 2}, ids, "insertion order")

	_, err = repo.GetStudentByID(4)
	assert.Equal(t, roster.ErrNotFound, err)
}

func TestStudentRepository_UpdateStudent(t *testing.T) {
	repo := NewStudentRepository(Open())
	_, err := repo.AddStudent(roster.Student{ID: 1, Name: "Иванов", Attendance: 80})
	require.NoError(t, err)

	t.Run("failed update is discarded", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := repo.UpdateStudent(1, func(st *roster.Student) error {
			st.Name = "changed"
			st.Grades["2024-09-15"] = mark.Numeric(5)
			return boom
		})
		assert.Equal(t, boom, err)

		st, err := repo.GetStudentByID(1)
		require.NoError(t, err)
		assert.Equal(t, "Иванов", st.Name)
		assert.Empty(t, st.Grades)
	})

	t.Run("id is kept", func(t *testing.T) {
		st, err := repo.UpdateStudent(1, func(st *roster.Student) error {
			st.ID = 2
			st.Attendance = 90
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, st.ID)
		assert.Equal(t, 90, st.Attendance)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := repo.UpdateStudent(2, func(*roster.Student) error { return nil })
		assert.Equal(t, roster.ErrNotFound, err)
	})
}

func TestStudentRepository_ConcurrentUpdates(t *testing.T) {
	repo := NewStudentRepository(Open())
	_, err := repo.AddStudent(roster.Student{ID: 1})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.UpdateStudent(1, func(st *roster.Student) error {
				st.Attendance++
				return nil
			})
		}()
	}
	wg.Wait()

	st, err := repo.GetStudentByID(1)
	require.NoError(t, err)
	assert.Equal(t, 50, st.Attendance)
}

func TestLessonRepository(t *testing.T) {
	repo := NewLessonRepository(Open())

	_, ok, err := repo.GetLesson("2024-09-15")
	require.NoError(t, err)
	assert.False(t, ok)

	rec, err := repo.UpdateLesson("2024-09-15", func(rec *lesson.Record) { rec.Topic = "Дроби" })
	require.NoError(t, err)
	assert.Equal(t, lesson.Record{Date: "2024-09-15", Topic: "Дроби"}, rec)

	_, err = repo.SaveLesson(lesson.Record{Date: "2024-09-16", Homework: "№ 3"})
	require.NoError(t, err)

	rec, ok, err = repo.GetLesson("2024-09-16")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "№ 3", rec.Homework)
}
