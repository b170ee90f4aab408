package testutil

import (
	"bytes"
	"log"
	"testing"

	"github.com/trezcool/ejournal/core"
	"github.com/trezcool/ejournal/core/calendar"
	"github.com/trezcool/ejournal/core/journal"
	"github.com/trezcool/ejournal/core/lesson"
	"github.com/trezcool/ejournal/core/mark"
	"github.com/trezcool/ejournal/core/roster"
	logsvc "github.com/trezcool/ejournal/services/logger"
	inmemdb "github.com/trezcool/ejournal/storage/database/inmem"
)

// Grades builds a grade mapping from raw values (ints for grades, strings for status codes).
func Grades(t *testing.T, raw map[string]interface{}) map[calendar.DateKey]mark.Mark {
	grades := make(map[calendar.DateKey]mark.Mark, len(raw))
	for d, v := range raw {
		m, err := mark.FromValue(v)
		if err != nil {
			t.Fatalf("Grades() failed: %v", err)
		}
		grades[calendar.DateKey(d)] = m
	}
	return grades
}

func CreateStudent(id int, name string, attendance int, grades map[calendar.DateKey]mark.Mark) roster.Student {
	return roster.Student{
		ID:           id,
		Name:         name,
		Grades:       grades,
		AverageGrade: roster.Average(grades),
		Attendance:   attendance,
	}
}

// DemoStudents is the class used throughout the tests, marked on DemoAxis.
func DemoStudents(t *testing.T) []roster.Student {
	return []roster.Student{
		CreateStudent(1, "Иванов Алексей", 85, Grades(t, map[string]interface{}{
			"2024-09-15": 5, "2024-09-16": 4, "2024-09-17": "Н", "2024-09-18": 5,
		})),
		CreateStudent(2, "Петрова Мария", 95, Grades(t, map[string]interface{}{
			"2024-09-15": 4, "2024-09-16": 5, "2024-09-17": "УП", "2024-09-18": 4,
		})),
		CreateStudent(3, "Сидоров Николай", 78, Grades(t, map[string]interface{}{
			"2024-09-15": 3, "2024-09-16": 4, "2024-09-17": 3, "2024-09-18": "О",
		})),
	}
}

var DemoAxis = calendar.Axis{"2024-09-15", "2024-09-16", "2024-09-17", "2024-09-18"}

// NewRosterService returns a roster service over a fresh in-memory DB seeded with students.
func NewRosterService(t *testing.T, vocab *mark.Vocabulary, students ...roster.Student) *roster.Service {
	if vocab == nil {
		vocab = mark.DefaultVocabulary()
	}
	svc, err := roster.NewService(inmemdb.NewStudentRepository(inmemdb.Open()), vocab)
	if err != nil {
		t.Fatalf("NewRosterService() failed: %v", err)
	}
	if err := svc.Seed(students...); err != nil {
		t.Fatalf("NewRosterService() failed: %v", err)
	}
	return svc
}

func NewLessonService(t *testing.T, records ...lesson.Record) *lesson.Service {
	svc, err := lesson.NewService(inmemdb.NewLessonRepository(inmemdb.Open()))
	if err != nil {
		t.Fatalf("NewLessonService() failed: %v", err)
	}
	if err := svc.Seed(records...); err != nil {
		t.Fatalf("NewLessonService() failed: %v", err)
	}
	return svc
}

// NewLogger returns a logger writing to the returned buffer, with Rollbar disabled.
func NewLogger() (core.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := logsvc.NewRollbarLogger(log.New(&buf, "TEST : ", 0), &core.Config{Env: "TEST", Debug: true})
	logger.Enable(false)
	return logger, &buf
}

// NewJournal returns a journal seeded with seed, the demo seed when nil.
func NewJournal(t *testing.T, seed *journal.Seed) *journal.Journal {
	sd := journal.DefaultSeed()
	if seed != nil {
		sd = *seed
	}
	logger, _ := NewLogger()
	db := inmemdb.Open()
	jnl, err := journal.New(sd, mark.DefaultVocabulary(), inmemdb.NewStudentRepository(db), inmemdb.NewLessonRepository(db), logger)
	if err != nil {
		t.Fatalf("NewJournal() failed: %v", err)
	}
	return jnl
}
