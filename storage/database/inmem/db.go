package inmemdb

import (
	"sync"

	"github.com/trezcool/ejournal/core/calendar"
	"github.com/trezcool/ejournal/core/lesson"
	"github.com/trezcool/ejournal/core/roster"
)

type (
	DB struct {
		student *studentTable
		lesson  *lessonTable
	}

	// studentTable keeps students in insertion order.
	studentTable struct {
		table map[int]*roster.Student
		order []int
		mutex sync.RWMutex
	}

	lessonTable struct {
		table map[calendar.DateKey]*lesson.Record
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		student: &studentTable{table: make(map[int]*roster.Student)},
		lesson:  &lessonTable{table: make(map[calendar.DateKey]*lesson.Record)},
	}
}
