package roster

import (
	"math"
	"strconv"

	"github.com/trezcool/ejournal/core/calendar"
	"github.com/trezcool/ejournal/core/mark"
)

// Student is one row of the journal.
// AverageGrade is derived from Grades and must be recomputed on every grade mutation.
type Student struct {
	ID           int                            `json:"id"`
	Name         string                         `json:"name"`
	Grades       map[calendar.DateKey]mark.Mark `json:"grades"`
	AverageGrade float64                        `json:"average_grade"`
	Attendance   int                            `json:"attendance"` // percent, supplied by the environment
}

// Clone returns a deep copy of the student.
func (s Student) Clone() Student {
	grades := make(map[calendar.DateKey]mark.Mark, len(s.Grades))
	for d, m := range s.Grades {
		grades[d] = m
	}
	s.Grades = grades
	return s
}

// Mark returns the mark recorded on d, the zero Mark if there is none.
func (s Student) Mark(d calendar.DateKey) mark.Mark {
	return s.Grades[d]
}

func (s *Student) setMark(d calendar.DateKey, m mark.Mark) {
	if s.Grades == nil {
		s.Grades = make(map[calendar.DateKey]mark.Mark)
	}
	if m.IsZero() {
		delete(s.Grades, d)
	} else {
		s.Grades[d] = m
	}
	s.recompute()
}

func (s *Student) recompute() {
	s.AverageGrade = Average(s.Grades)
}

// Average is the arithmetic mean of the numeric marks, 0 when there are none.
func Average(grades map[calendar.DateKey]mark.Mark) float64 {
	var sum, count int
	for _, m := range grades {
		if g, ok := m.Grade(); ok {
			sum += g
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}

// FormatAverage renders an average rounded half up to one decimal place, as spreadsheets do.
func FormatAverage(avg float64) string {
	return strconv.FormatFloat(math.Round(avg*10)/10, 'f', 1, 64)
}

// NumericMarks returns the numeric grades of the student, in no particular order.
func (s Student) NumericMarks() []int {
	grades := make([]int, 0, len(s.Grades))
	for _, m := range s.Grades {
		if g, ok := m.Grade(); ok {
			grades = append(grades, g)
		}
	}
	return grades
}
