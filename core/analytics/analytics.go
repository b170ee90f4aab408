// Package analytics computes class-wide statistics from roster snapshots.
// Every function is pure: it reads the students it is given and nothing else.
package analytics

import (
	"math"

	"github.com/trezcool/ejournal/core/calendar"
	"github.com/trezcool/ejournal/core/mark"
	"github.com/trezcool/ejournal/core/roster"
)

// Attendance levels of the analytics view.
const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

type (
	Level string

	// Absences counts absence marks in a date window.
	Absences struct {
		Total     int `json:"total"`
		Excused   int `json:"excused"`
		Unexcused int `json:"unexcused"`
	}

	Options struct {
		ExcellentThreshold float64
		From, To           calendar.DateKey // absences window, zero bounds are open
	}

	// Summary bundles every statistic of the analytics view.
	Summary struct {
		StudentCount        int                   `json:"student_count"`
		ClassAverage        float64               `json:"class_average"`
		ExcellentThreshold  float64               `json:"excellent_threshold"`
		ExcellentStudents   int                   `json:"excellent_students"`
		AverageAttendance   float64               `json:"average_attendance"`
		AttendanceLevel     Level                 `json:"attendance_level"`
		GradeDistribution   map[mark.Severity]int `json:"grade_distribution"`
		AttendanceBreakdown map[mark.Category]int `json:"attendance_breakdown"`
		Absences            Absences              `json:"absences"`
	}
)

// ClassAverage is the mean of the students' averages, not of all their marks.
func ClassAverage(students []roster.Student) float64 {
	if len(students) == 0 {
		return 0
	}
	var sum float64
	for _, st := range students {
		sum += st.AverageGrade
	}
	return sum / float64(len(students))
}

// GradeDistribution returns the percentage of all numeric marks falling in each band.
// Percentages are rounded independently, so the total may drift from 100 by up to 1 per band.
func GradeDistribution(students []roster.Student) map[mark.Severity]int {
	counts := make(map[mark.Severity]int, len(mark.Bands))
	var total int
	for _, st := range students {
		for _, g := range st.NumericMarks() {
			counts[mark.NumericSeverity(g)]++
			total++
		}
	}

	dist := make(map[mark.Severity]int, len(mark.Bands))
	for _, band := range mark.Bands {
		dist[band] = percent(counts[band], total)
	}
	return dist
}

// AttendanceBreakdown returns the percentage of cells in each attendance category.
// Status marks count by their category; numeric marks and empty cells of the axis count as present.
// Marks recorded outside the axis are counted too.
func AttendanceBreakdown(students []roster.Student, axis calendar.Axis, vocab *mark.Vocabulary) map[mark.Category]int {
	counts := make(map[mark.Category]int, len(mark.Categories))
	var total int
	for _, st := range students {
		for _, d := range axis {
			if _, ok := st.Grades[d]; !ok {
				counts[mark.Present]++
				total++
			}
		}
		for _, m := range st.Grades {
			counts[vocab.Classify(m).Category]++
			total++
		}
	}

	breakdown := make(map[mark.Category]int, len(mark.Categories))
	for _, cat := range mark.Categories {
		breakdown[cat] = percent(counts[cat], total)
	}
	return breakdown
}

// ExcellentStudentCount counts the students whose average reaches threshold.
func ExcellentStudentCount(students []roster.Student, threshold float64) int {
	var n int
	for _, st := range students {
		if st.AverageGrade >= threshold {
			n++
		}
	}
	return n
}

// AverageAttendance is the mean of the supplied attendance percents.
func AverageAttendance(students []roster.Student) float64 {
	if len(students) == 0 {
		return 0
	}
	var sum int
	for _, st := range students {
		sum += st.Attendance
	}
	return float64(sum) / float64(len(students))
}

// CountAbsences counts excused and unexcused absence marks dated within [from, to].
func CountAbsences(students []roster.Student, vocab *mark.Vocabulary, from, to calendar.DateKey) Absences {
	var abs Absences
	for _, st := range students {
		for d, m := range st.Grades {
			if (from != "" && d.Before(from)) || (to != "" && to.Before(d)) {
				continue
			}
			switch vocab.Classify(m).Category {
			case mark.Excused:
				abs.Excused++
			case mark.Unexcused:
				abs.Unexcused++
			}
		}
	}
	abs.Total = abs.Excused + abs.Unexcused
	return abs
}

func AttendanceLevel(percent float64) Level {
	switch {
	case percent >= 90:
		return LevelHigh
	case percent >= 80:
		return LevelMedium
	default:
		return LevelLow
	}
}

func Summarize(students []roster.Student, axis calendar.Axis, vocab *mark.Vocabulary, opts Options) Summary {
	avgAttendance := AverageAttendance(students)
	return Summary{
		StudentCount:        len(students),
		ClassAverage:        ClassAverage(students),
		ExcellentThreshold:  opts.ExcellentThreshold,
		ExcellentStudents:   ExcellentStudentCount(students, opts.ExcellentThreshold),
		AverageAttendance:   avgAttendance,
		AttendanceLevel:     AttendanceLevel(avgAttendance),
		GradeDistribution:   GradeDistribution(students),
		AttendanceBreakdown: AttendanceBreakdown(students, axis, vocab),
		Absences:            CountAbsences(students, vocab, opts.From, opts.To),
	}
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(n) * 100 / float64(total)))
}
