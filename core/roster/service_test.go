package roster_test

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ejournal/core"
	"github.com/trezcool/ejournal/core/calendar"
	"github.com/trezcool/ejournal/core/mark"
	"github.com/trezcool/ejournal/core/roster"
	testutil "github.com/trezcool/ejournal/tests"
)

func TestAverage(t *testing.T) {
	tests := []struct {
		name   string
		grades map[string]interface{}
		want   float64
	}{
		{name: "numeric and status", grades: map[string]interface{}{"2024-09-15": 5, "2024-09-16": 4, "2024-09-17": "Н", "2024-09-18": 5}, want: 14.0 / 3},
		{name: "status only", grades: map[string]interface{}{"2024-09-15": "Б"}, want: 0},
		{name: "empty", grades: nil, want: 0},
		{name: "single", grades: map[string]interface{}{"2024-09-15": 2}, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, roster.Average(testutil.Grades(t, tt.grades)), 1e-9)
		})
	}
}

func TestFormatAverage(t *testing.T) {
	tests := []struct {
		avg  float64
		want string
	}{
		{avg: 14.0 / 3, want: "4.7"},
		{avg: 0, want: "0.0"},
		{avg: 4, want: "4.0"},
		{avg: 10.0 / 3, want: "3.3"},
		{avg: 17.0 / 4, want: "4.3"}, // 5,4,4,4
		{avg: 3.25, want: "3.3"},
		{avg: 4.75, want: "4.8"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, roster.FormatAverage(tt.avg), "FormatAverage(%v)", tt.avg)
	}
}

func TestService_SetMark(t *testing.T) {
	svc := testutil.NewRosterService(t, nil, testutil.DemoStudents(t)...)

	st, err := svc.SetMark(1, "2024-09-17", mark.Numeric(3))
	require.NoError(t, err)
	assert.Equal(t, mark.Numeric(3), st.Mark("2024-09-17"))
	assert.InDelta(t, 17.0/4, st.AverageGrade, 1e-9)

	stored, err := svc.GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, st, stored)

	t.Run("status recomputes on the numeric subset", func(t *testing.T) {
		st, err := svc.SetMark(1, "2024-09-15", mark.Status("Б"))
		require.NoError(t, err)
		assert.InDelta(t, 12.0/3, st.AverageGrade, 1e-9)
	})

	t.Run("new date is inserted", func(t *testing.T) {
		st, err := svc.SetMark(3, "2024-09-19", mark.Numeric(5))
		require.NoError(t, err)
		assert.Len(t, st.Grades, 5)
		assert.InDelta(t, 15.0/4, st.AverageGrade, 1e-9)
	})

	t.Run("idempotent", func(t *testing.T) {
		once, err := svc.SetMark(2, "2024-09-18", mark.Numeric(5))
		require.NoError(t, err)
		twice, err := svc.SetMark(2, "2024-09-18", mark.Numeric(5))
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	})
}

func TestService_SetMark_Rejected(t *testing.T) {
	svc := testutil.NewRosterService(t, nil, testutil.DemoStudents(t)...)
	before, err := svc.Roster()
	require.NoError(t, err)

	tests := []struct {
		name    string
		id      int
		date    string
		mark    mark.Mark
		wantErr error
	}{
		{name: "missing student", id: 99, date: "2024-09-15", mark: mark.Numeric(5), wantErr: roster.ErrNotFound},
		{name: "out of range", id: 1, date: "2024-09-15", mark: mark.Numeric(7), wantErr: mark.ErrInvalidMark},
		{name: "unknown status", id: 1, date: "2024-09-15", mark: mark.Status("Z"), wantErr: mark.ErrInvalidMark},
		{name: "empty mark", id: 1, date: "2024-09-15", mark: mark.Mark{}, wantErr: mark.ErrInvalidMark},
		{name: "bad date", id: 1, date: "15.09", mark: mark.Numeric(5), wantErr: calendar.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SetMark(tt.id, tt.date, tt.mark)
			assert.True(t, errors.Is(err, tt.wantErr), "SetMark() error = %v, want %v", err, tt.wantErr)
		})
	}

	after, err := svc.Roster()
	require.NoError(t, err)
	assert.Equal(t, before, after, "rejected operations must not change the roster")
}

func TestService_AverageInvariant(t *testing.T) {
	svc := testutil.NewRosterService(t, nil, testutil.DemoStudents(t)...)

	ops := []struct {
		id   int
		date string
		mark mark.Mark
	}{
		{1, "2024-09-15", mark.Numeric(2)},
		{2, "2024-09-17", mark.Numeric(5)},
		{3, "2024-09-18", mark.Status("НА")},
		{1, "2024-09-20", mark.Numeric(1)},
		{2, "2024-09-15", mark.Status("Н")},
		{1, "2024-09-15", mark.Numeric(5)},
	}
	for _, op := range ops {
		_, err := svc.SetMark(op.id, op.date, op.mark)
		require.NoError(t, err)

		students, err := svc.Roster()
		require.NoError(t, err)
		for _, st := range students {
			var sum, n int
			for _, g := range st.NumericMarks() {
				sum += g
				n++
			}
			want := 0.0
			if n > 0 {
				want = float64(sum) / float64(n)
			}
			assert.InDelta(t, want, st.AverageGrade, 1e-9, "student %d", st.ID)
		}
	}
}

func TestService_ClearMark(t *testing.T) {
	svc := testutil.NewRosterService(t, nil, testutil.DemoStudents(t)...)

	st, err := svc.ClearMark(1, "2024-09-15")
	require.NoError(t, err)
	assert.True(t, st.Mark("2024-09-15").IsZero())
	assert.InDelta(t, 4.5, st.AverageGrade, 1e-9)

	again, err := svc.ClearMark(1, "2024-09-15")
	require.NoError(t, err)
	assert.Equal(t, st, again)

	_, err = svc.ClearMark(42, "2024-09-15")
	assert.Equal(t, roster.ErrNotFound, errors.Cause(err))
}

func TestService_SetAttendance(t *testing.T) {
	svc := testutil.NewRosterService(t, nil, testutil.DemoStudents(t)...)

	st, err := svc.SetAttendance(2, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, st.Attendance)

	_, err = svc.SetAttendance(2, 101)
	assert.True(t, core.IsValidationError(err))
	_, err = svc.SetAttendance(2, -1)
	assert.True(t, errors.Is(err, roster.ErrInvalidAttendance))

	st, err = svc.GetByID(2)
	require.NoError(t, err)
	assert.Equal(t, 100, st.Attendance)
}

func TestService_Roster(t *testing.T) {
	svc := testutil.NewRosterService(t, nil, testutil.DemoStudents(t)...)

	students, err := svc.Roster()
	require.NoError(t, err)
	require.Len(t, students, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{students[0].ID, students[1].ID, students[2].ID})
	assert.InDelta(t, 14.0/3, students[0].AverageGrade, 1e-9)

	// snapshots are copies
	students[0].Grades["2024-09-15"] = mark.Numeric(1)
	st, err := svc.GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, mark.Numeric(5), st.Mark("2024-09-15"))
}

func TestService_Seed(t *testing.T) {
	svc := testutil.NewRosterService(t, nil)

	err := svc.Seed(
		roster.Student{ID: 7, Name: "  Кузнецов Иван ", Grades: testutil.Grades(t, map[string]interface{}{"2024-09-15": 4, "2024-09-16": "??"})},
	)
	require.NoError(t, err)

	st, err := svc.GetByID(7)
	require.NoError(t, err)
	assert.Equal(t, "Кузнецов Иван", st.Name)
	assert.Equal(t, 4.0, st.AverageGrade, "average is derived while seeding")
	assert.Equal(t, mark.Status("??"), st.Mark("2024-09-16"), "seed marks are kept as is")

	err = svc.Seed(roster.Student{ID: 7, Name: "dup"})
	assert.True(t, errors.Is(err, roster.ErrDuplicateID))

	// all or nothing
	err = svc.Seed(roster.Student{ID: 8, Name: "Орлова Анна"}, roster.Student{ID: 7, Name: "dup"})
	assert.True(t, errors.Is(err, roster.ErrDuplicateID))
	err = svc.Seed(roster.Student{ID: 9, Name: "Белов Пётр"}, roster.Student{ID: 9, Name: "dup"})
	assert.True(t, errors.Is(err, roster.ErrDuplicateID))
	students, err := svc.Roster()
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, 7, students[0].ID)
}

func TestStudent_JSON(t *testing.T) {
	svc := testutil.NewRosterService(t, nil)
	require.NoError(t, svc.Seed(roster.Student{ID: 1, Name: "Орлова Анна", Attendance: 100}))

	st, err := svc.GetByID(1)
	require.NoError(t, err)
	data, err := json.Marshal(st)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"grades":{}`, "unmarked students carry an empty object")
}

func TestNewService(t *testing.T) {
	_, err := roster.NewService(nil, mark.DefaultVocabulary())
	assert.Error(t, err)
}
