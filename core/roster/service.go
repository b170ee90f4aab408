package roster

import (
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/ejournal/core"
	"github.com/trezcool/ejournal/core/calendar"
	"github.com/trezcool/ejournal/core/mark"
)

var (
	// errors
	ErrNotFound          = errors.New("student not found")
	ErrDuplicateID       = errors.New("a student with this id already exists")
	ErrInvalidAttendance = errors.New("attendance must be between 0 and 100")
)

type (
	Repository interface {
		AddStudent(student Student) (Student, error)
		// QueryAllStudents returns the students in insertion order.
		QueryAllStudents() ([]Student, error)
		GetStudentByID(id int) (Student, error)
		// UpdateStudent applies fn to a copy of the student and stores the copy only if fn succeeds.
		UpdateStudent(id int, fn func(*Student) error) (Student, error)
	}

	Service struct {
		repo  Repository
		vocab *mark.Vocabulary
	}
)

func NewService(repo Repository, vocab *mark.Vocabulary) (*Service, error) {
	if err := vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(vocab, "vocab"),
	).Check(); err != nil {
		return nil, err
	}
	return &Service{repo: repo, vocab: vocab}, nil
}

func (svc *Service) Vocabulary() *mark.Vocabulary { return svc.vocab }

// Seed adds students as they come from the seed data: their marks are not checked
// against the vocabulary, their averages are recomputed.
// Nothing is added when any id is repeated or already taken.
func (svc *Service) Seed(students ...Student) error {
	seen := make(map[int]bool, len(students))
	for _, st := range students {
		if seen[st.ID] {
			return errors.Wrapf(ErrDuplicateID, "seeding student %d", st.ID)
		}
		seen[st.ID] = true
		_, err := svc.repo.GetStudentByID(st.ID)
		switch {
		case err == nil:
			return errors.Wrapf(ErrDuplicateID, "seeding student %d", st.ID)
		case !errors.Is(err, ErrNotFound):
			return errors.Wrapf(err, "seeding student %d", st.ID)
		}
	}

	for _, st := range students {
		st = st.Clone()
		st.Name = core.CleanString(st.Name)
		st.recompute()
		if _, err := svc.repo.AddStudent(st); err != nil {
			return errors.Wrapf(err, "seeding student %d", st.ID)
		}
	}
	return nil
}

// Roster returns every student in insertion order.
func (svc *Service) Roster() ([]Student, error) {
	return svc.repo.QueryAllStudents()
}

func (svc *Service) GetByID(id int) (Student, error) {
	return svc.repo.GetStudentByID(id)
}

// SetMark records m for the student on date and recomputes their average.
// Nothing is changed when the student, the date or the mark is rejected.
func (svc *Service) SetMark(id int, date string, m mark.Mark) (Student, error) {
	d, err := calendar.ParseField("date", date)
	if err != nil {
		return Student{}, err
	}
	if err = svc.vocab.Validate(m); err != nil {
		return Student{}, err
	}
	return svc.repo.UpdateStudent(id, func(st *Student) error {
		st.setMark(d, m)
		return nil
	})
}

// ClearMark empties the student's cell on date. Clearing an empty cell is a no-op.
func (svc *Service) ClearMark(id int, date string) (Student, error) {
	d, err := calendar.ParseField("date", date)
	if err != nil {
		return Student{}, err
	}
	return svc.repo.UpdateStudent(id, func(st *Student) error {
		st.setMark(d, mark.Mark{})
		return nil
	})
}

// SetAttendance records the externally computed attendance percent of the student.
func (svc *Service) SetAttendance(id int, percent int) (Student, error) {
	if percent < 0 || percent > 100 {
		return Student{}, core.NewValidationError(
			errors.Wrapf(ErrInvalidAttendance, "%d", percent),
			core.FieldError{Field: "attendance", Error: ErrInvalidAttendance.Error()},
		)
	}
	return svc.repo.UpdateStudent(id, func(st *Student) error {
		st.Attendance = percent
		return nil
	})
}
