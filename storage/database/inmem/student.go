package inmemdb

import (
	"github.com/pkg/errors"

	"github.com/trezcool/ejournal/core/roster"
)

type studentRepository struct {
	db *studentTable
}

func NewStudentRepository(db *DB) roster.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) AddStudent(st roster.Student) (roster.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[st.ID]; ok {
		return roster.Student{}, errors.Wrapf(roster.ErrDuplicateID, "%d", st.ID)
	}
	st = st.Clone()
	repo.db.table[st.ID] = &st
	repo.db.order = append(repo.db.order, st.ID)
	return st.Clone(), nil
}

func (repo *studentRepository) QueryAllStudents() ([]roster.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]roster.Student, 0, len(repo.db.order))
	for _, id := range repo.db.order {
		students = append(students, repo.db.table[id].Clone())
	}
	return students, nil
}

func (repo *studentRepository) GetStudentByID(id int) (roster.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if st, ok := repo.db.table[id]; ok {
		return st.Clone(), nil
	}
	return roster.Student{}, roster.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(id int, fn func(*roster.Student) error) (roster.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[id]
	if !ok {
		return roster.Student{}, roster.ErrNotFound
	}
	st := orig.Clone()
	if err := fn(&st); err != nil {
		return roster.Student{}, err
	}
	st.ID = id // the key never changes
	repo.db.table[id] = &st
	return st.Clone(), nil
}
