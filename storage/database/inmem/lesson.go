package inmemdb

import (
	"github.com/trezcool/ejournal/core/calendar"
	"github.com/trezcool/ejournal/core/lesson"
)

type lessonRepository struct {
	db *lessonTable
}

func NewLessonRepository(db *DB) lesson.Repository {
	return &lessonRepository{db: db.lesson}
}

func (repo *lessonRepository) SaveLesson(rec lesson.Record) (lesson.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.table[rec.Date] = &rec
	return rec, nil
}

func (repo *lessonRepository) GetLesson(date calendar.DateKey) (lesson.Record, bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rec, ok := repo.db.table[date]; ok {
		return *rec, true, nil
	}
	return lesson.Record{}, false, nil
}

func (repo *lessonRepository) UpdateLesson(date calendar.DateKey, fn func(*lesson.Record)) (lesson.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rec := lesson.Record{Date: date}
	if orig, ok := repo.db.table[date]; ok {
		rec = *orig
	}
	fn(&rec)
	repo.db.table[date] = &rec
	return rec, nil
}
