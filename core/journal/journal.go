// Package journal assembles a journal session: its roster and lesson plan stores,
// its mark vocabulary and the reference data the presentation selects from.
package journal

import (
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/ejournal/core"
	"github.com/trezcool/ejournal/core/analytics"
	"github.com/trezcool/ejournal/core/calendar"
	"github.com/trezcool/ejournal/core/export"
	"github.com/trezcool/ejournal/core/lesson"
	"github.com/trezcool/ejournal/core/mark"
	"github.com/trezcool/ejournal/core/roster"
)

var (
	// errors
	ErrSubjectNotFound = errors.New("subject not found")
	ErrUnknownClass    = errors.New("unknown class")
)

type Journal struct {
	Roster   *roster.Service
	Lessons  *lesson.Service
	Vocab    *mark.Vocabulary
	Class    string // class shown by default
	Classes  []string
	Subjects []Subject
	Axis     calendar.Axis
}

// LoadSeedFromConfig loads the configured seed file, relative to the working directory,
// or returns the demo seed when none is configured.
func LoadSeedFromConfig(conf *core.Config) (Seed, error) {
	path := conf.Journal.SeedFile
	if path == "" {
		return DefaultSeed(), nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(conf.WorkDir, path)
	}
	return LoadSeed(path)
}

// New seeds the stores backed by the given repositories.
// Marks outside the vocabulary are kept and reported as warnings.
func New(seed Seed, vocab *mark.Vocabulary, students roster.Repository, lessons lesson.Repository, log core.Logger) (*Journal, error) {
	rosterSvc, err := roster.NewService(students, vocab)
	if err != nil {
		return nil, err
	}
	lessonSvc, err := lesson.NewService(lessons)
	if err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(seed.Dates))
	for _, d := range seed.Dates {
		dates = append(dates, dateString(d))
	}
	axis, err := calendar.NewAxis(dates...)
	if err != nil {
		return nil, errors.Wrap(err, "seeding dates")
	}

	sts := make([]roster.Student, 0, len(seed.Students))
	for _, ss := range seed.Students {
		st, err := seedStudent(ss, vocab, log)
		if err != nil {
			return nil, err
		}
		sts = append(sts, st)
	}
	if err = rosterSvc.Seed(sts...); err != nil {
		return nil, err
	}

	recs := make([]lesson.Record, 0, len(seed.Lessons))
	for _, sl := range seed.Lessons {
		recs = append(recs, lesson.Record{
			Date:     calendar.DateKey(dateString(sl.Date)),
			Topic:    sl.Topic,
			Homework: sl.Homework,
		})
	}
	if err = lessonSvc.Seed(recs...); err != nil {
		return nil, err
	}

	jnl := &Journal{
		Roster:   rosterSvc,
		Lessons:  lessonSvc,
		Vocab:    vocab,
		Class:    core.CleanString(seed.Class),
		Subjects: seed.Subjects,
		Axis:     axis,
	}
	for _, c := range seed.Classes {
		if c = core.CleanString(c); c != "" {
			jnl.Classes = append(jnl.Classes, c)
		}
	}
	if jnl.Class == "" && len(jnl.Classes) > 0 {
		jnl.Class = jnl.Classes[0]
	}
	if jnl.Class != "" && !contains(jnl.Classes, jnl.Class) {
		jnl.Classes = append([]string{jnl.Class}, jnl.Classes...)
	}
	return jnl, nil
}

func seedStudent(ss SeedStudent, vocab *mark.Vocabulary, log core.Logger) (roster.Student, error) {
	st := roster.Student{
		ID:         ss.ID,
		Name:       ss.Name,
		Grades:     make(map[calendar.DateKey]mark.Mark, len(ss.Grades)),
		Attendance: ss.Attendance,
	}
	for date, v := range ss.Grades {
		d, err := calendar.ParseDateKey(date)
		if err != nil {
			return roster.Student{}, errors.Wrapf(err, "seeding student %d", ss.ID)
		}
		m, err := mark.FromValue(v)
		if err != nil {
			return roster.Student{}, errors.Wrapf(err, "seeding student %d on %s", ss.ID, d)
		}
		if m.IsZero() {
			continue
		}
		if err := vocab.Validate(m); err != nil && log != nil {
			log.Warn("seed mark outside the vocabulary", map[string]interface{}{
				"student": ss.ID,
				"date":    string(d),
				"mark":    m.String(),
			})
		}
		st.Grades[d] = m
	}
	return st, nil
}

// Subject returns the subject with the given id.
func (jnl *Journal) Subject(id int) (Subject, error) {
	for _, s := range jnl.Subjects {
		if s.ID == id {
			return s, nil
		}
	}
	return Subject{}, errors.Wrapf(ErrSubjectNotFound, "%d", id)
}

// SubjectFromParam resolves a subject from a request or command line parameter: its id,
// or the first subject when empty.
func (jnl *Journal) SubjectFromParam(param string) (Subject, error) {
	if param == "" {
		if len(jnl.Subjects) == 0 {
			return Subject{}, ErrSubjectNotFound
		}
		return jnl.Subjects[0], nil
	}
	id, err := strconv.Atoi(core.CleanString(param))
	if err != nil {
		return Subject{}, core.NewValidationError(
			errors.Wrapf(ErrSubjectNotFound, "%q", param),
			core.FieldError{Field: "subject", Error: "must be a subject id"},
		)
	}
	return jnl.Subject(id)
}

// ResolveClass returns label if it is one of the journal's classes, the default class when empty.
func (jnl *Journal) ResolveClass(label string) (string, error) {
	label = core.CleanString(label)
	if label == "" {
		return jnl.Class, nil
	}
	if !contains(jnl.Classes, label) {
		return "", core.NewValidationError(
			errors.Wrapf(ErrUnknownClass, "%q", label),
			core.FieldError{Field: "class", Error: ErrUnknownClass.Error()},
		)
	}
	return label, nil
}

// Export serializes the current roster of class for the subject selected by subjectParam.
func (jnl *Journal) Export(classLabel, subjectParam string, format export.Format, opts export.Options) (export.Result, error) {
	class, err := jnl.ResolveClass(classLabel)
	if err != nil {
		return export.Result{}, err
	}
	subj, err := jnl.SubjectFromParam(subjectParam)
	if err != nil {
		return export.Result{}, err
	}
	if opts.Vocab == nil {
		opts.Vocab = jnl.Vocab
	}
	exporter, err := export.New(format, opts)
	if err != nil {
		return export.Result{}, err
	}
	students, err := jnl.Roster.Roster()
	if err != nil {
		return export.Result{}, errors.Wrap(err, "querying roster")
	}
	return exporter.Export(students, jnl.Axis, class, subj.Name)
}

// Summarize computes the analytics of the current roster along the journal's axis.
func (jnl *Journal) Summarize(opts analytics.Options) (analytics.Summary, error) {
	students, err := jnl.Roster.Roster()
	if err != nil {
		return analytics.Summary{}, errors.Wrap(err, "querying roster")
	}
	return analytics.Summarize(students, jnl.Axis, jnl.Vocab, opts), nil
}
