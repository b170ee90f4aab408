package journal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/ejournal/core"
)

var (
	// errors
	ErrInvalidSeed = errors.New("invalid seed")

	seedExts = []string{".yaml", ".yml", ".json", ".toml"}
)

type (
	Subject struct {
		ID      int    `json:"id" mapstructure:"id"`
		Name    string `json:"name" mapstructure:"name"`
		Teacher string `json:"teacher" mapstructure:"teacher"`
	}

	// Seed is the initial state of a journal session.
	// Grades hold raw values: numbers for grades, strings for status codes.
	Seed struct {
		Class    string        `mapstructure:"class"`
		Classes  []string      `mapstructure:"classes"`
		Subjects []Subject     `mapstructure:"subjects"`
		Dates    []interface{} `mapstructure:"dates"`
		Students []SeedStudent `mapstructure:"students"`
		Lessons  []SeedLesson  `mapstructure:"lessons"`
	}

	SeedStudent struct {
		ID         int                    `mapstructure:"id"`
		Name       string                 `mapstructure:"name"`
		Attendance int                    `mapstructure:"attendance"`
		Grades     map[string]interface{} `mapstructure:"grades"`
	}

	SeedLesson struct {
		Date     interface{} `mapstructure:"date"`
		Topic    string      `mapstructure:"topic"`
		Homework string      `mapstructure:"homework"`
	}
)

// DefaultSubjects are the subjects of the demo journal.
func DefaultSubjects() []Subject {
	return []Subject{
		{ID: 1, Name: "Математика", Teacher: "Смирнова О.П."},
		{ID: 2, Name: "Русский язык", Teacher: "Козлова Е.А."},
		{ID: 3, Name: "Физика", Teacher: "Петров А.И."},
	}
}

// DefaultSeed is the demo journal used when no seed file is configured.
func DefaultSeed() Seed {
	return Seed{
		Class:    "10А",
		Classes:  []string{"10А", "10Б", "11А"},
		Subjects: DefaultSubjects(),
		Dates:    []interface{}{"2024-09-15", "2024-09-16", "2024-09-17", "2024-09-18"},
		Students: []SeedStudent{
			{
				ID: 1, Name: "Иванов Алексей", Attendance: 85,
				Grades: map[string]interface{}{"2024-09-15": 5, "2024-09-16": 4, "2024-09-17": "Н", "2024-09-18": 5},
			},
			{
				ID: 2, Name: "Петрова Мария", Attendance: 95,
				Grades: map[string]interface{}{"2024-09-15": 4, "2024-09-16": 5, "2024-09-17": "УП", "2024-09-18": 4},
			},
			{
				ID: 3, Name: "Сидоров Николай", Attendance: 78,
				Grades: map[string]interface{}{"2024-09-15": 3, "2024-09-16": 4, "2024-09-17": 3, "2024-09-18": "О"},
			},
		},
	}
}

// LoadSeed reads a seed file: YAML, JSON or TOML through viper, or an XLSX roster workbook.
func LoadSeed(path string) (Seed, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xlsx" {
		f, err := os.Open(path)
		if err != nil {
			return Seed{}, errors.Wrap(err, "opening seed")
		}
		defer f.Close()
		return ReadXLSXSeed(f)
	}

	if !contains(seedExts, ext) {
		return Seed{}, errors.Wrapf(ErrInvalidSeed, "unsupported file type %q", ext)
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Seed{}, errors.Wrap(err, "reading seed")
	}
	var seed Seed
	if err := v.Unmarshal(&seed); err != nil {
		return Seed{}, errors.Wrap(err, "decoding seed")
	}
	return seed, nil
}

// ReadXLSXSeed reads a roster from the first sheet of a workbook. The sheet is named after the class,
// its header row is `id, name, attendance` followed by one YYYY-MM-DD column per lesson date.
func ReadXLSXSeed(r io.Reader) (Seed, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Seed{}, errors.Wrap(err, "opening workbook")
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return Seed{}, errors.Wrap(ErrInvalidSeed, "workbook has no sheet")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Seed{}, errors.Wrapf(err, "reading sheet %s", sheet)
	}
	if len(rows) == 0 || len(rows[0]) < 3 {
		return Seed{}, errors.Wrap(ErrInvalidSeed, "header must start with: id, name, attendance")
	}

	class := core.CleanString(sheet)
	seed := Seed{Class: class, Classes: []string{class}, Subjects: DefaultSubjects()}
	header := rows[0]
	for _, d := range header[3:] {
		seed.Dates = append(seed.Dates, core.CleanString(d))
	}

	for i, row := range rows[1:] {
		if len(row) == 0 || strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		cell := func(col int) string {
			if col < len(row) {
				return core.CleanString(row[col])
			}
			return ""
		}

		id, err := strconv.Atoi(cell(0))
		if err != nil {
			return Seed{}, errors.Wrapf(ErrInvalidSeed, "row %d: invalid id %q", i+2, cell(0))
		}
		st := SeedStudent{ID: id, Name: cell(1), Grades: make(map[string]interface{})}
		if att := strings.TrimSuffix(cell(2), "%"); att != "" {
			if st.Attendance, err = strconv.Atoi(att); err != nil {
				return Seed{}, errors.Wrapf(ErrInvalidSeed, "row %d: invalid attendance %q", i+2, cell(2))
			}
		}
		for j := range header[3:] {
			if v := cell(j + 3); v != "" {
				st.Grades[core.CleanString(header[j+3])] = v
			}
		}
		seed.Students = append(seed.Students, st)
	}
	return seed, nil
}

// WriteXLSXSeed is the inverse of ReadXLSXSeed, used to produce roster templates.
func WriteXLSXSeed(seed Seed) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := seed.Class
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, errors.WithStack(err)
	}

	header := []interface{}{"id", "name", "attendance"}
	dates := make([]string, 0, len(seed.Dates))
	for _, d := range seed.Dates {
		ds := dateString(d)
		dates = append(dates, ds)
		header = append(header, ds)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, errors.WithStack(err)
	}
	for i, st := range seed.Students {
		row := []interface{}{st.ID, st.Name, st.Attendance}
		for _, d := range dates {
			row = append(row, st.Grades[d])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	return f.WriteToBuffer()
}

// dateString accepts the forms a date takes once decoded from a seed file.
func dateString(v interface{}) string {
	switch d := v.(type) {
	case time.Time:
		return d.Format(core.DateKeyLayout)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(d))
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
