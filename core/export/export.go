package export

import (
	"strconv"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/ejournal/core"
	"github.com/trezcool/ejournal/core/calendar"
	"github.com/trezcool/ejournal/core/mark"
	"github.com/trezcool/ejournal/core/roster"
)

// EmptyCell is written for dates without a mark.
const EmptyCell = "—"

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var (
	// errors
	ErrUnknownFormat = errors.New("format must be one of: csv, xlsx")

	formatTag = "exportformat"
)

type (
	Format string

	// Labels are the titles of the fixed columns.
	Labels struct {
		Student    string
		Average    string
		Attendance string
	}

	Options struct {
		Labels     Labels
		FormatDate calendar.Formatter // defaults to DD.MM
		Vocab      *mark.Vocabulary   // classifies marks for styling; defaults to the basic vocabulary
	}

	// Result is an export ready to be handed over for delivery.
	Result struct {
		Content     []byte
		Filename    string
		ContentType string
	}

	// Exporter serializes a roster along a date axis.
	Exporter interface {
		Export(students []roster.Student, axis calendar.Axis, classLabel, subjectLabel string) (Result, error)
	}
)

func DefaultLabels() Labels {
	return Labels{Student: "Ученик", Average: "Средний балл", Attendance: "Посещаемость"}
}

// LabelsFromConfig returns the configured labels, defaulting the missing ones.
func LabelsFromConfig(conf core.ExportConfig) Labels {
	labels := DefaultLabels()
	if s := core.CleanString(conf.StudentLabel); s != "" {
		labels.Student = s
	}
	if s := core.CleanString(conf.AverageLabel); s != "" {
		labels.Average = s
	}
	if s := core.CleanString(conf.AttendanceLabel); s != "" {
		labels.Attendance = s
	}
	return labels
}

func ParseFormat(s string) (Format, error) {
	f := Format(core.CleanString(s, true /* lower */))
	switch f {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", core.NewValidationError(
			errors.Wrapf(ErrUnknownFormat, "%q", s),
			core.FieldError{Field: "format", Error: ErrUnknownFormat.Error()},
		)
	}
}

// New returns the Exporter of the given format.
func New(format Format, opts Options) (Exporter, error) {
	switch format {
	case FormatCSV:
		return NewTextExporter(opts), nil
	case FormatXLSX:
		return NewXLSXExporter(opts), nil
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
}

// SuggestedFilename names an export after its class and subject, e.g. journal_10А_Русский_язык.csv.
func SuggestedFilename(classLabel, subjectLabel string, format Format) string {
	name := "journal"
	for _, part := range []string{classLabel, subjectLabel} {
		if fields := strings.Fields(part); len(fields) > 0 {
			name += "_" + strings.Join(fields, "_")
		}
	}
	return name + "." + string(format)
}

// RegisterValidators registers the `exportformat` validation tag.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(formatTag, func(fl validator.FieldLevel) bool {
		_, err := ParseFormat(fl.Field().String())
		return err == nil
	})
	core.RegisterCustomTranslation(validate, translator, formatTag, ErrUnknownFormat.Error())
}

func (o Options) withDefaults() Options {
	if o.Labels == (Labels{}) {
		o.Labels = DefaultLabels()
	}
	if o.FormatDate == nil {
		o.FormatDate = calendar.ShortFormatter
	}
	if o.Vocab == nil {
		o.Vocab = mark.DefaultVocabulary()
	}
	return o
}

// table is the exported grid: a header then one row per student.
type table struct {
	header []string
	rows   []row
}

type row struct {
	name       string
	marks      []mark.Mark
	average    float64
	attendance int
}

func buildTable(students []roster.Student, axis calendar.Axis, opts Options) table {
	header := make([]string, 0, len(axis)+3)
	header = append(header, opts.Labels.Student)
	for _, d := range axis {
		header = append(header, opts.FormatDate(d))
	}
	header = append(header, opts.Labels.Average, opts.Labels.Attendance)

	rows := make([]row, 0, len(students))
	for _, st := range students {
		r := row{
			name:       st.Name,
			marks:      make([]mark.Mark, len(axis)),
			average:    st.AverageGrade,
			attendance: st.Attendance,
		}
		for i, d := range axis {
			r.marks[i] = st.Mark(d)
		}
		rows = append(rows, r)
	}
	return table{header: header, rows: rows}
}

func markCell(m mark.Mark) string {
	if m.IsZero() {
		return EmptyCell
	}
	return m.String()
}

func attendanceCell(percent int) string {
	return strconv.Itoa(percent) + "%"
}
