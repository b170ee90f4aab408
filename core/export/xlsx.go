package export

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/ejournal/core/calendar"
	"github.com/trezcool/ejournal/core/mark"
	"github.com/trezcool/ejournal/core/roster"
)

const (
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	defaultSheetName = "Journal"
	maxSheetNameLen  = 31
)

var (
	severityColors = map[mark.Severity]string{
		mark.Excellent:    "C6EFCE",
		mark.Good:         "DDEBF7",
		mark.Satisfactory: "FFF2CC",
		mark.Poor:         "F8CBAD",
		mark.Failing:      "FFC7CE",
		mark.Warning:      "FFE699",
		mark.Neutral:      "EDEDED",
	}

	averageFmt    = "0.0"
	attendanceFmt = `0"%"`

	sheetNameReplacer = strings.NewReplacer(":", " ", `\`, " ", "/", " ", "?", " ", "*", " ", "[", " ", "]", " ")
)

// XLSXExporter writes the journal as a workbook with one sheet named after the subject.
// Grades and averages are numeric cells, marks are coloured by severity.
type XLSXExporter struct {
	opts Options
}

func NewXLSXExporter(opts Options) *XLSXExporter {
	return &XLSXExporter{opts: opts.withDefaults()}
}

type xlsxStyles struct {
	header     int
	average    int
	attendance int
	severities map[mark.Severity]int
}

func (e *XLSXExporter) Export(students []roster.Student, axis calendar.Axis, classLabel, subjectLabel string) (Result, error) {
	tbl := buildTable(students, axis, e.opts)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := SheetName(subjectLabel)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return Result{}, errors.Wrap(err, "naming sheet")
	}
	styles, err := newXLSXStyles(f)
	if err != nil {
		return Result{}, err
	}

	for col, title := range tbl.header {
		if err := setCell(f, sheet, col+1, 1, title, styles.header); err != nil {
			return Result{}, err
		}
	}
	for i, r := range tbl.rows {
		rowNum := i + 2
		if err := setCell(f, sheet, 1, rowNum, r.name, 0); err != nil {
			return Result{}, err
		}
		for j, m := range r.marks {
			var value interface{} = markCell(m)
			if g, ok := m.Grade(); ok {
				value = g
			}
			style := styles.severities[e.opts.Vocab.Classify(m).Severity]
			if m.IsZero() {
				style = 0
			}
			if err := setCell(f, sheet, j+2, rowNum, value, style); err != nil {
				return Result{}, err
			}
		}
		if err := setCell(f, sheet, len(r.marks)+2, rowNum, r.average, styles.average); err != nil {
			return Result{}, err
		}
		if err := setCell(f, sheet, len(r.marks)+3, rowNum, r.attendance, styles.attendance); err != nil {
			return Result{}, err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(tbl.header))
	if err != nil {
		return Result{}, errors.WithStack(err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
		return Result{}, errors.WithStack(err)
	}
	if len(tbl.header) > 1 {
		if err := f.SetColWidth(sheet, "B", lastCol, 12); err != nil {
			return Result{}, errors.WithStack(err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return Result{}, errors.Wrap(err, "writing workbook")
	}
	return Result{
		Content:     buf.Bytes(),
		Filename:    SuggestedFilename(classLabel, subjectLabel, FormatXLSX),
		ContentType: xlsxContentType,
	}, nil
}

// SheetName turns a subject label into a valid worksheet name.
func SheetName(subjectLabel string) string {
	name := strings.Join(strings.Fields(sheetNameReplacer.Replace(subjectLabel)), " ")
	if runes := []rune(name); len(runes) > maxSheetNameLen {
		name = string(runes[:maxSheetNameLen])
	}
	if name == "" {
		return defaultSheetName
	}
	return name
}

func newXLSXStyles(f *excelize.File) (styles xlsxStyles, err error) {
	if styles.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return styles, errors.Wrap(err, "creating header style")
	}
	if styles.average, err = f.NewStyle(&excelize.Style{CustomNumFmt: &averageFmt}); err != nil {
		return styles, errors.Wrap(err, "creating average style")
	}
	if styles.attendance, err = f.NewStyle(&excelize.Style{CustomNumFmt: &attendanceFmt}); err != nil {
		return styles, errors.Wrap(err, "creating attendance style")
	}

	styles.severities = make(map[mark.Severity]int, len(severityColors))
	for sev, color := range severityColors {
		id, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		if err != nil {
			return styles, errors.Wrapf(err, "creating %s style", sev)
		}
		styles.severities[sev] = id
	}
	return styles, nil
}

func setCell(f *excelize.File, sheet string, col, row int, value interface{}, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return errors.Wrapf(err, "setting cell %s", cell)
	}
	if style != 0 {
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return errors.Wrapf(err, "styling cell %s", cell)
		}
	}
	return nil
}
