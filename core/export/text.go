package export

import (
	"bytes"
	"strings"

	"github.com/trezcool/ejournal/core/calendar"
	"github.com/trezcool/ejournal/core/roster"
)

const textContentType = "text/csv; charset=utf-8"

// TextExporter writes the comma separated form of the journal.
// Fields are neither quoted nor escaped: a comma inside a name shifts the columns of its row.
type TextExporter struct {
	opts Options
}

func NewTextExporter(opts Options) *TextExporter {
	return &TextExporter{opts: opts.withDefaults()}
}

func (e *TextExporter) Export(students []roster.Student, axis calendar.Axis, classLabel, subjectLabel string) (Result, error) {
	tbl := buildTable(students, axis, e.opts)

	var buf bytes.Buffer
	writeLine(&buf, tbl.header)
	for _, r := range tbl.rows {
		fields := make([]string, 0, len(tbl.header))
		fields = append(fields, r.name)
		for _, m := range r.marks {
			fields = append(fields, markCell(m))
		}
		fields = append(fields, roster.FormatAverage(r.average), attendanceCell(r.attendance))
		writeLine(&buf, fields)
	}

	return Result{
		Content:     buf.Bytes(),
		Filename:    SuggestedFilename(classLabel, subjectLabel, FormatCSV),
		ContentType: textContentType,
	}, nil
}

func writeLine(buf *bytes.Buffer, fields []string) {
	buf.WriteString(strings.Join(fields, ","))
	buf.WriteByte('\n')
}
