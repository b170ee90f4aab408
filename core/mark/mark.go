package mark

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/ejournal/core"
)

type Kind int

const (
	KindNumeric Kind = iota + 1
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindStatus:
		return "status"
	default:
		return ""
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Severity drives display styling and the grade distribution bands.
type Severity string

const (
	Excellent    Severity = "excellent"
	Good         Severity = "good"
	Satisfactory Severity = "satisfactory"
	Poor         Severity = "poor"
	Failing      Severity = "failing"
	Warning      Severity = "warning"
	Neutral      Severity = "neutral"
)

// Bands are the numeric severities, best first. They partition the numeric range.
var Bands = []Severity{Excellent, Good, Satisfactory, Poor, Failing}

// Category is the attendance meaning of a mark.
type Category string

const (
	Present   Category = "present"
	Excused   Category = "excused"
	Unexcused Category = "unexcused"
	Tardy     Category = "tardy"
)

var Categories = []Category{Present, Excused, Unexcused, Tardy}

// Mark is either a numeric grade or a status code. The zero Mark is an empty cell.
type Mark struct {
	kind  Kind
	grade int
	code  string
}

func Numeric(grade int) Mark { return Mark{kind: KindNumeric, grade: grade} }

// Status returns a status code mark. The code is cleaned but not checked against any vocabulary.
func Status(code string) Mark { return Mark{kind: KindStatus, code: core.CleanString(code)} }

func (m Mark) Kind() Kind         { return m.kind }
func (m Mark) IsZero() bool       { return m.kind == 0 }
func (m Mark) IsNumeric() bool    { return m.kind == KindNumeric }
func (m Mark) IsStatus() bool     { return m.kind == KindStatus }
func (m Mark) Grade() (int, bool) { return m.grade, m.kind == KindNumeric }
func (m Mark) Code() string       { return m.code }

// String is the display form: the literal number or status token, empty for the zero Mark.
func (m Mark) String() string {
	switch m.kind {
	case KindNumeric:
		return strconv.Itoa(m.grade)
	case KindStatus:
		return m.code
	default:
		return ""
	}
}

func (m Mark) MarshalJSON() ([]byte, error) {
	switch m.kind {
	case KindNumeric:
		return json.Marshal(m.grade)
	case KindStatus:
		return json.Marshal(m.code)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts JSON numbers and strings without vocabulary checks.
func (m *Mark) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := FromValue(v)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

var errUnsupportedValue = errors.New("unsupported mark value")

// FromValue converts a decoded value (seed files, JSON) to a Mark without vocabulary checks:
// integral numbers become numeric grades, strings holding an integer too, other strings status codes.
func FromValue(v interface{}) (Mark, error) {
	switch val := v.(type) {
	case nil:
		return Mark{}, nil
	case int:
		return Numeric(val), nil
	case int64:
		return Numeric(int(val)), nil
	case float64:
		if val != math.Trunc(val) {
			return Mark{}, errors.Wrapf(errUnsupportedValue, "%v", val)
		}
		return Numeric(int(val)), nil
	case json.Number:
		i, err := val.Int64()
		if err != nil {
			return Mark{}, errors.Wrapf(errUnsupportedValue, "%v", val)
		}
		return Numeric(int(i)), nil
	case string:
		s := core.CleanString(val)
		if s == "" {
			return Mark{}, nil
		}
		if i, err := strconv.Atoi(s); err == nil {
			return Numeric(i), nil
		}
		return Status(s), nil
	default:
		return Mark{}, errors.Wrapf(errUnsupportedValue, "%T", v)
	}
}

// NumericSeverity returns the band of a numeric grade.
func NumericSeverity(grade int) Severity {
	switch {
	case grade >= 5:
		return Excellent
	case grade >= 4:
		return Good
	case grade >= 3:
		return Satisfactory
	case grade >= 2:
		return Poor
	default:
		return Failing
	}
}
