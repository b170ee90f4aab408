package mark

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/ejournal/core"
)

var (
	// errors
	ErrInvalidMark    = errors.New("invalid mark")
	ErrInvalidStatus  = errors.New("invalid status code definition")
	errUnknownVariant = errors.New("unknown status variant")

	suggestMinRatio = .5
)

// Variants of the status vocabulary.
const (
	VariantBasic    = "basic"
	VariantExtended = "extended"
)

// StatusDef describes one accepted status code.
type StatusDef struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
}

var (
	basicStatuses = []StatusDef{
		{Code: "Н", Name: "Не был", Category: Unexcused, Severity: Failing},
		{Code: "УП", Name: "Уважительная причина", Category: Excused, Severity: Neutral},
		{Code: "Б", Name: "Болел", Category: Excused, Severity: Neutral},
		{Code: "О", Name: "Опоздание", Category: Tardy, Severity: Warning},
		{Code: "НА", Name: "Не аттестован", Category: Present, Severity: Neutral},
	}
	extendedStatuses = append(append([]StatusDef{}, basicStatuses...),
		StatusDef{Code: "ОСВ", Name: "Освобождён", Category: Present, Severity: Neutral},
	)

	categorySeverities = map[Category]Severity{
		Present:   Neutral,
		Excused:   Neutral,
		Unexcused: Failing,
		Tardy:     Warning,
	}
)

// Classification is what the display layer and the aggregations need to know about a mark.
type Classification struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Category Category `json:"category"`
}

// Vocabulary is the set of accepted marks: a numeric range plus status codes.
type Vocabulary struct {
	minGrade int
	maxGrade int
	statuses []StatusDef
	index    map[string]StatusDef
}

// NewVocabulary returns a Vocabulary accepting grades in [minGrade, maxGrade] and the given status codes.
func NewVocabulary(minGrade, maxGrade int, statuses ...StatusDef) (voc *Vocabulary, err error) {
	if err = vala.BeginValidation().Validate(
		vala.GreaterThan(maxGrade, minGrade-1, "maxGrade"),
		vala.GreaterThan(len(statuses), 0, "statuses"),
	).Check(); err != nil {
		return nil, errors.Wrap(err, "creating vocabulary")
	}

	voc = &Vocabulary{
		minGrade: minGrade,
		maxGrade: maxGrade,
		statuses: make([]StatusDef, 0, len(statuses)),
		index:    make(map[string]StatusDef, len(statuses)),
	}
	for _, def := range statuses {
		def.Code = core.CleanString(def.Code)
		if def.Code == "" {
			return nil, errors.Wrap(ErrInvalidStatus, "empty code")
		}
		if _, ok := voc.index[def.Code]; ok {
			return nil, errors.Wrapf(ErrInvalidStatus, "duplicate code %q", def.Code)
		}
		if def.Severity == "" {
			def.Severity = categorySeverities[def.Category]
		}
		voc.statuses = append(voc.statuses, def)
		voc.index[def.Code] = def
	}
	return voc, nil
}

// DefaultVocabulary accepts grades 1 to 5 and the basic status codes.
func DefaultVocabulary() *Vocabulary {
	voc, err := NewVocabulary(1, 5, basicStatuses...)
	if err != nil {
		panic(err)
	}
	return voc
}

// VariantStatuses returns the status codes of a named variant.
func VariantStatuses(variant string) ([]StatusDef, error) {
	switch strings.ToLower(strings.TrimSpace(variant)) {
	case "", VariantBasic:
		return append([]StatusDef{}, basicStatuses...), nil
	case VariantExtended:
		return append([]StatusDef{}, extendedStatuses...), nil
	default:
		return nil, errors.Wrapf(errUnknownVariant, "%q", variant)
	}
}

// ParseStatusDefs parses `CODE:category[:severity[:name]]` definitions separated by commas.
func ParseStatusDefs(s string) ([]StatusDef, error) {
	var defs []StatusDef
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, ":", 4)
		if len(parts) < 2 {
			return nil, errors.Wrapf(ErrInvalidStatus, "%q", item)
		}
		def := StatusDef{Code: core.CleanString(parts[0]), Category: Category(core.CleanString(parts[1], true))}
		if !isCategory(def.Category) {
			return nil, errors.Wrapf(ErrInvalidStatus, "%q: unknown category %q", item, parts[1])
		}
		if len(parts) > 2 {
			def.Severity = Severity(core.CleanString(parts[2], true))
			if !isSeverity(def.Severity) {
				return nil, errors.Wrapf(ErrInvalidStatus, "%q: unknown severity %q", item, parts[2])
			}
		}
		if len(parts) > 3 {
			def.Name = core.CleanString(parts[3])
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// LoadVocabulary builds the Vocabulary described by the journal configuration.
// Explicit status codes take precedence over the variant.
func LoadVocabulary(conf core.JournalConfig) (*Vocabulary, error) {
	statuses, err := ParseStatusDefs(conf.StatusCodes)
	if err != nil {
		return nil, errors.Wrap(err, "parsing status codes")
	}
	if len(statuses) == 0 {
		if statuses, err = VariantStatuses(conf.StatusVariant); err != nil {
			return nil, err
		}
	}
	return NewVocabulary(conf.MinGrade, conf.MaxGrade, statuses...)
}

func (voc *Vocabulary) Range() (min, max int) { return voc.minGrade, voc.maxGrade }

// Statuses returns the accepted status codes in definition order.
func (voc *Vocabulary) Statuses() []StatusDef {
	return append([]StatusDef{}, voc.statuses...)
}

func (voc *Vocabulary) Lookup(code string) (StatusDef, bool) {
	def, ok := voc.index[core.CleanString(code)]
	return def, ok
}

// Classify never fails: unknown status codes and empty cells are neutral and count as present.
func (voc *Vocabulary) Classify(m Mark) Classification {
	switch m.Kind() {
	case KindNumeric:
		return Classification{Kind: KindNumeric, Severity: NumericSeverity(m.grade), Category: Present}
	case KindStatus:
		if def, ok := voc.index[m.code]; ok {
			return Classification{Kind: KindStatus, Severity: def.Severity, Category: def.Category}
		}
		return Classification{Kind: KindStatus, Severity: Neutral, Category: Present}
	default:
		return Classification{Severity: Neutral, Category: Present}
	}
}

// Validate is the entry gate for marks: grades must be in range, status codes known.
func (voc *Vocabulary) Validate(m Mark) error {
	switch m.Kind() {
	case KindNumeric:
		if m.grade < voc.minGrade || m.grade > voc.maxGrade {
			return invalidMark(m.String(), fmt.Sprintf("grade must be between %d and %d", voc.minGrade, voc.maxGrade))
		}
		return nil
	case KindStatus:
		if _, ok := voc.index[m.code]; ok {
			return nil
		}
		msg := fmt.Sprintf("unknown status code %q", m.code)
		if s := voc.suggest(m.code); s != "" {
			msg += fmt.Sprintf(", did you mean %q?", s)
		}
		return invalidMark(m.code, msg)
	default:
		return invalidMark("", "mark is empty")
	}
}

// Parse turns user input into a valid Mark.
func (voc *Vocabulary) Parse(s string) (Mark, error) {
	return voc.ParseValue(s)
}

// ParseValue turns a decoded input value (JSON number or string) into a valid Mark.
func (voc *Vocabulary) ParseValue(v interface{}) (Mark, error) {
	m, err := FromValue(v)
	if err != nil {
		return Mark{}, invalidMark(fmt.Sprint(v), "a mark is a whole number or a status code")
	}
	if err = voc.Validate(m); err != nil {
		return Mark{}, err
	}
	return m, nil
}

// suggest returns the known code closest to code, if any is close enough.
func (voc *Vocabulary) suggest(code string) string {
	var (
		best      string
		bestRatio float64
	)
	codes := make([]string, 0, len(voc.index))
	for c := range voc.index {
		codes = append(codes, c)
	}
	sort.Strings(codes)

	upper := strings.ToUpper(code)
	for _, c := range codes {
		ratio := difflib.NewMatcher(strings.Split(upper, ""), strings.Split(c, "")).Ratio()
		if ratio > bestRatio {
			best, bestRatio = c, ratio
		}
	}
	if bestRatio < suggestMinRatio {
		return ""
	}
	return best
}

func invalidMark(value, msg string) error {
	return core.NewValidationError(
		errors.Wrapf(ErrInvalidMark, "%q", value),
		core.FieldError{Field: "mark", Error: msg},
	)
}

func isCategory(c Category) bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

func isSeverity(s Severity) bool {
	switch s {
	case Excellent, Good, Satisfactory, Poor, Failing, Warning, Neutral:
		return true
	}
	return false
}
