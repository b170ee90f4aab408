package mark

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ejournal/core"
)

func TestFromValue(t *testing.T) {
	tests := []struct {
		name    string
		in      interface{}
		want    Mark
		wantErr bool
	}{
		{name: "nil", in: nil, want: Mark{}},
		{name: "int", in: 5, want: Numeric(5)},
		{name: "float64", in: float64(4), want: Numeric(4)},
		{name: "json number", in: json.Number("3"), want: Numeric(3)},
		{name: "numeric string", in: " 2 ", want: Numeric(2)},
		{name: "status", in: "Н", want: Status("Н")},
		{name: "blank string", in: "  ", want: Mark{}},
		{name: "fraction", in: 4.5, wantErr: true},
		{name: "bool", in: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromValue(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMark_JSON(t *testing.T) {
	grades := map[string]Mark{"a": Numeric(5), "b": Status("УП"), "c": {}}
	data, err := json.Marshal(grades)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 5, "b": "УП", "c": null}`, string(data))

	var got map[string]Mark
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, grades, got)
}

func TestMark_String(t *testing.T) {
	assert.Equal(t, "4", Numeric(4).String())
	assert.Equal(t, "О", Status(" О ").String())
	assert.Equal(t, "", Mark{}.String())
	assert.True(t, Mark{}.IsZero())
}

func TestNumericSeverity(t *testing.T) {
	tests := []struct {
		grade int
		want  Severity
	}{
		{5, Excellent},
		{4, Good},
		{3, Satisfactory},
		{2, Poor},
		{1, Failing},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NumericSeverity(tt.grade), "grade %d", tt.grade)
	}
}

func TestVocabulary_Classify(t *testing.T) {
	voc := DefaultVocabulary()

	tests := []struct {
		name string
		mark Mark
		want Classification
	}{
		{name: "excellent", mark: Numeric(5), want: Classification{KindNumeric, Excellent, Present}},
		{name: "failing grade", mark: Numeric(1), want: Classification{KindNumeric, Failing, Present}},
		{name: "absent", mark: Status("Н"), want: Classification{KindStatus, Failing, Unexcused}},
		{name: "excused", mark: Status("УП"), want: Classification{KindStatus, Neutral, Excused}},
		{name: "illness", mark: Status("Б"), want: Classification{KindStatus, Neutral, Excused}},
		{name: "late", mark: Status("О"), want: Classification{KindStatus, Warning, Tardy}},
		{name: "not assessed", mark: Status("НА"), want: Classification{KindStatus, Neutral, Present}},
		{name: "unknown code", mark: Status("XYZ"), want: Classification{KindStatus, Neutral, Present}},
		{name: "empty", mark: Mark{}, want: Classification{Severity: Neutral, Category: Present}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, voc.Classify(tt.mark))
		})
	}
}

func TestVocabulary_Parse(t *testing.T) {
	voc := DefaultVocabulary()

	tests := []struct {
		name     string
		in       string
		want     Mark
		wantErr  bool
		errMatch string
	}{
		{name: "grade", in: "5", want: Numeric(5)},
		{name: "status", in: "Н", want: Status("Н")},
		{name: "out of range", in: "6", wantErr: true, errMatch: "between 1 and 5"},
		{name: "zero", in: "0", wantErr: true, errMatch: "between 1 and 5"},
		{name: "unknown code", in: "XYZ", wantErr: true, errMatch: "unknown status code"},
		{name: "lowercase code", in: "уп", wantErr: true, errMatch: `did you mean "УП"?`},
		{name: "empty", in: "", wantErr: true, errMatch: "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := voc.Parse(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidMark))

				var vErr *core.ValidationError
				require.True(t, errors.As(err, &vErr))
				require.Len(t, vErr.Fields, 1)
				assert.Equal(t, "mark", vErr.Fields[0].Field)
				assert.Contains(t, vErr.Fields[0].Error, tt.errMatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVocabulary_ParseValue(t *testing.T) {
	voc := DefaultVocabulary()

	m, err := voc.ParseValue(float64(3))
	require.NoError(t, err)
	assert.Equal(t, Numeric(3), m)

	_, err = voc.ParseValue(3.5)
	assert.True(t, errors.Is(err, ErrInvalidMark))

	_, err = voc.ParseValue([]int{1})
	assert.True(t, core.IsValidationError(err))
}

func TestNewVocabulary(t *testing.T) {
	_, err := NewVocabulary(5, 1, basicStatuses...)
	assert.Error(t, err, "inverted range")

	_, err = NewVocabulary(1, 5)
	assert.Error(t, err, "no statuses")

	_, err = NewVocabulary(1, 5, StatusDef{Code: "Н"}, StatusDef{Code: " Н "})
	assert.True(t, errors.Is(err, ErrInvalidStatus), "duplicate")

	voc, err := NewVocabulary(1, 10, StatusDef{Code: "X", Category: Tardy})
	require.NoError(t, err)
	min, max := voc.Range()
	assert.Equal(t, 1, min)
	assert.Equal(t, 10, max)
	assert.Equal(t, Warning, voc.Classify(Status("X")).Severity, "severity defaults from category")
}

func TestParseStatusDefs(t *testing.T) {
	defs, err := ParseStatusDefs("Н:unexcused, ДО:present:neutral:Дистанционно,")
	require.NoError(t, err)
	assert.Equal(t, []StatusDef{
		{Code: "Н", Category: Unexcused},
		{Code: "ДО", Name: "Дистанционно", Category: Present, Severity: Neutral},
	}, defs)

	_, err = ParseStatusDefs("Н")
	assert.True(t, errors.Is(err, ErrInvalidStatus))
	_, err = ParseStatusDefs("Н:away")
	assert.True(t, errors.Is(err, ErrInvalidStatus))
	_, err = ParseStatusDefs("Н:present:awful")
	assert.True(t, errors.Is(err, ErrInvalidStatus))
}

func TestLoadVocabulary(t *testing.T) {
	tests := []struct {
		name      string
		conf      core.JournalConfig
		wantCodes []string
		wantErr   bool
	}{
		{
			name:      "basic",
			conf:      core.JournalConfig{MinGrade: 1, MaxGrade: 5, StatusVariant: VariantBasic},
			wantCodes: []string{"Н", "УП", "Б", "О", "НА"},
		},
		{
			name:      "extended",
			conf:      core.JournalConfig{MinGrade: 1, MaxGrade: 5, StatusVariant: "Extended"},
			wantCodes: []string{"Н", "УП", "Б", "О", "НА", "ОСВ"},
		},
		{
			name:      "explicit codes win",
			conf:      core.JournalConfig{MinGrade: 1, MaxGrade: 5, StatusVariant: VariantExtended, StatusCodes: "A:unexcused,L:tardy"},
			wantCodes: []string{"A", "L"},
		},
		{
			name:    "unknown variant",
			conf:    core.JournalConfig{MinGrade: 1, MaxGrade: 5, StatusVariant: "fancy"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			voc, err := LoadVocabulary(tt.conf)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			var codes []string
			for _, def := range voc.Statuses() {
				codes = append(codes, def.Code)
			}
			assert.Equal(t, tt.wantCodes, codes)
		})
	}
}
