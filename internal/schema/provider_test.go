package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/survaize/survaize-client/internal/domain"
)

const validDocument = `{
  "title": "Household Survey",
  "description": null,
  "id_fields": ["HH"],
  "sections": [
    {
      "id": "A",
      "number": "A",
      "title": "Identification",
      "description": null,
      "universe": null,
      "occurrences": 1,
      "questions": [
        {"number": "1", "id": "HH", "text": "Household", "instructions": null, "universe": null,
         "type": "numeric", "min_value": 1, "max_value": null, "decimal_places": 0},
        {"number": "2", "id": "SEX", "text": "Sex", "instructions": null, "universe": null,
         "type": "single_select", "options": [{"code": "1", "label": "Male"}]},
        {"number": "3", "id": "DOB", "text": "Born", "instructions": null, "universe": null,
         "type": "date", "min_date": "1900-01-01", "max_date": null}
      ]
    }
  ]
}`

func TestProvider_SchemaIsJSON(t *testing.T) {
	p := MustProvider()
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(p.Schema(), &doc))
	assert.Equal(t, "Questionnaire", doc["title"])
}

func TestProvider_ValidateValid(t *testing.T) {
	p := MustProvider()
	assert.Empty(t, p.Validate(validDocument))
}

func TestProvider_ValidatesSerializedModel(t *testing.T) {
	lo, hi := 18.0, 65.0
	q := &domain.Questionnaire{
		Title: "Survey",
		Sections: []domain.Section{{
			ID: "A", Number: "A", Title: "Main", Occurrences: 1,
			Questions: []domain.Question{
				{Number: "1", ID: "AGE", Text: "Age", Type: domain.QuestionNumeric,
					Numeric: &domain.NumericSpec{MinValue: &lo, MaxValue: &hi}},
				{Number: "2", ID: "NAME", Text: "Name", Type: domain.QuestionText, TextSpec: &domain.TextSpec{}},
				{Number: "3", ID: "ASSETS", Text: "Assets", Type: domain.QuestionMultiSelect,
					MultipleChoice: &domain.MultipleChoiceSpec{Options: []domain.Option{{Code: "A", Label: "Radio"}}}},
				{Number: "4", ID: "GPS", Text: "Where", Type: domain.QuestionLocation, Location: &domain.LocationSpec{}},
			},
		}},
	}
	data, err := q.Marshal()
	require.NoError(t, err)

	assert.Empty(t, MustProvider().Validate(string(data)))
}

func TestProvider_ValidateMarkers(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantPointer string
		wantMessage string
	}{
		{
			name:        "missing title",
			text:        `{"sections": []}`,
			wantPointer: "",
			wantMessage: "title",
		},
		{
			name:        "unknown question type",
			text:        `{"title":"t","sections":[{"id":"A","number":"A","title":"x","questions":[{"number":"1","id":"Q","text":"q","type":"signature"}]}]}`,
			wantPointer: "/sections/0/questions/0/type",
		},
		{
			name:        "occurrences below one",
			text:        `{"title":"t","sections":[{"id":"A","number":"A","title":"x","questions":[],"occurrences":0}]}`,
			wantPointer: "/sections/0/occurrences",
		},
		{
			name:        "choice without options",
			text:        `{"title":"t","sections":[{"id":"A","number":"A","title":"x","questions":[{"number":"1","id":"Q","text":"q","type":"single_select"}]}]}`,
			wantPointer: "/sections/0/questions/0",
			wantMessage: "options",
		},
		{
			name:        "field of another variant",
			text:        `{"title":"t","sections":[{"id":"A","number":"A","title":"x","questions":[{"number":"1","id":"Q","text":"q","type":"text","min_value":3}]}]}`,
			wantPointer: "/sections/0/questions/0",
			wantMessage: "min_value",
		},
		{
			name:        "bad date",
			text:        `{"title":"t","sections":[{"id":"A","number":"A","title":"x","questions":[{"number":"1","id":"Q","text":"q","type":"date","min_date":"01/02/2000"}]}]}`,
			wantPointer: "/sections/0/questions/0/min_date",
		},
	}

	p := MustProvider()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			markers := p.Validate(tt.text)
			require.NotEmpty(t, markers)

			var match *Marker
			for i := range markers {
				m := markers[i]
				if !strings.HasPrefix(m.Pointer, tt.wantPointer) {
					continue
				}
				if tt.wantMessage != "" && !strings.Contains(m.Pointer+" "+m.Message, tt.wantMessage) {
					continue
				}
				match = &markers[i]
				break
			}
			require.NotNil(t, match, "markers: %v", markers)
			assert.Equal(t, SeverityWarning, match.Severity)
		})
	}
}

func TestProvider_ValidateSyntaxError(t *testing.T) {
	markers := MustProvider().Validate(`{"title": "x",`)
	require.Len(t, markers, 1)
	assert.Equal(t, SeverityError, markers[0].Severity)
	assert.True(t, strings.HasPrefix(markers[0].Message, "Invalid JSON"))
}

func TestProvider_ValidateDoesNotMutate(t *testing.T) {
	text := `{"title": 5}`
	before := strings.Clone(text)
	_ = MustProvider().Validate(text)
	assert.Equal(t, before, text)
}
