package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestion_EveryTypeRoundTrips(t *testing.T) {
	for _, qt := range QuestionTypes {
		t.Run(string(qt), func(t *testing.T) {
			assert.True(t, qt.Known())
			assert.NotEqual(t, "Unknown", qt.Label())

			q := Question{Number: "1", ID: "Q1", Text: "text", Type: qt}
			switch qt {
			case QuestionNumeric:
				q.Numeric = &NumericSpec{}
			case QuestionText:
				q.TextSpec = &TextSpec{}
			case QuestionSingleSelect:
				q.SingleChoice = &SingleChoiceSpec{Options: []Option{{"1", "Yes"}}}
			case QuestionMultiSelect:
				q.MultipleChoice = &MultipleChoiceSpec{Options: []Option{{"1", "Yes"}}}
			case QuestionDate:
				q.Date = &DateSpec{}
			case QuestionLocation:
				q.Location = &LocationSpec{}
			default:
				t.Fatalf("question type %q not handled", qt)
			}

			data, err := json.Marshal(q)
			require.NoError(t, err)

			var back Question
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, q, back)
		})
	}
}

func TestQuestion_FlatWireShape(t *testing.T) {
	input := `{"number":"3","id":"AGE","text":"Age","instructions":null,"universe":"Adults",` +
		`"type":"numeric","min_value":18,"max_value":99,"decimal_places":null}`

	var q Question
	require.NoError(t, json.Unmarshal([]byte(input), &q))

	assert.Equal(t, QuestionNumeric, q.Type)
	require.NotNil(t, q.Numeric)
	assert.Equal(t, 18.0, *q.Numeric.MinValue)
	assert.Equal(t, 99.0, *q.Numeric.MaxValue)
	assert.Nil(t, q.Numeric.DecimalPlaces)
	assert.Equal(t, "Adults", *q.Universe)
	assert.Nil(t, q.TextSpec)
	assert.Nil(t, q.SingleChoice)

	out, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
}

func TestQuestion_NilSpecDefaults(t *testing.T) {
	out, err := json.Marshal(Question{ID: "S", Type: QuestionSingleSelect})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"options":[]`)
}

func TestQuestion_UnknownTypePreserved(t *testing.T) {
	input := `{"number":"9","id":"SIG","text":"Signature","type":"signature","pen":"blue"}`

	var q Question
	require.NoError(t, json.Unmarshal([]byte(input), &q))

	assert.Equal(t, QuestionType("signature"), q.Type)
	assert.False(t, q.Type.Known())
	assert.Equal(t, "Unknown", q.Type.Label())
	assert.Nil(t, q.Options())

	out, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
}

func TestQuestion_Options(t *testing.T) {
	single := Question{Type: QuestionSingleSelect, SingleChoice: &SingleChoiceSpec{Options: []Option{{"1", "A"}}}}
	multi := Question{Type: QuestionMultiSelect, MultipleChoice: &MultipleChoiceSpec{Options: []Option{{"2", "B"}}}}
	text := Question{Type: QuestionText, TextSpec: &TextSpec{}}

	assert.Equal(t, []Option{{"1", "A"}}, single.Options())
	assert.Equal(t, []Option{{"2", "B"}}, multi.Options())
	assert.Nil(t, text.Options())
}
