package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuestionnaire_Check(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(q *Questionnaire)
		want   []string
	}{
		{
			name:   "clean document",
			mutate: func(q *Questionnaire) {},
			want:   nil,
		},
		{
			name:   "unresolved id field",
			mutate: func(q *Questionnaire) { q.IDFields = append(q.IDFields, "MISSING") },
			want:   []string{`id_fields[1]: id field "MISSING" does not match any question id`},
		},
		{
			name:   "duplicate id field",
			mutate: func(q *Questionnaire) { q.IDFields = []string{"HH_ID", "HH_ID"} },
			want:   []string{`id_fields[1]: id field "HH_ID" is listed more than once`},
		},
		{
			name:   "duplicate question id",
			mutate: func(q *Questionnaire) { q.Sections[1].Questions[0].ID = "HH_ID" },
			want:   []string{`sections[1].questions[0]: question id "HH_ID" is already used at sections[0].questions[0]`},
		},
		{
			name:   "occurrences below one",
			mutate: func(q *Questionnaire) { q.Sections[0].Occurrences = 0 },
			want:   []string{`sections[0]: section "A" has occurrences 0, expected at least 1`},
		},
		{
			name: "numeric bounds inverted",
			mutate: func(q *Questionnaire) {
				q.Sections[0].Questions[0].Numeric.MinValue = floatPtr(100)
				q.Sections[0].Questions[0].Numeric.MaxValue = floatPtr(5)
			},
			want: []string{`sections[0].questions[0]: min_value 100 is greater than max_value 5`},
		},
		{
			name:   "choice without options",
			mutate: func(q *Questionnaire) { q.Sections[1].Questions[0].SingleChoice.Options = nil },
			want:   []string{`sections[1].questions[0]: choice question "SEX" has no options`},
		},
		{
			name: "duplicate option code",
			mutate: func(q *Questionnaire) {
				q.Sections[1].Questions[1].MultipleChoice.Options = []Option{{"A", "Radio"}, {"A", "TV"}}
			},
			want: []string{`sections[1].questions[1]: option code "A" is used more than once`},
		},
		{
			name: "unknown question type",
			mutate: func(q *Questionnaire) {
				q.Sections[1].Questions[3] = Question{ID: "GPS", Type: "signature"}
			},
			want: []string{`sections[1].questions[3]: unknown question type "signature"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := sampleQuestionnaire()
			tt.mutate(q)

			var got []string
			for _, w := range q.Check() {
				got = append(got, w.String())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuestionnaire_CheckNil(t *testing.T) {
	var q *Questionnaire
	assert.Nil(t, q.Check())
}
