package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// at returns text without the "|" marker and the marker's offset.
func at(marked string) (string, int) {
	i := strings.Index(marked, "|")
	return marked[:i] + marked[i+1:], i
}

func labels(suggestions []Suggestion) []string {
	var out []string
	for _, s := range suggestions {
		out = append(out, s.Label)
	}
	return out
}

func TestPointerAt(t *testing.T) {
	tests := []struct {
		name   string
		marked string
		want   string
	}{
		{"root", `{ | "title": "x"}`, ""},
		{"section", `{"sections": [{"id": "A"}, {"id": "B", | }]}`, "/sections/1"},
		{"question", `{"sections": [{"questions": [{"id": "Q1"}, {"id": "Q2"}, {|}]}]}`, "/sections/0/questions/2"},
		{"option", `{"sections":[{"questions":[{"options":[{"code":"1",|"label":"Yes"}]}]}]}`, "/sections/0/questions/0/options/0"},
		{"array", `{"id_fields": ["A", |]}`, "/id_fields"},
		{"incomplete tail", `{"sections": [{"questions": [{"id": "Q1", "te|`, "/sections/0/questions/0"},
		{"escaped key", `{"a/b": {|}}`, "/a~1b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, offset := at(tt.marked)
			got, ok := PointerAt(text, offset)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPointerAt_OutOfRange(t *testing.T) {
	_, ok := PointerAt(`{}`, 10)
	assert.False(t, ok)
	_, ok = PointerAt(`   `, 1)
	assert.False(t, ok)
}

func TestComplete(t *testing.T) {
	tests := []struct {
		name   string
		marked string
		want   []string
	}{
		{
			name:   "empty root",
			marked: `{|}`,
			want:   []string{"title", "description", "id_fields", "sections"},
		},
		{
			name:   "root minus present keys",
			marked: `{"title": "x", | "sections": []}`,
			want:   []string{"description", "id_fields"},
		},
		{
			name:   "key being typed is still offered",
			marked: `{"ti|"}`,
			want:   []string{"title", "description", "id_fields", "sections"},
		},
		{
			name:   "section",
			marked: `{"sections": [{"id": "A", "number": "A", "title": "x", |`,
			want:   []string{"description", "universe", "questions", "occurrences"},
		},
		{
			name:   "numeric question",
			marked: `{"sections":[{"questions":[{"number":"1","id":"Q","text":"q","type":"numeric",|}]}]}`,
			want:   []string{"instructions", "universe", "min_value", "max_value", "decimal_places"},
		},
		{
			name:   "type declared after cursor",
			marked: `{"sections":[{"questions":[{|"number":"1","id":"Q","text":"q","type":"text"}]}]}`,
			want:   []string{"instructions", "universe", "max_length"},
		},
		{
			name:   "question without type",
			marked: `{"sections":[{"questions":[{"id":"Q",|}]}]}`,
			want:   []string{"number", "text", "instructions", "universe", "type"},
		},
		{
			name:   "option",
			marked: `{"sections":[{"questions":[{"type":"single_select","options":[{"code":"1",|}]}]}]}`,
			want:   []string{"label"},
		},
		{
			name:   "type value",
			marked: `{"sections":[{"questions":[{"type": "|"}]}]}`,
			want:   []string{"single_select", "multi_select", "numeric", "text", "date", "location"},
		},
		{
			name:   "type value not yet typed",
			marked: `{"sections":[{"questions":[{"type": |`,
			want:   []string{"single_select", "multi_select", "numeric", "text", "date", "location"},
		},
		{
			name:   "other value",
			marked: `{"title": "|"}`,
			want:   nil,
		},
		{
			name:   "inside array",
			marked: `{"id_fields": [|]}`,
			want:   nil,
		},
	}

	p := MustProvider()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, offset := at(tt.marked)
			assert.Equal(t, tt.want, labels(p.Complete(text, offset)))
		})
	}
}

func TestComplete_TypeValueKind(t *testing.T) {
	text, offset := at(`{"sections":[{"questions":[{"type": "|"}]}]}`)
	suggestions := MustProvider().Complete(text, offset)
	if assert.NotEmpty(t, suggestions) {
		assert.Equal(t, SuggestValue, suggestions[0].Kind)
		assert.Equal(t, "Single select", suggestions[0].Detail)
	}
}
