package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Questionnaire is the structured document produced by an extraction job.
type Questionnaire struct {
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	IDFields    []string  `json:"id_fields"`
	Sections    []Section `json:"sections"`
}

// Section groups related questions. Occurrences > 1 means the section
// repeats, e.g. once per household member.
type Section struct {
	ID          string     `json:"id"`
	Number      string     `json:"number"` // "A", "B1", "II", ...
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Universe    *string    `json:"universe"`
	Questions   []Question `json:"questions"`
	Occurrences int        `json:"occurrences"`
}

// Option is a single answer of a choice question.
type Option struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Format is the source/target format of a questionnaire file.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatJSON  Format = "json"
	FormatCSPro Format = "cspro"
)

// JobHandle identifies a server-side extraction job.
type JobHandle struct {
	ID string `json:"job_id"`
}

// JobState is a step of the single-job lifecycle.
type JobState string

const (
	JobIdle           JobState = "idle"
	JobSubmitting     JobState = "submitting"
	JobAwaitingStream JobState = "awaiting_stream"
	JobStreaming      JobState = "streaming"
	JobSucceeded      JobState = "succeeded"
	JobFailed         JobState = "failed"
)

// Terminal reports whether no transition may leave the state.
func (s JobState) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// ProgressFunc receives progress reports in arrival order.
type ProgressFunc func(percent float64, message string)

// Artifact is a saved questionnaire ready to be written to disk.
type Artifact struct {
	Filename string
	Data     []byte
	Fallback bool // produced locally because the save endpoint failed
}

// Marshal serializes the questionnaire the way the raw editor shows it:
// two-space indented JSON.
func (q *Questionnaire) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(q); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

var errNullDocument = errors.New("questionnaire must be a JSON object, got null")

// ErrModelMismatch marks well-formed JSON that cannot be decoded into a
// Questionnaire, as opposed to a syntax error.
var ErrModelMismatch = errors.New("does not match the questionnaire model")

// ParseQuestionnaire decodes a questionnaire. Only JSON well-formedness and
// the shape of the model are enforced here; schema conformance is advisory.
func ParseQuestionnaire(data []byte) (*Questionnaire, error) {
	if !json.Valid(data) {
		var raw json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, fmt.Errorf("%w: %w", ErrModelMismatch, errNullDocument)
	}
	var q Questionnaire
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelMismatch, err)
	}
	return &q, nil
}

// QuestionIDs returns every question id in document order.
func (q *Questionnaire) QuestionIDs() []string {
	var ids []string
	for _, s := range q.Sections {
		for _, question := range s.Questions {
			ids = append(ids, question.ID)
		}
	}
	return ids
}

// IsIDField reports whether id is listed in the questionnaire's id fields.
func (q *Questionnaire) IsIDField(id string) bool {
	for _, f := range q.IDFields {
		if f == id {
			return true
		}
	}
	return false
}
