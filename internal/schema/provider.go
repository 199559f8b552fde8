// Package schema supplies advisory validation markers and completion
// suggestions for hand-edited questionnaire JSON. Nothing here gates parsing
// or saving.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	jsonschemav6 "github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed questionnaire.schema.json
var questionnaireSchema []byte

const schemaURL = "https://survaize.dev/schema/questionnaire.schema.json"

// Severity grades a marker.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Marker is one validation finding. Pointer is a JSON pointer into the
// document; Offset is set for syntax errors only.
type Marker struct {
	Pointer  string   `json:"pointer"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Offset   int64    `json:"offset,omitempty"`
}

func (m Marker) String() string {
	loc := m.Pointer
	if loc == "" {
		loc = "/"
	}
	return fmt.Sprintf("%s %s: %s", m.Severity, loc, m.Message)
}

// Provider validates and completes against the fixed questionnaire schema.
type Provider struct {
	schema *jsonschema.Schema
}

// NewProvider compiles the embedded schema.
func NewProvider() (*Provider, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, bytes.NewReader(questionnaireSchema)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	s, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Provider{schema: s}, nil
}

// MustProvider is NewProvider for the embedded schema, which always compiles.
func MustProvider() *Provider {
	p, err := NewProvider()
	if err != nil {
		panic(err)
	}
	return p
}

// Schema returns the JSON Schema document.
func (p *Provider) Schema() []byte {
	out := make([]byte, len(questionnaireSchema))
	copy(out, questionnaireSchema)
	return out
}

// Validate returns advisory markers for text. Invalid JSON yields a single
// error marker; schema violations yield warnings.
func (p *Provider) Validate(text string) []Marker {
	v, err := jsonschemav6.UnmarshalJSON(strings.NewReader(text))
	if err != nil {
		m := Marker{Message: "Invalid JSON: " + err.Error(), Severity: SeverityError}
		var syntax *json.SyntaxError
		if errors.As(err, &syntax) {
			m.Offset = syntax.Offset
		}
		return []Marker{m}
	}

	err = p.schema.Validate(v)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []Marker{{Message: err.Error(), Severity: SeverityError}}
	}

	seen := make(map[string]bool)
	var markers []Marker
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			key := e.InstanceLocation + "\x00" + e.Message
			if !seen[key] {
				seen[key] = true
				markers = append(markers, Marker{Pointer: e.InstanceLocation, Message: e.Message, Severity: SeverityWarning})
			}
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(verr)

	sort.SliceStable(markers, func(i, j int) bool { return markers[i].Pointer < markers[j].Pointer })
	return markers
}
