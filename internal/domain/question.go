package domain

import (
	"encoding/json"
	"fmt"
)

// QuestionType is the wire discriminator of a question.
type QuestionType string

const (
	QuestionSingleSelect QuestionType = "single_select"
	QuestionMultiSelect  QuestionType = "multi_select"
	QuestionNumeric      QuestionType = "numeric"
	QuestionText         QuestionType = "text"
	QuestionDate         QuestionType = "date"
	QuestionLocation     QuestionType = "location"
)

// QuestionTypes lists every supported question kind.
var QuestionTypes = []QuestionType{
	QuestionSingleSelect,
	QuestionMultiSelect,
	QuestionNumeric,
	QuestionText,
	QuestionDate,
	QuestionLocation,
}

// Known reports whether t is one of QuestionTypes.
func (t QuestionType) Known() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Label is the human-readable name of the question kind.
func (t QuestionType) Label() string {
	switch t {
	case QuestionSingleSelect:
		return "Single select"
	case QuestionMultiSelect:
		return "Multi select"
	case QuestionNumeric:
		return "Numeric"
	case QuestionText:
		return "Text"
	case QuestionDate:
		return "Date"
	case QuestionLocation:
		return "Location"
	default:
		return "Unknown"
	}
}

// NumericSpec holds the constraints of a numeric question.
type NumericSpec struct {
	MinValue      *float64 `json:"min_value"`
	MaxValue      *float64 `json:"max_value"`
	DecimalPlaces *int     `json:"decimal_places"`
}

// TextSpec holds the constraints of a text question.
type TextSpec struct {
	MaxLength *int `json:"max_length"`
}

// SingleChoiceSpec holds the options of a single select question.
type SingleChoiceSpec struct {
	Options []Option `json:"options"`
}

// MultipleChoiceSpec holds the options and selection bounds of a multi select question.
type MultipleChoiceSpec struct {
	Options       []Option `json:"options"`
	MinSelections *int     `json:"min_selections"`
	MaxSelections *int     `json:"max_selections"`
}

// DateSpec holds the ISO date bounds of a date question.
type DateSpec struct {
	MinDate *string `json:"min_date"`
	MaxDate *string `json:"max_date"`
}

// LocationSpec holds the coordinates of a location question.
type LocationSpec struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Question is a tagged union: Type selects which of the variant pointers is
// set. Questions with an unrecognized type keep their original JSON in Raw so
// that hand edits survive a round trip.
type Question struct {
	Number       string
	ID           string
	Text         string
	Instructions *string
	Universe     *string
	Type         QuestionType

	Numeric        *NumericSpec
	TextSpec       *TextSpec
	SingleChoice   *SingleChoiceSpec
	MultipleChoice *MultipleChoiceSpec
	Date           *DateSpec
	Location       *LocationSpec

	Raw json.RawMessage
}

// questionBase is the part shared by every variant on the wire.
type questionBase struct {
	Number       string       `json:"number"`
	ID           string       `json:"id"`
	Text         string       `json:"text"`
	Instructions *string      `json:"instructions"`
	Universe     *string      `json:"universe"`
	Type         QuestionType `json:"type"`
}

// Options returns the options of a choice question, nil otherwise.
func (q *Question) Options() []Option {
	switch q.Type {
	case QuestionSingleSelect:
		if q.SingleChoice != nil {
			return q.SingleChoice.Options
		}
	case QuestionMultiSelect:
		if q.MultipleChoice != nil {
			return q.MultipleChoice.Options
		}
	}
	return nil
}

// MarshalJSON flattens the variant fields next to the shared ones.
func (q Question) MarshalJSON() ([]byte, error) {
	base := questionBase{
		Number:       q.Number,
		ID:           q.ID,
		Text:         q.Text,
		Instructions: q.Instructions,
		Universe:     q.Universe,
		Type:         q.Type,
	}

	switch q.Type {
	case QuestionNumeric:
		spec := q.Numeric
		if spec == nil {
			spec = &NumericSpec{}
		}
		return json.Marshal(struct {
			questionBase
			*NumericSpec
		}{base, spec})
	case QuestionText:
		spec := q.TextSpec
		if spec == nil {
			spec = &TextSpec{}
		}
		return json.Marshal(struct {
			questionBase
			*TextSpec
		}{base, spec})
	case QuestionSingleSelect:
		spec := q.SingleChoice
		if spec == nil {
			spec = &SingleChoiceSpec{Options: []Option{}}
		}
		return json.Marshal(struct {
			questionBase
			*SingleChoiceSpec
		}{base, spec})
	case QuestionMultiSelect:
		spec := q.MultipleChoice
		if spec == nil {
			spec = &MultipleChoiceSpec{Options: []Option{}}
		}
		return json.Marshal(struct {
			questionBase
			*MultipleChoiceSpec
		}{base, spec})
	case QuestionDate:
		spec := q.Date
		if spec == nil {
			spec = &DateSpec{}
		}
		return json.Marshal(struct {
			questionBase
			*DateSpec
		}{base, spec})
	case QuestionLocation:
		spec := q.Location
		if spec == nil {
			spec = &LocationSpec{}
		}
		return json.Marshal(struct {
			questionBase
			*LocationSpec
		}{base, spec})
	default:
		if len(q.Raw) > 0 {
			return q.Raw, nil
		}
		return json.Marshal(base)
	}
}

// UnmarshalJSON inspects the "type" discriminator and decodes the matching variant.
func (q *Question) UnmarshalJSON(data []byte) error {
	var base questionBase
	if err := json.Unmarshal(data, &base); err != nil {
		return err
	}

	out := Question{
		Number:       base.Number,
		ID:           base.ID,
		Text:         base.Text,
		Instructions: base.Instructions,
		Universe:     base.Universe,
		Type:         base.Type,
	}

	var err error
	switch base.Type {
	case QuestionNumeric:
		out.Numeric = &NumericSpec{}
		err = json.Unmarshal(data, out.Numeric)
	case QuestionText:
		out.TextSpec = &TextSpec{}
		err = json.Unmarshal(data, out.TextSpec)
	case QuestionSingleSelect:
		out.SingleChoice = &SingleChoiceSpec{}
		err = json.Unmarshal(data, out.SingleChoice)
	case QuestionMultiSelect:
		out.MultipleChoice = &MultipleChoiceSpec{}
		err = json.Unmarshal(data, out.MultipleChoice)
	case QuestionDate:
		out.Date = &DateSpec{}
		err = json.Unmarshal(data, out.Date)
	case QuestionLocation:
		out.Location = &LocationSpec{}
		err = json.Unmarshal(data, out.Location)
	default:
		out.Raw = append(json.RawMessage(nil), data...)
	}
	if err != nil {
		return fmt.Errorf("question %q (%s): %w", base.ID, base.Type, err)
	}

	*q = out
	return nil
}
