package editor

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/survaize/survaize-client/internal/domain"
)

// Placeholder is shown when no document is loaded.
const Placeholder = "No questionnaire loaded. Please open a questionnaire file."

// RenderStructured writes the read-only, human-readable view of q.
func RenderStructured(w io.Writer, q *domain.Questionnaire) error {
	bw := bufio.NewWriter(w)
	p := func(indent int, format string, args ...interface{}) {
		bw.WriteString(strings.Repeat("  ", indent))
		fmt.Fprintf(bw, format, args...)
		bw.WriteByte('\n')
	}

	p(0, "%s", q.Title)
	if q.Description != nil && *q.Description != "" {
		p(0, "%s", *q.Description)
	}
	if len(q.IDFields) > 0 {
		p(0, "ID Fields: %s", strings.Join(q.IDFields, ", "))
	}

	for _, s := range q.Sections {
		bw.WriteByte('\n')
		p(0, "%s: %s", s.Number, s.Title)
		if s.Description != nil && *s.Description != "" {
			p(1, "%s", *s.Description)
		}
		if s.Universe != nil && *s.Universe != "" {
			p(1, "Universe: %s", *s.Universe)
		}
		if s.Occurrences > 1 {
			p(1, "Repeats: up to %d times", s.Occurrences)
		}

		for i := range s.Questions {
			bw.WriteByte('\n')
			renderQuestion(p, &s.Questions[i], q.IsIDField(s.Questions[i].ID))
		}
	}

	if warnings := q.Check(); len(warnings) > 0 {
		bw.WriteByte('\n')
		p(0, "Warnings:")
		for _, warn := range warnings {
			p(1, "- %s", warn)
		}
	}
	return bw.Flush()
}

func renderQuestion(p func(int, string, ...interface{}), q *domain.Question, isID bool) {
	header := fmt.Sprintf("%s [%s] (%s)", q.Number, q.ID, q.Type.Label())
	if isID {
		header += " (id)"
	}
	p(1, "%s", header)
	p(2, "%s", q.Text)
	if q.Instructions != nil && *q.Instructions != "" {
		p(2, "Instructions: %s", *q.Instructions)
	}
	if q.Universe != nil && *q.Universe != "" {
		p(2, "Universe: %s", *q.Universe)
	}

	switch q.Type {
	case domain.QuestionNumeric:
		if spec := q.Numeric; spec != nil {
			if r, ok := numericRange(spec.MinValue, spec.MaxValue); ok {
				p(2, "Range: %s", r)
			}
			if spec.DecimalPlaces != nil {
				p(2, "Decimal places: %d", *spec.DecimalPlaces)
			}
		}
	case domain.QuestionText:
		if q.TextSpec != nil && q.TextSpec.MaxLength != nil {
			p(2, "Max length: %d", *q.TextSpec.MaxLength)
		}
	case domain.QuestionSingleSelect:
		renderOptions(p, q.Options())
	case domain.QuestionMultiSelect:
		renderOptions(p, q.Options())
		if spec := q.MultipleChoice; spec != nil && (spec.MinSelections != nil || spec.MaxSelections != nil) {
			lo, hi := "0", "∞"
			if spec.MinSelections != nil {
				lo = strconv.Itoa(*spec.MinSelections)
			}
			if spec.MaxSelections != nil {
				hi = strconv.Itoa(*spec.MaxSelections)
			}
			p(2, "Selections: %s-%s", lo, hi)
		}
	case domain.QuestionDate:
		if spec := q.Date; spec != nil {
			if spec.MinDate != nil && *spec.MinDate != "" {
				p(2, "Min date: %s", *spec.MinDate)
			}
			if spec.MaxDate != nil && *spec.MaxDate != "" {
				p(2, "Max date: %s", *spec.MaxDate)
			}
		}
	case domain.QuestionLocation:
		p(2, "Geographic coordinates (latitude, longitude)")
	default:
		// unknown kinds show only the shared fields
	}
}

func renderOptions(p func(int, string, ...interface{}), options []domain.Option) {
	if len(options) == 0 {
		return
	}
	p(2, "Options:")
	for _, o := range options {
		p(3, "%s: %s", o.Code, o.Label)
	}
}

// numericRange formats "min-max" with open ends shown as -∞ and ∞. It
// reports false when neither bound is set.
func numericRange(lo, hi *float64) (string, bool) {
	if lo == nil && hi == nil {
		return "", false
	}
	from, to := "-∞", "∞"
	if lo != nil {
		from = formatNumber(*lo)
	}
	if hi != nil {
		to = formatNumber(*hi)
	}
	return from + "-" + to, true
}

// formatNumber prints v in its shortest form: 18, 2.5, 0.001.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
