package domain

import "fmt"

// Warning is a non-fatal problem found in a questionnaire. Authoring tools
// tolerate these; they are surfaced so the user can fix them by hand.
type Warning struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Path == "" {
		return w.Message
	}
	return fmt.Sprintf("%s: %s", w.Path, w.Message)
}

// Check reports structural problems that do not prevent the questionnaire
// from being displayed, edited or saved.
func (q *Questionnaire) Check() []Warning {
	if q == nil {
		return nil
	}

	var warnings []Warning
	add := func(path, format string, args ...interface{}) {
		warnings = append(warnings, Warning{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	questionIDs := make(map[string]string)
	for si, section := range q.Sections {
		sectionPath := fmt.Sprintf("sections[%d]", si)
		if section.Occurrences < 1 {
			add(sectionPath, "section %q has occurrences %d, expected at least 1", section.ID, section.Occurrences)
		}

		for qi, question := range section.Questions {
			path := fmt.Sprintf("%s.questions[%d]", sectionPath, qi)
			if prev, dup := questionIDs[question.ID]; dup {
				add(path, "question id %q is already used at %s", question.ID, prev)
			} else {
				questionIDs[question.ID] = path
			}

			if !question.Type.Known() {
				add(path, "unknown question type %q", question.Type)
				continue
			}
			warnings = append(warnings, checkQuestion(path, &question)...)
		}
	}

	seen := make(map[string]bool)
	for i, id := range q.IDFields {
		path := fmt.Sprintf("id_fields[%d]", i)
		if seen[id] {
			add(path, "id field %q is listed more than once", id)
			continue
		}
		seen[id] = true
		if len(q.Sections) > 0 {
			if _, ok := questionIDs[id]; !ok {
				add(path, "id field %q does not match any question id", id)
			}
		}
	}

	return warnings
}

func checkQuestion(path string, question *Question) []Warning {
	var warnings []Warning
	add := func(format string, args ...interface{}) {
		warnings = append(warnings, Warning{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	switch question.Type {
	case QuestionSingleSelect, QuestionMultiSelect:
		options := question.Options()
		if len(options) == 0 {
			add("choice question %q has no options", question.ID)
		}
		codes := make(map[string]bool)
		for _, opt := range options {
			if codes[opt.Code] {
				add("option code %q is used more than once", opt.Code)
			}
			codes[opt.Code] = true
		}
		if mc := question.MultipleChoice; mc != nil && mc.MinSelections != nil && mc.MaxSelections != nil &&
			*mc.MinSelections > *mc.MaxSelections {
			add("min_selections %d is greater than max_selections %d", *mc.MinSelections, *mc.MaxSelections)
		}
	case QuestionNumeric:
		if n := question.Numeric; n != nil && n.MinValue != nil && n.MaxValue != nil && *n.MinValue > *n.MaxValue {
			add("min_value %v is greater than max_value %v", *n.MinValue, *n.MaxValue)
		}
	case QuestionText, QuestionDate, QuestionLocation:
		// no cross-field constraints
	}
	return warnings
}
