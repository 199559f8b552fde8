package schema

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/survaize/survaize-client/internal/domain"
)

// SuggestionKind tells whether a suggestion is a property name or a value.
type SuggestionKind string

const (
	SuggestProperty SuggestionKind = "property"
	SuggestValue    SuggestionKind = "value"
)

// Suggestion is one completion candidate.
type Suggestion struct {
	Label  string         `json:"label"`
	Kind   SuggestionKind `json:"kind"`
	Detail string         `json:"detail,omitempty"`
}

var (
	rootProperties     = []string{"title", "description", "id_fields", "sections"}
	sectionProperties  = []string{"id", "number", "title", "description", "universe", "questions", "occurrences"}
	questionProperties = []string{"number", "id", "text", "instructions", "universe", "type"}
	optionProperties   = []string{"code", "label"}
)

// variantProperties lists the fields specific to each question kind.
func variantProperties(t domain.QuestionType) []string {
	switch t {
	case domain.QuestionNumeric:
		return []string{"min_value", "max_value", "decimal_places"}
	case domain.QuestionText:
		return []string{"max_length"}
	case domain.QuestionSingleSelect:
		return []string{"options"}
	case domain.QuestionMultiSelect:
		return []string{"options", "min_selections", "max_selections"}
	case domain.QuestionDate:
		return []string{"min_date", "max_date"}
	case domain.QuestionLocation:
		return []string{"latitude", "longitude"}
	default:
		return nil
	}
}

// Complete suggests what may be typed at byte offset in text. The text does
// not need to be valid JSON past the cursor.
func (p *Provider) Complete(text string, offset int) []Suggestion {
	cur := scanCursor(text, offset)
	if cur == nil || !cur.container.object {
		return nil
	}

	if !cur.expectKey {
		if cur.key == "type" && isQuestionPath(cur.path) {
			out := make([]Suggestion, 0, len(domain.QuestionTypes))
			for _, t := range domain.QuestionTypes {
				out = append(out, Suggestion{Label: string(t), Kind: SuggestValue, Detail: t.Label()})
			}
			return out
		}
		return nil
	}

	var allowed []string
	switch {
	case len(cur.path) == 0:
		allowed = rootProperties
	case isSectionPath(cur.path):
		allowed = sectionProperties
	case isQuestionPath(cur.path):
		allowed = append(append([]string(nil), questionProperties...),
			variantProperties(domain.QuestionType(cur.container.typeValue))...)
	case isOptionPath(cur.path):
		allowed = optionProperties
	}

	present := make(map[string]bool, len(cur.container.keys))
	for _, k := range cur.container.keys {
		present[k] = true
	}

	var out []Suggestion
	for _, name := range allowed {
		if !present[name] {
			out = append(out, Suggestion{Label: name, Kind: SuggestProperty})
		}
	}
	return out
}

// PointerAt returns the JSON pointer of the innermost container enclosing
// offset, or false if the text before offset cannot be scanned.
func PointerAt(text string, offset int) (string, bool) {
	cur := scanCursor(text, offset)
	if cur == nil {
		return "", false
	}
	return pointer(cur.path), true
}

func isSectionPath(path []string) bool {
	return len(path) == 2 && path[0] == "sections" && isIndex(path[1])
}

func isQuestionPath(path []string) bool {
	return len(path) == 4 && isSectionPath(path[:2]) && path[2] == "questions" && isIndex(path[3])
}

func isOptionPath(path []string) bool {
	return len(path) == 6 && isQuestionPath(path[:4]) && path[4] == "options" && isIndex(path[5])
}

func isIndex(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

func pointer(path []string) string {
	var b strings.Builder
	for _, p := range path {
		b.WriteByte('/')
		p = strings.ReplaceAll(p, "~", "~0")
		b.WriteString(strings.ReplaceAll(p, "/", "~1"))
	}
	return b.String()
}

// container is one open object or array during the scan.
type container struct {
	object    bool
	elem      string // key or index under which this container lives
	key       string // last key read (objects)
	expectKey bool
	index     int // next element index (arrays)
	keys      []string
	typeValue string
}

func (c *container) childElem() string {
	if c.object {
		return c.key
	}
	return strconv.Itoa(c.index)
}

// valueDone records that a complete value was read inside c.
func (c *container) valueDone() {
	if c.object {
		c.expectKey = true
	} else {
		c.index++
	}
}

// cursor describes the position at the scan offset. container stays live
// after the capture so keys further down the same object are still recorded.
type cursor struct {
	container *container
	path      []string
	expectKey bool
	key       string
}

// scanCursor tokenizes text with encoding/json and stops at the container
// enclosing offset.
func scanCursor(text string, offset int) *cursor {
	if offset < 0 || offset > len(text) {
		return nil
	}

	dec := json.NewDecoder(strings.NewReader(text))
	var stack []*container
	var found *cursor
	foundDepth := 0

	for {
		prevEnd := int(dec.InputOffset())
		tok, err := dec.Token()
		if err != nil {
			break
		}
		end := int(dec.InputOffset())

		skipKey := false
		if found == nil && end > offset && len(stack) > 0 {
			found = capture(stack)
			foundDepth = len(stack)
			top := stack[len(stack)-1]
			// the key under the cursor is being edited, not present
			skipKey = tokenStart(text, prevEnd, end) < offset && top.object && top.expectKey
		}

		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{', '[':
				c := &container{object: t == '{', expectKey: t == '{'}
				if len(stack) > 0 {
					c.elem = stack[len(stack)-1].childElem()
				}
				stack = append(stack, c)
			case '}', ']':
				stack = stack[:len(stack)-1]
				if found != nil && len(stack) < foundDepth {
					return found
				}
				if len(stack) > 0 {
					stack[len(stack)-1].valueDone()
				}
			}
		default:
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			if top.object && top.expectKey {
				key, _ := t.(string)
				top.key = key
				top.expectKey = false
				if !skipKey {
					top.keys = append(top.keys, key)
				}
				continue
			}
			if s, ok := t.(string); ok && top.object && top.key == "type" {
				top.typeValue = s
			}
			top.valueDone()
		}
	}

	if found == nil {
		found = capture(stack)
	}
	return found
}

// capture records the innermost container, its path and its state.
func capture(stack []*container) *cursor {
	if len(stack) == 0 {
		return nil
	}
	path := make([]string, 0, len(stack)-1)
	for _, c := range stack[1:] {
		path = append(path, c.elem)
	}
	top := stack[len(stack)-1]
	return &cursor{container: top, path: path, expectKey: top.expectKey, key: top.key}
}

// tokenStart skips the whitespace and separators the decoder consumed before
// the token that ends at end.
func tokenStart(text string, from, end int) int {
	for i := from; i < end && i < len(text); i++ {
		switch text[i] {
		case ' ', '\t', '\n', '\r', ',', ':':
			continue
		default:
			return i
		}
	}
	return end
}
