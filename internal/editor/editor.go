// Package editor presents the session document either as a read-only
// structured view or as an editable raw JSON buffer.
package editor

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/survaize/survaize-client/internal/domain"
	"github.com/survaize/survaize-client/internal/schema"
	"github.com/survaize/survaize-client/internal/session"
)

// View is what the editor currently displays.
type View int

const (
	ViewPlaceholder View = iota
	ViewProgress
	ViewStructured
	ViewRaw
)

func (v View) String() string {
	switch v {
	case ViewProgress:
		return "progress"
	case ViewStructured:
		return "structured"
	case ViewRaw:
		return "raw"
	default:
		return "placeholder"
	}
}

// ErrNotRaw is returned by Change outside raw mode.
var ErrNotRaw = errors.New("editor is not in raw mode")

// Advisor produces markers and completions for the raw buffer.
type Advisor interface {
	Validate(text string) []schema.Marker
	Complete(text string, offset int) []schema.Suggestion
}

// Editor binds the raw buffer to a session. Document flow is one way: the
// session seeds the buffer, and a successful Change replaces the session
// document. The editor never reseeds from a revision it produced itself.
type Editor struct {
	session *session.Session
	advisor Advisor

	mu        sync.Mutex
	raw       bool
	buffer    string
	seeded    bool
	seededRev uint64
	adopting  bool
	parseErr  error
}

// New creates an editor in structured mode. advisor may be nil.
func New(sess *session.Session, advisor Advisor) *Editor {
	return &Editor{session: sess, advisor: advisor}
}

// IsRaw reports whether raw mode is on.
func (e *Editor) IsRaw() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.raw
}

// ToggleRaw switches modes. Entering raw mode seeds the buffer from the
// session; leaving it discards the buffer and any parse error.
func (e *Editor) ToggleRaw() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.raw = !e.raw
	if e.raw {
		e.reseedLocked()
	} else {
		e.buffer = ""
		e.seeded = false
		e.parseErr = nil
	}
	return e.raw
}

// View reports what Render would write. An active load supersedes both
// modes.
func (e *Editor) View() View {
	snap := e.session.Snapshot()
	switch {
	case snap.Loading:
		return ViewProgress
	case snap.Document == nil:
		return ViewPlaceholder
	case e.IsRaw():
		return ViewRaw
	default:
		return ViewStructured
	}
}

// Buffer returns the raw text, reseeding it first if the session document
// was replaced by someone else.
func (e *Editor) Buffer() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.syncLocked()
	return e.buffer
}

// Change replaces the buffer and tries to parse it. On success the session
// document is replaced immediately; on failure the session is left alone and
// the returned error is also available from ParseError.
func (e *Editor) Change(text string) error {
	e.mu.Lock()
	if !e.raw {
		e.mu.Unlock()
		return ErrNotRaw
	}
	e.buffer = text
	e.seeded = true

	q, err := domain.ParseQuestionnaire([]byte(text))
	if err != nil {
		e.parseErr = domain.MalformedEditError(err)
		e.mu.Unlock()
		return e.parseErr
	}
	e.parseErr = nil
	e.adopting = true
	e.mu.Unlock()

	// Listeners may read the editor while the session notifies them.
	rev := e.session.SetDocument(q)

	e.mu.Lock()
	e.seededRev = rev
	e.adopting = false
	e.mu.Unlock()
	return nil
}

// ParseError returns the MalformedEdit error of the last Change, nil once
// the buffer parses. It also reports a session document that could not be
// serialized into the buffer.
func (e *Editor) ParseError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.parseErr
}

// Markers returns advisory schema markers for the raw buffer.
func (e *Editor) Markers() []schema.Marker {
	if e.advisor == nil || !e.IsRaw() {
		return nil
	}
	return e.advisor.Validate(e.Buffer())
}

// Suggestions returns completions at byte offset in the raw buffer.
func (e *Editor) Suggestions(offset int) []schema.Suggestion {
	if e.advisor == nil || !e.IsRaw() {
		return nil
	}
	return e.advisor.Complete(e.Buffer(), offset)
}

// Render writes the current view as text.
func (e *Editor) Render(w io.Writer) error {
	switch e.View() {
	case ViewProgress:
		snap := e.session.Snapshot()
		msg := snap.Message
		if msg == "" {
			msg = "Loading..."
		}
		_, err := fmt.Fprintf(w, "%s %s%%\n", msg, formatNumber(snap.Progress))
		return err
	case ViewPlaceholder:
		_, err := fmt.Fprintln(w, Placeholder)
		return err
	case ViewRaw:
		buf := e.Buffer()
		if _, err := fmt.Fprintln(w, buf); err != nil {
			return err
		}
		if perr := e.ParseError(); perr != nil {
			_, err := fmt.Fprintln(w, domain.UserMessage(perr)+": "+errors.Unwrap(perr).Error())
			return err
		}
		return nil
	default:
		return RenderStructured(w, e.session.Document())
	}
}

func (e *Editor) syncLocked() {
	if !e.raw || e.adopting {
		return
	}
	if !e.seeded || e.session.Revision() != e.seededRev {
		e.reseedLocked()
	}
}

func (e *Editor) reseedLocked() {
	snap := e.session.Snapshot()
	e.buffer = ""
	e.parseErr = nil
	if snap.Document != nil {
		data, err := snap.Document.Marshal()
		if err != nil {
			e.parseErr = domain.NewError(domain.ErrorTypeMalformedEdit, "Cannot show questionnaire as JSON", err)
		} else {
			e.buffer = string(data)
		}
	}
	e.seeded = true
	e.seededRev = snap.Revision
}
