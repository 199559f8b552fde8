// Package actions implements the user actions that load and save the
// session document. Every failure is caught here and kept as an inline,
// dismissible message next to the action.
package actions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/survaize/survaize-client/internal/domain"
	"github.com/survaize/survaize-client/internal/observability"
	"github.com/survaize/survaize-client/internal/preflight"
	"github.com/survaize/survaize-client/internal/session"
	"github.com/survaize/survaize-client/internal/transport"
)

// ErrActionDisabled is returned when an action is triggered while it cannot
// run, e.g. a second open during a load.
var ErrActionDisabled = errors.New("action is disabled")

// Checker validates a path before upload.
type Checker interface {
	Check(path string) (*preflight.Report, error)
}

// OpenAction loads a questionnaire into the session through the extraction
// backend.
type OpenAction struct {
	reader  domain.Reader
	session *session.Session
	checker Checker
	logger  *observability.Logger

	mu      sync.Mutex
	running bool
	format  domain.Format
	errMsg  string
}

// NewOpenAction wires an open action. checker may be nil, in which case only
// the extension is checked.
func NewOpenAction(reader domain.Reader, sess *session.Session, checker Checker, logger *observability.Logger) *OpenAction {
	return &OpenAction{
		reader:  reader,
		session: sess,
		checker: checker,
		logger:  observability.OrNop(logger).WithOperation("open"),
	}
}

// Label is the button text for the current state.
func (a *OpenAction) Label() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case !a.running:
		return "Open Questionnaire"
	case a.format == domain.FormatPDF:
		return "Processing PDF..."
	default:
		return "Opening..."
	}
}

// Error returns the inline error line, empty when there is none.
func (a *OpenAction) Error() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.errMsg
}

// Dismiss clears the inline error.
func (a *OpenAction) Dismiss() {
	a.mu.Lock()
	a.errMsg = ""
	a.mu.Unlock()
}

// Run opens path and replaces the session document with the result.
// Progress reports are forwarded to the session while the job runs; the
// session is returned to idle whatever the outcome.
func (a *OpenAction) Run(ctx context.Context, path string) (*domain.Questionnaire, error) {
	if !a.begin() {
		return nil, ErrActionDisabled
	}
	defer a.end()

	format, err := transport.FormatForFile(path)
	if err != nil {
		return nil, a.fail(err)
	}
	a.mu.Lock()
	a.format = format
	a.mu.Unlock()

	name := filepath.Base(path)
	if a.checker != nil {
		report, err := a.checker.Check(path)
		if err != nil {
			return nil, a.fail(err)
		}
		name = report.Name
		a.logger.Info().Str("file", report.Name).Int64("size", report.Size).Int("pages", report.Pages).Msg("Opening questionnaire")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, a.fail(domain.IOError("cannot open file", err))
	}
	defer f.Close()

	a.session.BeginLoad()
	defer a.session.EndLoad()

	q, err := a.reader.Open(ctx, name, f, a.session.SetProgress)
	if err != nil {
		return nil, a.fail(err)
	}

	a.session.SetProgress(100, "")
	a.session.SetDocument(q)
	a.logger.Info().Str("title", q.Title).Int("questions", len(q.QuestionIDs())).Msg("Questionnaire loaded")
	return q, nil
}

// begin claims the action. Opening is refused while any load is active,
// including one started elsewhere on the same session.
func (a *OpenAction) begin() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running || a.session.Loading() {
		return false
	}
	a.running = true
	a.format = ""
	a.errMsg = ""
	return true
}

func (a *OpenAction) end() {
	a.mu.Lock()
	a.running = false
	a.format = ""
	a.mu.Unlock()
}

func (a *OpenAction) fail(err error) error {
	a.logger.Error().Err(err).Msg("Failed to load questionnaire")
	a.mu.Lock()
	a.errMsg = "Failed to load questionnaire: " + domain.UserMessage(err)
	a.mu.Unlock()
	return err
}
