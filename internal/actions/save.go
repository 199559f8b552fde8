package actions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/survaize/survaize-client/internal/domain"
	"github.com/survaize/survaize-client/internal/observability"
	"github.com/survaize/survaize-client/internal/session"
)

var errNoDocument = errors.New("No questionnaire to save. Please open a questionnaire first.")

// SaveResult is a written artifact.
type SaveResult struct {
	Path     string
	Artifact *domain.Artifact
}

// SaveAction exports the session document and writes it to a directory.
type SaveAction struct {
	saver   domain.Saver
	session *session.Session
	logger  *observability.Logger

	mu      sync.Mutex
	running bool
	errMsg  string
}

func NewSaveAction(saver domain.Saver, sess *session.Session, logger *observability.Logger) *SaveAction {
	return &SaveAction{
		saver:   saver,
		session: sess,
		logger:  observability.OrNop(logger).WithOperation("save"),
	}
}

// Label is the button text for format.
func (a *SaveAction) Label(format domain.Format) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return "Saving..."
	}
	switch format {
	case domain.FormatCSPro:
		return "Save as CSPro"
	default:
		return "Save as JSON"
	}
}

func (a *SaveAction) Error() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.errMsg
}

func (a *SaveAction) Dismiss() {
	a.mu.Lock()
	a.errMsg = ""
	a.mu.Unlock()
}

// Run saves the current document in format and writes the artifact to dir.
func (a *SaveAction) Run(ctx context.Context, format domain.Format, dir string) (*SaveResult, error) {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return nil, ErrActionDisabled
	}
	a.running = true
	a.errMsg = ""
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	doc := a.session.Document()
	if doc == nil {
		a.mu.Lock()
		a.errMsg = errNoDocument.Error()
		a.mu.Unlock()
		return nil, errNoDocument
	}

	art, err := a.saver.Save(ctx, doc, format)
	if err != nil {
		return nil, a.fail(err)
	}
	if art.Fallback {
		a.logger.Warn().Str("format", string(format)).Msg("Save endpoint failed, wrote local JSON instead")
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, a.fail(domain.IOError(fmt.Sprintf("cannot create directory %s", dir), err))
	}
	path := filepath.Join(dir, art.Filename)
	if rel, err := filepath.Rel(dir, path); err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, a.fail(domain.IOError(fmt.Sprintf("refusing to write %q outside %s", art.Filename, dir), err))
	}
	if err := os.WriteFile(path, art.Data, 0o644); err != nil {
		return nil, a.fail(domain.IOError(fmt.Sprintf("cannot write %s", path), err))
	}

	a.logger.Info().Str("path", path).Int("bytes", len(art.Data)).Msg("Questionnaire saved")
	return &SaveResult{Path: path, Artifact: art}, nil
}

func (a *SaveAction) fail(err error) error {
	a.logger.Error().Err(err).Msg("Failed to save questionnaire")
	a.mu.Lock()
	a.errMsg = "Failed to save questionnaire: " + domain.UserMessage(err)
	a.mu.Unlock()
	return err
}
