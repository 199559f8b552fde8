package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/survaize/survaize-client/internal/domain"
)

// whitespace and path separators
var unsafeRun = regexp.MustCompile(`[\s/\\:]+`)

// ArtifactName is the download file name of a saved questionnaire. The title
// is reduced to a single path element without leading dots.
func ArtifactName(title string, format domain.Format) string {
	base := unsafeRun.ReplaceAllString(title, "_")
	base = strings.TrimLeft(filepath.Base(base), ".")
	if base == "" || base == "_" {
		base = "questionnaire"
	}
	switch format {
	case domain.FormatCSPro:
		return base + ".zip"
	default:
		return base + ".json"
	}
}

// Save exports the questionnaire through the backend. A failed json export
// falls back to a local pretty-printed serialization.
func (c *Client) Save(ctx context.Context, q *domain.Questionnaire, format domain.Format) (*domain.Artifact, error) {
	if format != domain.FormatJSON && format != domain.FormatCSPro {
		return nil, domain.UnsupportedFormatError(string(format))
	}
	if q == nil {
		return nil, domain.SaveFailedError("No questionnaire to save", nil)
	}

	logger := c.logger.WithOperation("save")
	body, err := q.Marshal()
	if err != nil {
		return nil, domain.SaveFailedError("Failed to serialize questionnaire", err)
	}

	data, detail, err := c.postSave(ctx, format, body)
	if err == nil {
		logger.Info().Str("format", string(format)).Int("bytes", len(data)).Msg("Questionnaire saved")
		return &domain.Artifact{Filename: ArtifactName(q.Title, format), Data: data}, nil
	}

	if format == domain.FormatJSON {
		logger.Warn().Err(err).Msg("Save endpoint failed, falling back to local JSON")
		return &domain.Artifact{Filename: ArtifactName(q.Title, format), Data: body, Fallback: true}, nil
	}

	logger.Error().Err(err).Str("detail", detail).Msg("Save failed")
	return nil, domain.SaveFailedError(detail, err)
}

// postSave returns the response body on success, otherwise the user-facing
// detail and the cause.
func (c *Client) postSave(ctx context.Context, format domain.Format, body []byte) ([]byte, string, error) {
	generic := fmt.Sprintf("Failed to save questionnaire in %s format", format)

	resp, err := c.retryWithBackoff(ctx, "save", func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(savePath+string(format)), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, generic, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errorDetail(resp.Body, generic), fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, generic, fmt.Errorf("read response: %w", err)
	}
	return data, "", nil
}

// Health probes the backend. Any failure means the service is unavailable.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.retryWithBackoff(ctx, "health", func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(healthPath), nil)
		if err != nil {
			return nil, err
		}
		return c.httpClient.Do(req)
	})
	if err != nil {
		return domain.ServiceUnavailableError("Service unavailable", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.ServiceUnavailableError("Service unavailable", fmt.Errorf("HTTP %d", resp.StatusCode))
	}
	return nil
}
