// Package transport talks to the survaize backend: file submission, the
// per-job progress stream, saving and health probing.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/survaize/survaize-client/internal/domain"
	"github.com/survaize/survaize-client/internal/observability"
)

const (
	defaultStreamTimeout = 30 * time.Second
	defaultStartupDelay  = 100 * time.Millisecond

	readPath   = "/api/questionnaire/read"
	savePath   = "/api/questionnaire/save/"
	healthPath = "/api/health"
)

// Options configures a Client.
type Options struct {
	BaseURL string
	// StreamTimeout bounds the wait for the first frame of a job stream.
	StreamTimeout time.Duration
	// StartupDelay is the pause between submission and opening the stream.
	StartupDelay time.Duration
	Retry        *RetryConfig
	HTTPClient   *http.Client
	Logger       *observability.Logger
}

// DefaultOptions returns options for a backend at baseURL.
func DefaultOptions(baseURL string) Options {
	return Options{
		BaseURL:       baseURL,
		StreamTimeout: defaultStreamTimeout,
		StartupDelay:  defaultStartupDelay,
		Retry:         DefaultRetryConfig(),
	}
}

// Client handles communication with the survaize backend.
type Client struct {
	opts       Options
	base       *url.URL
	httpClient *http.Client
	logger     *observability.Logger
}

var (
	_ domain.Submitter = (*Client)(nil)
	_ domain.Tracker   = (*Client)(nil)
	_ domain.Reader    = (*Client)(nil)
	_ domain.Saver     = (*Client)(nil)
)

// NewClient creates a new backend client.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, domain.ConfigError(fmt.Sprintf("invalid base url %q", opts.BaseURL), err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, domain.ConfigError(fmt.Sprintf("base url %q must use http or https", opts.BaseURL), nil)
	}

	if opts.StreamTimeout <= 0 {
		opts.StreamTimeout = defaultStreamTimeout
	}
	if opts.Retry == nil {
		opts.Retry = DefaultRetryConfig()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		opts:       opts,
		base:       base,
		httpClient: httpClient,
		logger:     observability.OrNop(opts.Logger),
	}, nil
}

// FormatForFile derives the upload format from the file extension.
func FormatForFile(name string) (domain.Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return domain.FormatPDF, nil
	case ".json":
		return domain.FormatJSON, nil
	default:
		return "", domain.UnsupportedFormatError(name)
	}
}

// Submit uploads the file as multipart form data and returns the job handle.
// Unsupported extensions fail before any request is made. Submissions are
// never retried.
func (c *Client) Submit(ctx context.Context, name string, r io.Reader) (domain.JobHandle, error) {
	format, err := FormatForFile(name)
	if err != nil {
		return domain.JobHandle{}, err
	}

	logger := c.logger.WithOperation("submit")
	logger.Info().Str("file", filepath.Base(name)).Str("format", string(format)).Msg("Submitting questionnaire")

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(name))
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.WriteField("format", string(format))
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(readPath), pr)
	if err != nil {
		pr.Close()
		return domain.JobHandle{}, domain.SubmissionRejectedError("Failed to read questionnaire", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		pr.CloseWithError(err)
		return domain.JobHandle{}, domain.SubmissionRejectedError("Failed to read questionnaire", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := errorDetail(resp.Body, "Failed to read questionnaire")
		logger.Warn().Int("status", resp.StatusCode).Str("detail", detail).Msg("Submission rejected")
		return domain.JobHandle{}, domain.SubmissionRejectedError(detail, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	var handle domain.JobHandle
	if err := json.NewDecoder(resp.Body).Decode(&handle); err != nil {
		return domain.JobHandle{}, domain.SubmissionRejectedError("Failed to read questionnaire", fmt.Errorf("decode response: %w", err))
	}
	if handle.ID == "" {
		return domain.JobHandle{}, domain.SubmissionRejectedError("Failed to read questionnaire", fmt.Errorf("response has no job_id"))
	}

	logger.Info().Str("job_id", handle.ID).Msg("Submission accepted")
	return handle, nil
}

// Track follows an already submitted job to its outcome.
func (c *Client) Track(ctx context.Context, handle domain.JobHandle, onProgress domain.ProgressFunc) (*domain.Questionnaire, error) {
	job := c.NewJob()
	job.handle = handle
	if err := job.advance(domain.JobAwaitingStream); err != nil {
		return nil, err
	}
	return c.track(ctx, job, onProgress)
}

// Open runs a fresh job: submit, startup delay, track.
func (c *Client) Open(ctx context.Context, name string, r io.Reader, onProgress domain.ProgressFunc) (*domain.Questionnaire, error) {
	return c.NewJob().Run(ctx, name, r, onProgress)
}

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	u.RawPath = ""
	return u.String()
}

// streamURL mirrors the base URL scheme: https becomes wss.
func (c *Client) streamURL(handle domain.JobHandle) string {
	u := *c.base
	if c.base.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	prefix := strings.TrimRight(c.base.Path, "/") + readPath + "/"
	u.Path = prefix + handle.ID
	u.RawPath = prefix + url.PathEscape(handle.ID)
	return u.String()
}

// errorDetail extracts the detail field of a JSON error body.
func errorDetail(body io.Reader, fallback string) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 1<<20)).Decode(&payload); err != nil || payload.Detail == "" {
		return fallback
	}
	return payload.Detail
}
