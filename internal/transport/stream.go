package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/survaize/survaize-client/internal/domain"
	"github.com/survaize/survaize-client/internal/observability"
)

type eventKind int

const (
	eventOpen eventKind = iota
	eventFrame
	eventClosed
	eventTimeout
	eventCanceled
)

func (k eventKind) String() string {
	switch k {
	case eventOpen:
		return "open"
	case eventFrame:
		return "frame"
	case eventClosed:
		return "closed"
	case eventTimeout:
		return "timeout"
	case eventCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// streamEvent is the only way the reader goroutine and the timer talk to
// the job loop.
type streamEvent struct {
	kind   eventKind
	conn   *streamConn
	data   []byte
	status domain.CloseStatus
	err    error
}

// frame is an inbound progress channel message. A single frame may carry
// progress together with a terminal key.
type frame struct {
	Progress      *float64        `json:"progress"`
	Message       string          `json:"message"`
	Questionnaire json.RawMessage `json:"questionnaire"`
	Error         json.RawMessage `json:"error"`
}

func (f *frame) hasQuestionnaire() bool {
	return len(f.Questionnaire) > 0 && !bytes.Equal(f.Questionnaire, []byte("null"))
}

// errorMessage returns the text of the error key, empty when absent.
func (f *frame) errorMessage() string {
	if len(f.Error) == 0 || bytes.Equal(f.Error, []byte("null")) {
		return ""
	}
	var msg string
	if err := json.Unmarshal(f.Error, &msg); err != nil {
		return string(f.Error)
	}
	return msg
}

// streamConn serializes writes: the reader answers control frames while the
// job loop may be sending its close frame.
type streamConn struct {
	net.Conn
	r io.Reader

	mu     sync.Mutex
	closed bool
}

func newStreamConn(conn net.Conn, br *bufio.Reader) *streamConn {
	c := &streamConn{Conn: conn, r: conn}
	if br != nil {
		c.r = io.MultiReader(br, conn)
	}
	return c
}

func (c *streamConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

func (c *streamConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.Write(p)
}

// shutdown sends a normal close frame when graceful is set and closes the
// socket. Safe to call more than once.
func (c *streamConn) shutdown(graceful bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if graceful {
		_ = c.Conn.SetWriteDeadline(time.Now().Add(time.Second))
		body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
		_ = ws.WriteFrame(c.Conn, ws.MaskFrameInPlace(ws.NewCloseFrame(body)))
	}
	_ = c.Conn.Close()
}

// stream is the event loop of a single Track call. Everything except the
// reader goroutine runs on the caller's goroutine, so progress callbacks and
// the outcome are delivered sequentially.
type stream struct {
	client     *Client
	job        *Job
	onProgress domain.ProgressFunc
	logger     *observability.Logger

	events     chan streamEvent
	done       chan struct{}
	cancelDial context.CancelFunc

	conn     *streamConn
	timer    *time.Timer
	timeoutC <-chan time.Time
	frames   int
}

func (c *Client) track(ctx context.Context, job *Job, onProgress domain.ProgressFunc) (*domain.Questionnaire, error) {
	handle := job.Handle()
	s := &stream{
		client:     c,
		job:        job,
		onProgress: onProgress,
		logger:     c.logger.WithJob(handle.ID),
		events:     make(chan streamEvent),
		done:       make(chan struct{}),
	}

	s.timer = time.NewTimer(c.opts.StreamTimeout)
	s.timeoutC = s.timer.C
	defer s.timer.Stop()

	dialCtx, cancelDial := context.WithCancel(ctx)
	s.cancelDial = cancelDial
	defer cancelDial()
	defer close(s.done)

	target := c.streamURL(handle)
	s.logger.Debug().Str("url", target).Msg("Connecting to progress stream")
	go s.read(dialCtx, target)

	for !job.Settled() {
		var ev streamEvent
		select {
		case ev = <-s.events:
		case <-s.timeoutC:
			ev = streamEvent{kind: eventTimeout}
		case <-ctx.Done():
			ev = streamEvent{kind: eventCanceled, err: ctx.Err()}
		}
		s.dispatch(ev)
	}

	return job.Outcome()
}

// post hands an event to the job loop. It returns false once the loop is gone.
func (s *stream) post(ev streamEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// read dials the stream and forwards every data frame until the connection
// ends. It runs on its own goroutine.
func (s *stream) read(ctx context.Context, target string) {
	conn, br, _, err := ws.Dial(ctx, target)
	if err != nil {
		s.post(streamEvent{
			kind:   eventClosed,
			status: domain.CloseStatus{Code: int(ws.StatusAbnormalClosure), Reason: "WebSocket connection failed"},
			err:    err,
		})
		return
	}

	sc := newStreamConn(conn, br)
	if !s.post(streamEvent{kind: eventOpen, conn: sc}) {
		sc.shutdown(true)
		return
	}

	for {
		data, _, err := wsutil.ReadServerData(sc)
		if err != nil {
			s.post(closedEvent(err))
			return
		}
		if !s.post(streamEvent{kind: eventFrame, data: data}) {
			return
		}
	}
}

func closedEvent(err error) streamEvent {
	var closed wsutil.ClosedError
	if errors.As(err, &closed) {
		return streamEvent{
			kind:   eventClosed,
			status: domain.CloseStatus{Code: int(closed.Code), Reason: closed.Reason},
			err:    err,
		}
	}
	return streamEvent{
		kind:   eventClosed,
		status: domain.CloseStatus{Code: int(ws.StatusAbnormalClosure)},
		err:    err,
	}
}

// dispatch applies one event to the job. Events after the outcome are no-ops.
func (s *stream) dispatch(ev streamEvent) {
	if s.job.Settled() {
		if ev.conn != nil {
			ev.conn.shutdown(true)
		}
		return
	}

	switch ev.kind {
	case eventOpen:
		s.conn = ev.conn
		s.logger.Debug().Msg("Progress stream opened")

	case eventFrame:
		s.handleFrame(ev.data)

	case eventClosed:
		s.logger.Warn().Err(ev.err).Int("code", ev.status.Code).Str("reason", ev.status.Reason).
			Msg("Progress stream closed before a result arrived")
		s.fail(domain.StreamClosedError(ev.status.Code, ev.status.Reason), false)

	case eventTimeout:
		s.logger.Error().Dur("timeout", s.client.opts.StreamTimeout).Msg("No response from progress stream")
		s.fail(domain.ConnectionTimeoutError(fmt.Sprintf(
			"Connection timeout: No response received from server within %s", s.client.opts.StreamTimeout)), true)

	case eventCanceled:
		s.fail(fmt.Errorf("track canceled: %w", ev.err), true)
	}
}

func (s *stream) handleFrame(data []byte) {
	s.frames++
	if s.frames == 1 {
		s.timer.Stop()
		s.timeoutC = nil
		if err := s.job.advance(domain.JobStreaming); err != nil {
			s.logger.Error().Err(err).Msg("Unexpected job state")
		}
	}

	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		s.logger.Warn().Err(err).Int("bytes", len(data)).Msg("Skipping malformed frame")
		return
	}

	if f.Progress != nil {
		s.logger.Debug().Float64("progress", *f.Progress).Str("message", f.Message).Msg("Progress")
		if s.onProgress != nil {
			s.onProgress(*f.Progress, f.Message)
		}
	}

	switch {
	case f.hasQuestionnaire():
		q, err := domain.ParseQuestionnaire(f.Questionnaire)
		if err != nil {
			s.logger.Error().Err(err).Msg("Questionnaire payload does not match the document model")
			s.fail(domain.RemoteExtractionError("invalid questionnaire payload", err), true)
			return
		}
		if s.job.settle(q, nil) {
			s.logger.Info().Str("title", q.Title).Int("sections", len(q.Sections)).Msg("Questionnaire received")
		}
		s.shutdown(true)

	case f.errorMessage() != "":
		msg := f.errorMessage()
		s.logger.Error().Str("error", msg).Msg("Extraction failed")
		s.fail(domain.RemoteExtractionError(msg, nil), true)
	}
}

func (s *stream) fail(err error, graceful bool) {
	s.job.settle(nil, err)
	s.shutdown(graceful)
}

// shutdown aborts a pending dial and closes the connection if it is open.
func (s *stream) shutdown(graceful bool) {
	s.cancelDial()
	if s.conn != nil {
		s.conn.shutdown(graceful)
	}
}
