package devserver

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/survaize/survaize-client/internal/domain"
	"github.com/survaize/survaize-client/internal/jobstore"
)

const pdfUnavailable = "PDF extraction requires the extraction service"

// frameDTO is one outbound progress channel message.
type frameDTO struct {
	Progress      *float64              `json:"progress,omitempty"`
	Message       string                `json:"message,omitempty"`
	Questionnaire *domain.Questionnaire `json:"questionnaire,omitempty"`
	Error         string                `json:"error,omitempty"`
}

func progressFrame(p float64, msg string) frameDTO {
	return frameDTO{Progress: &p, Message: msg}
}

// stream handles GET /api/questionnaire/read/{jobID}. A job is consumed by
// the first stream that opens it.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "jobID")
	logger := s.logger.WithJob(id)

	job, lookupErr := s.store.Get(ctx, id)

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	if lookupErr != nil {
		if isNotFound(lookupErr) {
			logger.Warn().Msg("Stream requested for unknown job")
			closeConn(conn, ws.StatusPolicyViolation, "Job not found")
			return
		}
		logger.Error().Err(lookupErr).Msg("Job lookup failed")
		closeConn(conn, ws.StatusInternalServerError, "Job store unavailable")
		return
	}
	if err := s.store.Delete(ctx, id); err != nil {
		logger.Warn().Err(err).Msg("Failed to delete consumed job")
	}

	for i, f := range extract(job) {
		if i > 0 && !s.pause(ctx) {
			return
		}
		data, err := json.Marshal(f)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to encode frame")
			closeConn(conn, ws.StatusInternalServerError, "encoding failed")
			return
		}
		if err := wsutil.WriteServerMessage(conn, ws.OpText, data); err != nil {
			logger.Warn().Err(err).Msg("Client went away")
			return
		}
	}

	logger.Info().Str("file", job.Filename).Msg("Job stream finished")
	closeConn(conn, ws.StatusNormalClosure, "")
}

// extract runs the reader for job and returns the frames to send.
func extract(job *jobstore.Job) []frameDTO {
	if job.Format == domain.FormatPDF {
		return []frameDTO{{Error: pdfUnavailable}}
	}

	frames := []frameDTO{progressFrame(0, "Reading JSON file")}
	q, err := domain.ParseQuestionnaire(job.Data)
	if err != nil {
		return append(frames, frameDTO{Error: "Invalid questionnaire JSON: " + err.Error()})
	}

	done := progressFrame(100, "Completed")
	done.Questionnaire = q
	return append(frames, progressFrame(50, "Validating questionnaire"), done)
}

func (s *Server) pause(ctx context.Context) bool {
	if s.opts.FrameInterval <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(s.opts.FrameInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// closeConn sends a close frame and waits briefly for the client's reply.
func closeConn(conn net.Conn, code ws.StatusCode, reason string) {
	if err := ws.WriteFrame(conn, ws.NewCloseFrame(ws.NewCloseFrameBody(code, reason))); err != nil {
		return
	}
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	for {
		f, err := ws.ReadFrame(conn)
		if err != nil || f.Header.OpCode == ws.OpClose {
			return
		}
	}
}
