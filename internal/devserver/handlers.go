package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/survaize/survaize-client/internal/domain"
	"github.com/survaize/survaize-client/internal/jobstore"
	"github.com/survaize/survaize-client/internal/transport"
)

const maxUploadSize = 200 << 20

type errorDTO struct {
	Detail string `json:"detail"`
}

type jobDTO struct {
	JobID string `json:"job_id"`
}

// read handles POST /api/questionnaire/read.
func (s *Server) read(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload: "+err.Error())
		return
	}

	format := domain.Format(r.FormValue("format"))
	if format != domain.FormatPDF && format != domain.FormatJSON {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported format: %s", format))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	job := &jobstore.Job{
		ID:        uuid.NewString(),
		Filename:  header.Filename,
		Format:    format,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Put(r.Context(), job); err != nil {
		s.logger.Error().Err(err).Msg("Failed to store job")
		writeError(w, http.StatusInternalServerError, "Failed to store job")
		return
	}

	s.logger.Info().Str("job_id", job.ID).Str("file", job.Filename).Str("format", string(format)).
		Int("bytes", len(data)).Msg("Job created")
	writeJSON(w, http.StatusOK, jobDTO{JobID: job.ID})
}

// save handles POST /api/questionnaire/save/{format}.
func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	format := domain.Format(chi.URLParam(r, "format"))
	switch format {
	case domain.FormatJSON:
	case domain.FormatCSPro:
		writeError(w, http.StatusNotImplemented, "CSPro export requires the conversion service")
		return
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported format: %s", format))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	q, err := domain.ParseQuestionnaire(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid questionnaire: "+err.Error())
		return
	}
	data, err := q.Marshal()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to serialize questionnaire")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", transport.ArtifactName(q.Title, format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorDTO{Detail: detail})
}

func isNotFound(err error) bool {
	return errors.Is(err, jobstore.ErrNotFound)
}
