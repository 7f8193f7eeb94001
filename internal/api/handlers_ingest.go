package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docredact/internal/parser"
	"github.com/dgallion1/docredact/internal/pipeline"
	"github.com/dgallion1/docredact/internal/redaction"
)

const formOverhead = 1 << 20

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+formOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.formError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "no file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := s.readUpload(file)
	if err != nil {
		s.serviceError(w, r, "upload", err)
		return
	}

	analysis, err := s.svc.Analyze(r.Context(), header.Filename, data)
	if err != nil {
		s.serviceError(w, r, "upload", err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleBatchUpload(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		jsonError(w, "batch analysis unavailable", http.StatusServiceUnavailable)
		return
	}
	limit := s.cfg.MaxUploadBytes*int64(s.cfg.MaxBatchFiles) + 10*formOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		s.formError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}
	if len(files) > s.cfg.MaxBatchFiles {
		jsonError(w, fmt.Sprintf("too many files (max %d)", s.cfg.MaxBatchFiles), http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		results = append(results, s.submitFile(fh))
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

func (s *Server) submitFile(fh *multipart.FileHeader) map[string]any {
	filename := redaction.SanitizeFilename(fh.Filename)
	if !parser.IsSupportedExtension(filename) {
		return map[string]any{"filename": filename, "error": "unsupported file type"}
	}

	f, err := fh.Open()
	if err != nil {
		return map[string]any{"filename": filename, "error": "failed to open file"}
	}
	data, err := s.readUpload(f)
	f.Close()
	if err != nil {
		return map[string]any{"filename": filename, "error": err.Error()}
	}

	job := pipeline.NewJob(filename, data)
	if err := s.orchestrator.Submit(job); err != nil {
		return map[string]any{"filename": filename, "job_id": job.ID, "error": err.Error()}
	}
	return map[string]any{
		"filename": filename,
		"job_id":   job.ID,
		"status":   job.Snapshot().Status,
		"poll_url": "/api/redaction/jobs/" + job.ID,
	}
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		jsonError(w, "batch analysis unavailable", http.StatusServiceUnavailable)
		return
	}
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// readUpload reads one file part, enforcing the per-file size limit.
func (s *Server) readUpload(f io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", redaction.ErrIO, err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, &http.MaxBytesError{Limit: s.cfg.MaxUploadBytes}
	}
	return data, nil
}

func (s *Server) formError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		jsonError(w, fmt.Sprintf("request exceeds max size (%d bytes)", maxErr.Limit), http.StatusRequestEntityTooLarge)
		return
	}
	jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
}
