package api

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// handleDownload serves a redacted file as an attachment.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	obj, err := s.svc.Download(r.Context(), name)
	if err != nil {
		s.serviceError(w, r, "download", err)
		return
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": obj.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(obj.Data)
}

// handleDeleteFile removes an upload and its redacted copies.
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	if err := s.svc.Delete(r.Context(), fileID); err != nil {
		s.serviceError(w, r, "delete", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"file_id": fileID, "deleted": true})
}
