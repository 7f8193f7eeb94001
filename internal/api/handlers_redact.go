package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dgallion1/docredact/internal/detector"
	"github.com/dgallion1/docredact/internal/redact"
	"github.com/dgallion1/docredact/internal/redaction"
)

const maxJSONBody = 10 << 20

type redactionItem struct {
	Text string `json:"text"`
}

type redactBody struct {
	FileID       string          `json:"file_id"`
	Redactions   []redactionItem `json:"redactions"`
	Literals     []string        `json:"literals"`
	DocumentType string          `json:"document_type"`
	Mode         string          `json:"mode"`
}

// literals merges the review-screen selections with plain literals,
// keeping request order.
func (b redactBody) literals() []string {
	out := make([]string, 0, len(b.Redactions)+len(b.Literals))
	for _, item := range b.Redactions {
		out = append(out, item.Text)
	}
	return append(out, b.Literals...)
}

func (s *Server) handleRedact(w http.ResponseWriter, r *http.Request) {
	var body redactBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.serviceError(w, r, "redact", err)
		return
	}

	mode := redact.ModeSequential
	if body.Mode != "" {
		m, err := redact.ParseMode(body.Mode)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		mode = m
	}

	result, err := s.svc.Redact(r.Context(), redaction.RedactRequest{
		FileID:       body.FileID,
		Literals:     body.literals(),
		DocumentType: body.DocumentType,
		Mode:         mode,
	})
	if err != nil {
		s.serviceError(w, r, "redact", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type detectBody struct {
	Text          string `json:"text"`
	MinConfidence string `json:"min_confidence"`
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var body detectBody
	if err := decodeJSON(w, r, &body); err != nil {
		s.serviceError(w, r, "detect", err)
		return
	}

	matches := s.svc.Detect(body.Text)
	if body.MinConfidence != "" {
		floor, err := detector.ParseConfidence(body.MinConfidence)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		matches = detector.AtLeast(matches, floor)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pii_items": matches,
		"summary":   redaction.Summarize(matches),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return fmt.Errorf("%w: invalid JSON body: %v", redaction.ErrInput, err)
	}
	return nil
}
