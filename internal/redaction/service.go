// Package redaction runs the upload, review and redact workflow on top of
// the detector, the redactor and object storage.
//
// Analyze stores an original under uploads/<file_id>.<ext> and returns the
// PII found in it. Redact applies a caller-selected list of literals to
// that original and stores the result under
// processed/<file_id>_redacted.<ext>, where it can be fetched by Download.
package redaction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docredact/internal/detector"
	"github.com/dgallion1/docredact/internal/document"
	"github.com/dgallion1/docredact/internal/observability"
	"github.com/dgallion1/docredact/internal/parser"
	"github.com/dgallion1/docredact/internal/redact"
	"github.com/dgallion1/docredact/internal/rewrite"
	"github.com/dgallion1/docredact/internal/storage"
)

const (
	uploadsPrefix   = "uploads/"
	processedPrefix = "processed/"

	// DownloadPath is the URL prefix redacted files are served under.
	DownloadPath = "/api/redaction/download/"
)

// Service is safe for concurrent use.
type Service struct {
	store    storage.Store
	engine   *detector.Engine
	rewriter *rewrite.Rewriter
	parsers  parser.Options
	metrics  *observability.Metrics
	stats    *observability.LatencyStats
	log      *slog.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures a Service.
type Option func(*Service)

func WithEngine(e *detector.Engine) Option {
	return func(s *Service) { s.engine = e }
}

func WithParserOptions(o parser.Options) Option {
	return func(s *Service) { s.parsers = o }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithStats records detection latency into a rolling window.
func WithStats(st *observability.LatencyStats) Option {
	return func(s *Service) { s.stats = st }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   slog.Default(),
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(s)
	}
	if s.engine == nil {
		s.engine = detector.New(detector.WithLogger(s.log))
	}
	s.rewriter = &rewrite.Rewriter{Parsers: s.parsers}
	return s
}

// Analysis is the result of analyzing one upload.
type Analysis struct {
	FileID       string          `json:"file_id"`
	Filename     string          `json:"filename"`
	DocumentType document.Format `json:"document_type"`
	Analysis     Report          `json:"analysis"`
	UploadTime   time.Time       `json:"upload_time"`
}

// Report is the extracted text and the PII found in it.
type Report struct {
	FullText string           `json:"full_text"`
	PIIItems []detector.Match `json:"pii_items"`
	Blocks   []string         `json:"blocks,omitempty"`
	Summary  Summary          `json:"summary"`
}

// Summary counts matches for review screens.
type Summary struct {
	Total        int                       `json:"total"`
	ByCategory   map[detector.Category]int `json:"by_category"`
	ByConfidence map[string]int            `json:"by_confidence"`
}

// Summarize counts matches by category and confidence.
func Summarize(matches []detector.Match) Summary {
	s := Summary{
		Total:        len(matches),
		ByCategory:   detector.Summarize(matches),
		ByConfidence: make(map[string]int),
	}
	for _, m := range matches {
		s.ByConfidence[m.Confidence.String()]++
	}
	return s
}

// Detect scans raw text.
func (s *Service) Detect(text string) []detector.Match {
	start := time.Now()
	matches := s.engine.Detect(text)
	s.observeDetect(time.Since(start), matches)
	return matches
}

func (s *Service) observeDetect(d time.Duration, matches []detector.Match) {
	if s.stats != nil {
		s.stats.Record(d)
	}
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveDetectLatency(d)
	for _, m := range matches {
		s.metrics.Detections.WithLabelValues(string(m.Category), m.Confidence.String()).Inc()
	}
}

// Analyze parses an upload, scans it for PII and stores the original for a
// later Redact call. Nothing is stored when the file cannot be parsed.
func (s *Service) Analyze(ctx context.Context, filename string, data []byte) (*Analysis, error) {
	a, err := s.analyze(ctx, filename, data)
	s.countErr("analyze", err)
	return a, err
}

func (s *Service) analyze(ctx context.Context, filename string, data []byte) (*Analysis, error) {
	filename = SanitizeFilename(filename)
	if filename == "" {
		return nil, fmt.Errorf("%w: no file selected", ErrInput)
	}
	format, ok := document.FormatForFile(filename)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrInput, filepath.Ext(filename))
	}

	content, err := parser.ForFormat(format, s.parsers).Parse(bytes.NewReader(data), filename)
	if err != nil {
		if !errors.Is(err, ErrParse) {
			err = fmt.Errorf("%w: %v", ErrIO, err)
		}
		return nil, err
	}

	matches := s.Detect(content.FullText)

	fileID := s.newID()
	now := s.now().UTC()
	key := uploadsPrefix + fileID + format.Ext()
	if err := s.store.Put(ctx, key, storage.Object{
		Data:        data,
		ContentType: format.ContentType(),
		Filename:    filename,
		Created:     now,
	}); err != nil {
		return nil, fmt.Errorf("%w: store original: %v", ErrIO, err)
	}

	report := Report{
		FullText: content.FullText,
		PIIItems: matches,
		Summary:  Summarize(matches),
	}
	if content.Structured {
		report.Blocks = content.Blocks
	}
	if s.metrics != nil {
		s.metrics.FilesAnalyzed.WithLabelValues(string(format)).Inc()
	}
	s.log.Info("file analyzed",
		"file_id", fileID,
		"document_type", format,
		"bytes", len(data),
		"pii_items", len(matches),
	)

	return &Analysis{
		FileID:       fileID,
		Filename:     filename,
		DocumentType: format,
		Analysis:     report,
		UploadTime:   now,
	}, nil
}

// RedactRequest selects an analyzed file and the literals to remove from it.
type RedactRequest struct {
	FileID string
	// Literals are applied in order. Empty entries are ignored.
	Literals []string
	// DocumentType, if set, must match the stored original.
	DocumentType string
	Mode         redact.Mode
}

// RedactResult points at the stored redacted copy.
type RedactResult struct {
	Success      bool            `json:"success"`
	OutputFile   string          `json:"output_file"`
	DownloadURL  string          `json:"download_url"`
	DocumentType document.Format `json:"document_type"`
	Mode         string          `json:"mode"`
	Redacted     int             `json:"literals_applied"`
}

// Redact rewrites a stored original with the requested literals replaced.
func (s *Service) Redact(ctx context.Context, req RedactRequest) (*RedactResult, error) {
	res, err := s.redact(ctx, req)
	s.countErr("redact", err)
	return res, err
}

func (s *Service) redact(ctx context.Context, req RedactRequest) (*RedactResult, error) {
	fileID := strings.TrimSpace(req.FileID)
	if fileID == "" {
		return nil, fmt.Errorf("%w: file_id is required", ErrInput)
	}
	if _, err := uuid.Parse(fileID); err != nil {
		return nil, fmt.Errorf("%w: malformed file_id", ErrInput)
	}
	literals := nonEmpty(req.Literals)
	if len(literals) == 0 {
		return nil, fmt.Errorf("%w: no redactions selected", ErrInput)
	}

	format, original, err := s.loadOriginal(ctx, fileID, req.DocumentType)
	if err != nil {
		return nil, err
	}

	out, outFormat, err := s.rewriter.Apply(format, original.Data, literals, req.Mode)
	if err != nil {
		if errors.Is(err, ErrParse) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: rewrite: %v", ErrIO, err)
	}

	name := fileID + "_redacted" + outFormat.Ext()
	if err := s.store.Put(ctx, processedPrefix+name, storage.Object{
		Data:        out,
		ContentType: outFormat.ContentType(),
		Filename:    name,
		Created:     s.now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("%w: store output: %v", ErrIO, err)
	}

	if s.metrics != nil {
		s.metrics.Redactions.WithLabelValues(string(outFormat), req.Mode.String()).Inc()
	}
	s.log.Info("file redacted",
		"file_id", fileID,
		"document_type", format,
		"output_file", name,
		"literals", len(literals),
		"mode", req.Mode,
	)

	return &RedactResult{
		Success:      true,
		OutputFile:   name,
		DownloadURL:  DownloadPath + name,
		DocumentType: outFormat,
		Mode:         req.Mode.String(),
		Redacted:     len(literals),
	}, nil
}

// loadOriginal finds the upload for fileID. The declared type is tried
// first; an original stored under a different type is a mismatch.
func (s *Service) loadOriginal(ctx context.Context, fileID, declared string) (document.Format, storage.Object, error) {
	var want document.Format
	if declared != "" {
		f, ok := document.ParseFormat(declared)
		if !ok {
			return "", storage.Object{}, fmt.Errorf("%w: unsupported document_type %q", ErrInput, declared)
		}
		want = f
	}

	candidates := document.Formats
	if want != "" {
		candidates = append([]document.Format{want}, document.Formats...)
	}
	for _, f := range candidates {
		obj, err := s.store.Get(ctx, uploadsPrefix+fileID+f.Ext())
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", storage.Object{}, fmt.Errorf("%w: load original: %v", ErrIO, err)
		}
		if want != "" && f != want {
			return "", storage.Object{}, fmt.Errorf("%w: document_type %q does not match uploaded %q", ErrInput, want, f)
		}
		return f, obj, nil
	}
	return "", storage.Object{}, fmt.Errorf("%w: original file %s", ErrNotFound, fileID)
}

// Download returns a redacted file by its output name.
func (s *Service) Download(ctx context.Context, name string) (storage.Object, error) {
	obj, err := s.download(ctx, name)
	s.countErr("download", err)
	return obj, err
}

func (s *Service) download(ctx context.Context, name string) (storage.Object, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return storage.Object{}, fmt.Errorf("%w: invalid file name", ErrInput)
	}
	obj, err := s.store.Get(ctx, processedPrefix+name)
	switch {
	case errors.Is(err, storage.ErrInvalidKey):
		return storage.Object{}, fmt.Errorf("%w: invalid file name", ErrInput)
	case errors.Is(err, storage.ErrNotFound):
		return storage.Object{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	case err != nil:
		return storage.Object{}, fmt.Errorf("%w: load %s: %v", ErrIO, name, err)
	}
	if obj.Filename == "" {
		obj.Filename = name
	}
	return obj, nil
}

// Delete removes the original and every redacted copy of fileID. Deleting
// a file that does not exist is not an error.
func (s *Service) Delete(ctx context.Context, fileID string) error {
	err := s.delete(ctx, fileID)
	s.countErr("delete", err)
	return err
}

func (s *Service) delete(ctx context.Context, fileID string) error {
	if _, err := uuid.Parse(fileID); err != nil {
		return fmt.Errorf("%w: malformed file_id", ErrInput)
	}
	for _, f := range document.Formats {
		for _, key := range []string{
			uploadsPrefix + fileID + f.Ext(),
			processedPrefix + fileID + "_redacted" + f.Ext(),
		} {
			if err := s.store.Delete(ctx, key); err != nil {
				return fmt.Errorf("%w: delete %s: %v", ErrIO, key, err)
			}
		}
	}
	s.log.Info("file deleted", "file_id", fileID)
	return nil
}

func (s *Service) countErr(op string, err error) {
	if err == nil || s.metrics == nil {
		return
	}
	s.metrics.Errors.WithLabelValues(op, Kind(err)).Inc()
}

func nonEmpty(literals []string) []string {
	out := make([]string, 0, len(literals))
	for _, l := range literals {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// SanitizeFilename reduces an uploaded name to a safe base name. It returns
// "" when nothing usable is left.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "_")
	name = strings.TrimSpace(name)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
