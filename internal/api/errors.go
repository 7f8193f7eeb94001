package api

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/docredact/internal/redaction"
)

// ErrorReporter receives server-side failures.
type ErrorReporter interface {
	Report(r *http.Request, err error)
}

type noopReporter struct{}

func (noopReporter) Report(*http.Request, error) {}

// SentryReporter sends errors to Sentry. sentry.Init must have been called.
type SentryReporter struct{}

func (SentryReporter) Report(r *http.Request, err error) {
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetRequest(r)
		scope.SetTag("route", r.URL.Path)
		if id := middleware.GetReqID(r.Context()); id != "" {
			scope.SetTag("request_id", id)
		}
	})
	hub.CaptureException(err)
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, redaction.ErrInput):
		return http.StatusBadRequest
	case errors.Is(err, redaction.ErrParse):
		return http.StatusUnprocessableEntity
	case errors.Is(err, redaction.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// serviceError writes err with its mapped status. Server-side failures are
// logged and reported; their details stay out of the response.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.Error(op+" failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		s.reporter.Report(r, err)
		jsonError(w, op+" failed", code)
		return
	}
	jsonError(w, err.Error(), code)
}
