// Package middleware holds chi-compatible HTTP middleware for the tally API.
package middleware

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

// Pre-marshaled so the rejection can always be written.
const (
	payloadTooLargeJSON = `{"error":{"code":"PAYLOAD_TOO_LARGE","message":"request body exceeds size limit"}}`
	unreadableBodyJSON  = `{"error":{"code":"INVALID_REQUEST","message":"failed to read request body"}}`
)

// MaxBodyBytes rejects request bodies larger than maxBytes with 413.
//
// A declared Content-Length over the limit is rejected before reading.
// Otherwise the body is buffered through http.MaxBytesReader, which also
// catches chunked or misreported bodies, and handed on as a fresh reader.
// Read failures other than the size limit are answered with 400.
func MaxBodyBytes(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				tooLarge(w, r, maxBytes, nil)
				return
			}

			buf, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
			if err != nil {
				var mbe *http.MaxBytesError
				if errors.As(err, &mbe) {
					tooLarge(w, r, maxBytes, err)
					return
				}
				unreadable(w, r, err)
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(buf))
			next.ServeHTTP(w, r)
		})
	}
}

func tooLarge(w http.ResponseWriter, r *http.Request, limit int64, err error) {
	slog.WarnContext(r.Context(), "request body too large",
		"method", r.Method,
		"path", r.URL.Path,
		"content_length", r.ContentLength,
		"limit", limit,
		"error", err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusRequestEntityTooLarge)
	if _, werr := w.Write([]byte(payloadTooLargeJSON)); werr != nil {
		slog.ErrorContext(r.Context(), "Failed to write payload too large response", "error", werr)
	}
}

func unreadable(w http.ResponseWriter, r *http.Request, err error) {
	slog.WarnContext(r.Context(), "failed to read request body",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	if _, werr := w.Write([]byte(unreadableBodyJSON)); werr != nil {
		slog.ErrorContext(r.Context(), "Failed to write bad request response", "error", werr)
	}
}
