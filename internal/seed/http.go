package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxSeedBytes caps how much of a remote seed resource is read.
const maxSeedBytes = 4 << 20

// ErrSeedTooLarge is returned when the remote resource exceeds maxSeedBytes.
var ErrSeedTooLarge = errors.New("seed resource too large")

// HTTPSource fetches the seed resource from a URL.
type HTTPSource struct {
	url    string
	client *http.Client
}

// HTTPOption customizes an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient replaces the default instrumented client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.client = client }
}

// NewHTTPSource creates a source for url. Requests are traced through an
// otelhttp transport; timeouts come from the caller's context.
func NewHTTPSource(url string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		url:    url,
		client: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch GETs the resource. Any non-2xx status is an error.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create seed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("seed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("seed request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSeedBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read seed response: %w", err)
	}
	if len(body) > maxSeedBytes {
		return nil, ErrSeedTooLarge
	}
	return body, nil
}
