package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/runger/rselect/internal/picker"
)

// maxBodyBytes caps the response body read by the HTTP source.
const maxBodyBytes = 4 << 20

// ErrBodyTooLarge is returned when a response exceeds maxBodyBytes.
var ErrBodyTooLarge = errors.New("response body exceeds 4 MiB")

// HTTP fetches choices with a GET request. The response body is a YAML or
// JSON document in the format accepted by Decode.
type HTTP struct {
	URL    string
	Client *http.Client
}

// Compile-time check that HTTP implements picker.Source.
var _ picker.Source[string] = (*HTTP)(nil)

// NewHTTP creates a source fetching url with http.DefaultClient.
func NewHTTP(url string) *HTTP {
	return &HTTP{URL: url, Client: http.DefaultClient}
}

// Fetch implements picker.Source.
func (h *HTTP) Fetch(ctx context.Context) ([]picker.Item[string], error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("http source: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http source: %s: unexpected status %s", h.URL, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("http source: read body: %w", err)
	}
	if len(data) > maxBodyBytes {
		return nil, fmt.Errorf("http source: %s: %w", h.URL, ErrBodyTooLarge)
	}
	items, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("http source: %w", err)
	}
	return items, nil
}
