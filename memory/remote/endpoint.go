package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zero-day-ai/rlmemory/memory"
)

// DefaultEndpointTimeout bounds a single HTTP round trip to a SPARQL endpoint.
const DefaultEndpointTimeout = 30 * time.Second

// EndpointOption configures a SPARQLEndpoint.
type EndpointOption func(*SPARQLEndpoint)

// WithHTTPClient sets the HTTP client. Defaults to a client with DefaultEndpointTimeout.
func WithHTTPClient(client *http.Client) EndpointOption {
	return func(e *SPARQLEndpoint) {
		e.httpClient = client
	}
}

// WithBasicAuth sets credentials sent with every request.
func WithBasicAuth(username, password string) EndpointOption {
	return func(e *SPARQLEndpoint) {
		e.username = username
		e.password = password
	}
}

// SPARQLEndpoint is a Source speaking the SPARQL 1.1 protocol over HTTP.
// Queries are sent as form-encoded POST requests and results are decoded
// from the SPARQL JSON results format.
type SPARQLEndpoint struct {
	URL string

	username   string
	password   string
	httpClient *http.Client
}

// NewSPARQLEndpoint creates a SPARQLEndpoint for the given URL,
// e.g. "https://dbpedia.org/sparql".
func NewSPARQLEndpoint(endpoint string, opts ...EndpointOption) *SPARQLEndpoint {
	e := &SPARQLEndpoint{
		URL:        endpoint,
		httpClient: &http.Client{Timeout: DefaultEndpointTimeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ Source = (*SPARQLEndpoint)(nil)

// sparqlResults is the SPARQL 1.1 JSON results document.
type sparqlResults struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
}

// ExecuteQuery runs a SELECT query and returns its bindings.
// Every failure wraps memory.ErrSourceFailed.
func (e *SPARQLEndpoint) ExecuteQuery(ctx context.Context, query string) ([]Binding, error) {
	form := url.Values{"query": {query}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", memory.ErrSourceFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")
	if e.username != "" {
		req.SetBasicAuth(e.username, e.password)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", memory.ErrSourceFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %s: %s", memory.ErrSourceFailed, resp.Status, strings.TrimSpace(string(body)))
	}

	var out sparqlResults
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode results: %w", memory.ErrSourceFailed, err)
	}
	return out.Results.Bindings, nil
}
