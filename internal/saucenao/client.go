package saucenao

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	requestTimeout = 20 * time.Second
	// dbmask 999 selects the index databases the original tool queried.
	databaseMask = "999"
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36 Edg/139.0.0.0"
)

// ErrMalformedResponse marks a response body that could not be decoded.
// The orchestrator treats it as a per-file parse failure.
var ErrMalformedResponse = errors.New("malformed search response")

// StatusError reports a non-200 response from the search API.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search returned status %d", e.Code)
}

// Entry is one ranked match at or above the client-side similarity
// threshold.
type Entry struct {
	Similarity float64
	URLs       []string
	Source     string
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Header struct {
		Similarity string `json:"similarity"`
	} `json:"header"`
	Data struct {
		ExtURLs []string `json:"ext_urls"`
		Source  string   `json:"source"`
	} `json:"data"`
}

// Client uploads images to the SauceNAO search API.
type Client struct {
	apiKey        string
	baseURL       string
	numResults    int
	minSimilarity int
	httpClient    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a search client. numResults and minSimilarity are passed
// to the service as numres and minsim query parameters.
func New(apiKey, baseURL string, numResults, minSimilarity int, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("saucenao api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("saucenao base url required")
	}
	if numResults <= 0 {
		return nil, errors.New("result count must be positive")
	}
	client := &Client{
		apiKey:        apiKey,
		baseURL:       strings.TrimRight(baseURL, "/"),
		numResults:    numResults,
		minSimilarity: minSimilarity,
		httpClient:    &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Search uploads one image and returns the entries whose similarity is
// at or above threshold and that carry at least one external URL or a
// source field. The raw bytes are forwarded unchanged; pixel data is
// never inspected.
func (c *Client) Search(ctx context.Context, filename string, image []byte, threshold float64) ([]Entry, error) {
	endpoint, err := url.Parse(c.baseURL + "/search.php")
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	params := url.Values{}
	params.Set("output_type", "2")
	params.Set("numres", strconv.Itoa(c.numResults))
	params.Set("minsim", strconv.Itoa(c.minSimilarity))
	params.Set("dbmask", databaseMask)
	params.Set("api_key", c.apiKey)
	endpoint.RawQuery = params.Encode()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("write multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("User-Agent", userAgent)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	payload, err := decodeResponse(resp.Body)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(payload.Results))
	for _, result := range payload.Results {
		similarity, err := strconv.ParseFloat(strings.TrimSpace(result.Header.Similarity), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: similarity %q: %v", ErrMalformedResponse, result.Header.Similarity, err)
		}
		if similarity < threshold {
			continue
		}
		if len(result.Data.ExtURLs) == 0 && result.Data.Source == "" {
			continue
		}
		entries = append(entries, Entry{
			Similarity: similarity,
			URLs:       result.Data.ExtURLs,
			Source:     result.Data.Source,
		})
	}
	return entries, nil
}

func decodeResponse(r io.Reader) (*searchResponse, error) {
	var payload searchResponse
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &payload, nil
}

// CandidateURLs flattens entries into the classifier input pool,
// preserving entry order: external URLs first, then the source field.
func CandidateURLs(entries []Entry) []string {
	var pool []string
	for _, entry := range entries {
		pool = append(pool, entry.URLs...)
		if entry.Source != "" {
			pool = append(pool, entry.Source)
		}
	}
	return pool
}
