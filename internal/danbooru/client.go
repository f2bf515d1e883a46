package danbooru

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const requestTimeout = 20 * time.Second

// PostInfo holds the cross-referenced identifiers and descriptive
// attributes of one board post.
type PostInfo struct {
	ID                string
	PixivID           string // empty when the post has no linked illustration
	SocialURL         string // set only when source references twitter.com or x.com
	ParentID          string // empty when the post has no parent
	HasActiveChildren bool
	OriginalURL       string // the media asset variant marked "original"
}

type postPayload struct {
	PixivID           *int64 `json:"pixiv_id"`
	ParentID          *int64 `json:"parent_id"`
	HasActiveChildren bool   `json:"has_active_children"`
	Source            string `json:"source"`
	MediaAsset        struct {
		Variants []struct {
			Type string `json:"type"`
			URL  string `json:"url"`
		} `json:"variants"`
	} `json:"media_asset"`
}

// Client fetches post metadata from the Danbooru API.
type Client struct {
	username   string
	apiKey     string
	baseURL    string
	httpClient *http.Client
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

// New creates a metadata client authenticated with username + API key.
func New(username, apiKey, baseURL string, opts ...Option) (*Client, error) {
	username = strings.TrimSpace(username)
	apiKey = strings.TrimSpace(apiKey)
	if username == "" || apiKey == "" {
		return nil, errors.New("danbooru credentials required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("danbooru base url required")
	}
	client := &Client{
		username:   username,
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Post fetches /posts/{id}.json and extracts the enrichment fields. An
// absent "original" media variant is an error; the post cannot be linked
// back to a full-fidelity asset.
func (c *Client) Post(ctx context.Context, id string) (*PostInfo, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("post id must not be empty")
	}
	endpoint := fmt.Sprintf("%s/posts/%s.json", c.baseURL, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.apiKey)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("danbooru post %s returned %d (latency=%v)", id, resp.StatusCode, latency)
	}

	var payload postPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode post %s: %w", id, err)
	}

	info := &PostInfo{
		ID:                id,
		HasActiveChildren: payload.HasActiveChildren,
		SocialURL:         socialSource(payload.Source),
	}
	if payload.PixivID != nil {
		info.PixivID = strconv.FormatInt(*payload.PixivID, 10)
	}
	if payload.ParentID != nil {
		info.ParentID = strconv.FormatInt(*payload.ParentID, 10)
	}

	for _, variant := range payload.MediaAsset.Variants {
		if variant.Type == "original" {
			info.OriginalURL = variant.URL
			break
		}
	}
	if info.OriginalURL == "" {
		return nil, fmt.Errorf("post %s has no original media variant", id)
	}
	return info, nil
}

// socialSource returns source when it is a twitter.com or x.com URL,
// matching the classifier's exact-host rule.
func socialSource(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return ""
	}
	parsed, err := url.Parse(source)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	if host == "twitter.com" || host == "x.com" {
		return source
	}
	return ""
}
