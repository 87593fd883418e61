package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"equitydesk/internal/domain/news"
	"equitydesk/pkg/errors"
	"equitydesk/pkg/logger"
)

// Compile-time check
var _ news.SearchBackend = (*Client)(nil)

const (
	defaultBaseURL = "https://api.exa.ai"
	numResults     = 10
)

// Client calls the Exa search API directly
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
	log        *logger.Logger
}

// NewClient creates an Exa API client
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		now: time.Now,
		log: logger.Get().Named("exa"),
	}
}

func (c *Client) Name() string { return "direct_exa_api" }

type searchRequest struct {
	Query              string         `json:"query"`
	Type               string         `json:"type"`
	NumResults         int            `json:"numResults"`
	IncludeDomains     []string       `json:"includeDomains,omitempty"`
	StartPublishedDate string         `json:"startPublishedDate"`
	Contents           searchContents `json:"contents"`
}

type searchContents struct {
	Summary bool `json:"summary"`
}

// Search implements news.SearchBackend
func (c *Client) Search(ctx context.Context, q news.NewsQuery) ([]news.Article, error) {
	body, err := json.Marshal(searchRequest{
		Query:              q.Text,
		Type:               "auto",
		NumResults:         numResults,
		IncludeDomains:     q.Domains,
		StartPublishedDate: q.StartDate(c.now()),
		Contents:           searchContents{Summary: true},
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode exa request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("User-Agent", "equitydesk/1.0")

	c.log.Debugw("exa search", "scope", q.Scope(), "symbol", q.Symbol, "domains", len(q.Domains))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrSearchUnavailable, "exa request: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, errors.Wrapf(errors.ErrSearchUnavailable, "read exa response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrSearchUnavailable, "exa API returned status %d: %s", resp.StatusCode, truncateRunes(string(raw), 300))
	}

	return ParseResults(raw)
}
