// Package search queries the DuckDuckGo Instant Answer API.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dusk-indust/ensemble/internal/llm"
)

// NoResults is returned by Search when the answer has no related topics.
const NoResults = "No results found"

const defaultEndpoint = "https://api.duckduckgo.com"

// Client performs instant-answer lookups.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a Client for endpoint. An empty endpoint uses the
// public DuckDuckGo API.
func NewClient(endpoint string, hc *http.Client) *Client {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{endpoint: endpoint, http: hc}
}

// Search returns the text of the first related topic for query, or
// NoResults.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	u := c.endpoint + "/?" + url.Values{
		"q":      {query},
		"format": {"json"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("search: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("search: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &llm.StatusError{Backend: "duckduckgo", Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var answer instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return "", fmt.Errorf("search: decode response: %w", err)
	}
	if text := firstText(answer.RelatedTopics); text != "" {
		return text, nil
	}
	return NoResults, nil
}

type instantAnswer struct {
	RelatedTopics []relatedTopic `json:"RelatedTopics"`
}

// relatedTopic is either a result (Text set) or a named group of results.
type relatedTopic struct {
	Text     string         `json:"Text"`
	FirstURL string         `json:"FirstURL"`
	Topics   []relatedTopic `json:"Topics"`
}

func firstText(topics []relatedTopic) string {
	for _, t := range topics {
		if t.Text != "" {
			return t.Text
		}
		if text := firstText(t.Topics); text != "" {
			return text
		}
	}
	return ""
}
