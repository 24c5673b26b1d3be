// Package websearch wraps the Google Custom Search JSON API for recipe
// discovery on the open web.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

const DefaultEndpoint = "https://www.googleapis.com/customsearch/v1"

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Result is a raw web hit before any model cleanup.
type Result struct {
	Title   string
	URL     string
	Summary string
}

type Client struct {
	endpoint   string
	key        string
	cx         string
	httpClient doer
}

func NewClient(endpoint, key, cx string, httpClient doer) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint:   endpoint,
		key:        key,
		cx:         cx,
		httpClient: httpClient,
	}
}

type searchItem struct {
	Title        string `json:"title"`
	Link         string `json:"link"`
	FormattedURL string `json:"formattedUrl"`
	Snippet      string `json:"snippet"`
	Pagemap      struct {
		Metatags []map[string]string `json:"metatags"`
	} `json:"pagemap"`
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

// Search queries the API for recipe pages matching query, returning at most
// limit raw results.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	q := url.Values{}
	q.Set("key", c.key)
	q.Set("cx", c.cx)
	q.Set("exactTerms", "recipe")
	if limit > 0 {
		q.Set("num", strconv.Itoa(limit))
	}
	q.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search failed: %s: %s", resp.Status, string(body))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	results := make([]Result, 0, len(sr.Items))
	for _, item := range sr.Items {
		u := item.Link
		if item.FormattedURL != "" {
			u = item.FormattedURL
		}
		if u == "" {
			continue
		}
		results = append(results, Result{
			Title:   item.Title,
			URL:     u,
			Summary: summaryFor(item),
		})
	}
	return results, nil
}

// summaryFor prefers the page's og:description meta tag over the generic
// search snippet.
func summaryFor(item searchItem) string {
	for _, tags := range item.Pagemap.Metatags {
		if d := tags["og:description"]; d != "" {
			return d
		}
	}
	return item.Snippet
}
