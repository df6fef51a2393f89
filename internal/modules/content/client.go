// Package content serves the blog's read model from a hosted headless
// CMS, with a short redis cache in front so the public endpoints do not
// hit the upstream on every request.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/folio-space/core/internal/config"
)

// Post is one published article as the front-end consumes it.
type Post struct {
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Excerpt     string    `json:"excerpt,omitempty"`
	Body        string    `json:"body,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	CoverURL    string    `json:"cover_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Fetcher is the upstream read surface, concretely the CMS query API.
type Fetcher interface {
	Posts(ctx context.Context) ([]Post, error)
	PostBySlug(ctx context.Context, slug string) (*Post, error)
}

const (
	listQuery = `*[_type == "post" && !(_id in path("drafts.**"))] | order(publishedAt desc){
  title, "slug": slug.current, excerpt, "tags": tags[], "cover_url": cover.asset->url, "published_at": publishedAt
}`
	bySlugQuery = `*[_type == "post" && slug.current == $slug][0]{
  title, "slug": slug.current, excerpt, body, "tags": tags[], "cover_url": cover.asset->url, "published_at": publishedAt
}`
)

// Client queries the CMS's GROQ endpoint over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(cfg config.CMSConfig) *Client {
	return &Client{
		baseURL: fmt.Sprintf("https://%s.api.sanity.io/v%s/data/query/%s",
			cfg.ProjectID, cfg.APIVersion, cfg.Dataset),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Posts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := c.query(ctx, listQuery, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) PostBySlug(ctx context.Context, slug string) (*Post, error) {
	var post *Post
	err := c.query(ctx, bySlugQuery, map[string]string{"$slug": fmt.Sprintf("%q", slug)}, &post)
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (c *Client) query(ctx context.Context, groq string, params map[string]string, dest interface{}) error {
	q := url.Values{"query": {groq}}
	for k, v := range params {
		q.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cms request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cms responded %d", resp.StatusCode)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("cms decode: %w", err)
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil
	}
	return json.Unmarshal(envelope.Result, dest)
}
