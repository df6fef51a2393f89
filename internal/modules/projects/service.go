// Package projects lists the owner's public repositories from the
// GitHub REST API, cached for an hour.
package projects

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/folio-space/core/internal/config"
	"github.com/folio-space/core/internal/pkg/kv"
	"go.uber.org/zap"
)

const (
	cacheTTL = time.Hour
	staleTTL = 24 * time.Hour
	cacheKey = "projects:list"

	perPage = 30
)

// Project is one repository as shown on the portfolio.
type Project struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	Homepage    string    `json:"homepage,omitempty"`
	Language    string    `json:"language,omitempty"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	Topics      []string  `json:"topics,omitempty"`
	PushedAt    time.Time `json:"pushed_at"`
}

// Fetcher is the upstream repository source.
type Fetcher interface {
	Repositories(ctx context.Context) ([]Project, error)
}

// Client reads the authenticated (or anonymous) GitHub REST API.
type Client struct {
	baseURL    string
	user       string
	token      string
	httpClient *http.Client
}

func NewClient(cfg config.GitHubConfig) *Client {
	return &Client{
		baseURL:    "https://api.github.com",
		user:       cfg.User,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Repositories(ctx context.Context) ([]Project, error) {
	url := fmt.Sprintf("%s/users/%s/repos?sort=pushed&per_page=%d", c.baseURL, c.user, perPage)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github responded %d", resp.StatusCode)
	}

	var repos []struct {
		Name        string    `json:"name"`
		Description string    `json:"description"`
		HTMLURL     string    `json:"html_url"`
		Homepage    string    `json:"homepage"`
		Language    string    `json:"language"`
		Stars       int       `json:"stargazers_count"`
		Forks       int       `json:"forks_count"`
		Topics      []string  `json:"topics"`
		Fork        bool      `json:"fork"`
		Archived    bool      `json:"archived"`
		PushedAt    time.Time `json:"pushed_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&repos); err != nil {
		return nil, fmt.Errorf("github decode: %w", err)
	}

	projects := make([]Project, 0, len(repos))
	for _, r := range repos {
		if r.Fork || r.Archived {
			continue
		}
		projects = append(projects, Project{
			Name:        r.Name,
			Description: r.Description,
			URL:         r.HTMLURL,
			Homepage:    r.Homepage,
			Language:    r.Language,
			Stars:       r.Stars,
			Forks:       r.Forks,
			Topics:      r.Topics,
			PushedAt:    r.PushedAt,
		})
	}
	return projects, nil
}

type Service struct {
	github Fetcher
	cache  kv.Store
	log    *zap.Logger
}

func NewService(github Fetcher, cache kv.Store, log *zap.Logger) *Service {
	return &Service{github: github, cache: cache, log: log}
}

// List returns the project list, cache first, stale copy on upstream
// failure.
func (s *Service) List(ctx context.Context) ([]Project, error) {
	var cached []Project
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return cached, nil
	}

	projects, err := s.github.Repositories(ctx)
	if err != nil {
		var stale []Project
		if serr := s.cache.Get(ctx, cacheKey+":stale", &stale); serr == nil {
			s.log.Warn("github unreachable, serving stale projects", zap.Error(err))
			return stale, nil
		}
		return nil, err
	}

	if err := s.cache.Put(ctx, cacheKey, projects, cacheTTL); err != nil {
		s.log.Warn("project cache write failed", zap.Error(err))
	}
	_ = s.cache.Put(ctx, cacheKey+":stale", projects, staleTTL)
	return projects, nil
}
