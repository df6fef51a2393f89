package projects

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/folio-space/core/internal/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGitHub struct {
	projects []Project
	calls    int
	err      error
}

func (f *fakeGitHub) Repositories(context.Context) ([]Project, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.projects, nil
}

func TestListCachesUpstream(t *testing.T) {
	gh := &fakeGitHub{projects: []Project{{Name: "folio-core", Stars: 42}}}
	svc := NewService(gh, kv.NewMemory(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.NoError(t, err)
	projects, err := svc.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, gh.calls)
	require.Len(t, projects, 1)
	assert.Equal(t, 42, projects[0].Stars)
}

func TestListServesStaleOnError(t *testing.T) {
	gh := &fakeGitHub{projects: []Project{{Name: "folio-core"}}}
	cache := kv.NewMemory()
	svc := NewService(gh, cache, zap.NewNop())
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.NoError(t, err)

	require.NoError(t, cache.Delete(ctx, cacheKey))
	gh.err = errors.New("rate limited")

	projects, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "folio-core", projects[0].Name)
}

func TestClientFiltersForksAndArchived(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/jane/repos", r.URL.Path)
		assert.Equal(t, "Bearer gh-tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"name":"keep","html_url":"https://github.com/jane/keep","stargazers_count":7,"language":"Go","pushed_at":"2025-07-01T00:00:00Z"},
			{"name":"a-fork","fork":true},
			{"name":"old","archived":true}
		]`))
	}))
	defer srv.Close()

	c := &Client{baseURL: srv.URL, user: "jane", token: "gh-tok",
		httpClient: &http.Client{Timeout: time.Second}}
	projects, err := c.Repositories(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "keep", projects[0].Name)
	assert.Equal(t, "Go", projects[0].Language)
}

func TestClientUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := &Client{baseURL: srv.URL, user: "jane", httpClient: &http.Client{Timeout: time.Second}}
	_, err := c.Repositories(context.Background())
	assert.ErrorContains(t, err, "403")
}
