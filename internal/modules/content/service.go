package content

import (
	"context"
	"errors"
	"time"

	"github.com/folio-space/core/internal/pkg/kv"
	"go.uber.org/zap"
)

const (
	cacheTTL = 5 * time.Minute
	// staleTTL keeps a second copy around long past the fresh window,
	// served only when the upstream is down.
	staleTTL = 24 * time.Hour

	postsKey = "content:posts"
)

var ErrPostNotFound = errors.New("post not found")

type Service struct {
	cms   Fetcher
	cache kv.Store
	log   *zap.Logger
}

func NewService(cms Fetcher, cache kv.Store, log *zap.Logger) *Service {
	return &Service{cms: cms, cache: cache, log: log}
}

// Posts returns the published post list: cache first, then upstream,
// then the stale copy if the upstream is unreachable.
func (s *Service) Posts(ctx context.Context) ([]Post, error) {
	var cached []Post
	if err := s.cache.Get(ctx, postsKey, &cached); err == nil {
		return cached, nil
	}

	posts, err := s.cms.Posts(ctx)
	if err != nil {
		var stale []Post
		if serr := s.cache.Get(ctx, postsKey+":stale", &stale); serr == nil {
			s.log.Warn("cms unreachable, serving stale post list", zap.Error(err))
			return stale, nil
		}
		return nil, err
	}

	if err := s.cache.Put(ctx, postsKey, posts, cacheTTL); err != nil {
		s.log.Warn("post list cache write failed", zap.Error(err))
	}
	_ = s.cache.Put(ctx, postsKey+":stale", posts, staleTTL)
	return posts, nil
}

// PostBySlug returns one post with its full body.
func (s *Service) PostBySlug(ctx context.Context, slug string) (*Post, error) {
	key := "content:post:" + slug
	var cached Post
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	post, err := s.cms.PostBySlug(ctx, slug)
	if err != nil {
		var stale Post
		if serr := s.cache.Get(ctx, key+":stale", &stale); serr == nil {
			s.log.Warn("cms unreachable, serving stale post", zap.String("slug", slug), zap.Error(err))
			return &stale, nil
		}
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	if err := s.cache.Put(ctx, key, post, cacheTTL); err != nil {
		s.log.Warn("post cache write failed", zap.String("slug", slug), zap.Error(err))
	}
	_ = s.cache.Put(ctx, key+":stale", post, staleTTL)
	return post, nil
}
