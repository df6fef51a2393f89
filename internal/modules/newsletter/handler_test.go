package newsletter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/folio-space/core/internal/middleware"
	"github.com/folio-space/core/internal/pkg/limiter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(svc *Service, subscribeRL, confirmRL gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	h := NewHandler(svc, testSite, "https://folio.dev", zap.NewNop())
	if subscribeRL == nil {
		subscribeRL = func(c *gin.Context) { c.Next() }
	}
	if confirmRL == nil {
		confirmRL = func(c *gin.Context) { c.Next() }
	}
	h.RegisterRoutes(api, subscribeRL, confirmRL)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubscribeEndpoint(t *testing.T) {
	svc, repo, _, _ := newTestService()
	r := newTestRouter(svc, nil, nil)

	w := doJSON(r, http.MethodPost, "/api/newsletter/subscribe", `{"email":"a@example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "check your inbox")
	assert.NotNil(t, repo.get("a@example.com"))
}

func TestSubscribeEndpointRejectsMalformedEmail(t *testing.T) {
	svc, repo, _, _ := newTestService()
	r := newTestRouter(svc, nil, nil)

	w := doJSON(r, http.MethodPost, "/api/newsletter/subscribe", `{"email":"bad-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "valid email")
	assert.Equal(t, 0, repo.len())

	w = doJSON(r, http.MethodPost, "/api/newsletter/subscribe", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmEndpointPages(t *testing.T) {
	svc, repo, _, _ := newTestService()
	r := newTestRouter(svc, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, SubscribeInput{Email: "a@example.com"}))
	tok := *repo.get("a@example.com").ConfirmToken

	// unknown token
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/newsletter/confirm?token=unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not valid")

	// valid token
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/newsletter/confirm?token="+tok, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Subscription confirmed")

	// replay of the consumed token
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/newsletter/confirm?token="+tok, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfirmEndpointExpiredPage(t *testing.T) {
	svc, repo, _, _ := newTestService()
	r := newTestRouter(svc, nil, nil)

	require.NoError(t, svc.Subscribe(context.Background(), SubscribeInput{Email: "a@example.com"}))
	tok := *repo.get("a@example.com").ConfirmToken
	svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/newsletter/confirm?token="+tok, nil))
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Contains(t, w.Body.String(), "expired")
	assert.Contains(t, w.Body.String(), "subscribe again")
}

func TestUnsubscribeEndpointIdempotentPage(t *testing.T) {
	svc, repo, _, _ := newTestService()
	r := newTestRouter(svc, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, SubscribeInput{Email: "a@example.com"}))
	_, err := svc.Confirm(ctx, *repo.get("a@example.com").ConfirmToken)
	require.NoError(t, err)
	unsub := repo.get("a@example.com").UnsubToken

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/newsletter/unsubscribe?token="+unsub, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Unsubscribed")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/newsletter/unsubscribe?token="+unsub, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Already unsubscribed")
}

// The N+1th request must be rejected before any database mutation.
func TestSubscribeRateLimitBlocksBeforeMutation(t *testing.T) {
	svc, repo, _, _ := newTestService()
	rl := middleware.RateLimit(
		limiter.NewMemory(limiter.Rule{Name: "newsletter", Max: 2, Window: time.Hour}),
		zap.NewNop(),
	)
	r := newTestRouter(svc, rl, nil)

	for i, email := range []string{`{"email":"a@example.com"}`, `{"email":"b@example.com"}`} {
		w := doJSON(r, http.MethodPost, "/api/newsletter/subscribe", email)
		assert.Equal(t, http.StatusOK, w.Code, "request %d within quota", i+1)
	}

	w := doJSON(r, http.MethodPost, "/api/newsletter/subscribe", `{"email":"c@example.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Nil(t, repo.get("c@example.com"), "no row written past the limit")
	assert.Equal(t, 2, repo.len())
}
