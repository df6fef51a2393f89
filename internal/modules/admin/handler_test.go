package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/folio-space/core/internal/middleware"
	"github.com/folio-space/core/internal/models"
	"github.com/folio-space/core/internal/modules/newsletter"
	"github.com/folio-space/core/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memSubs struct {
	rows []models.Subscriber
}

func (m *memSubs) List(_ context.Context, status models.SubscriberStatus) ([]models.Subscriber, error) {
	if status == "" {
		return m.rows, nil
	}
	var out []models.Subscriber
	for _, s := range m.rows {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSubs) CountByStatus(_ context.Context) (map[models.SubscriberStatus]int64, error) {
	counts := map[models.SubscriberStatus]int64{}
	for _, s := range m.rows {
		counts[s.Status]++
	}
	return counts, nil
}

type fakeCaster struct {
	sent      []string // subjects
	testSends []string // recipients
}

func (f *fakeCaster) Send(_ context.Context, subject, markdown string) (newsletter.BroadcastReport, error) {
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(markdown) == "" {
		return newsletter.BroadcastReport{}, newsletter.ErrEmptyBroadcast
	}
	f.sent = append(f.sent, subject)
	return newsletter.BroadcastReport{Total: 3, Sent: 3}, nil
}

func (f *fakeCaster) SendTest(_ context.Context, to, _, _ string) error {
	f.testSends = append(f.testSends, to)
	return nil
}

type memMessages struct{}

func (memMessages) List(_ context.Context, _, _ int) ([]models.ContactMessage, int64, error) {
	return []models.ContactMessage{{Name: "Ada", Email: "ada@example.com", Message: "hi"}}, 1, nil
}

func newAdminRouter(t *testing.T, caster *fakeCaster) (*gin.Engine, *memUsers) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	users := newMemUsers()
	seedUser(t, users, "jane", "s3cret", true)

	subs := &memSubs{rows: []models.Subscriber{
		{Email: "a@example.com", Status: models.SubscriberActive},
		{Email: "b@example.com", Status: models.SubscriberActive},
		{Email: "c@example.com", Status: models.SubscriberPending},
	}}

	r := gin.New()
	h := NewHandler(NewService(users, zap.NewNop()), subs, caster, memMessages{}, "owner@folio.dev", zap.NewNop())
	h.RegisterRoutes(r.Group("/api"), middleware.Auth(), middleware.RequireAdmin())
	return r, users
}

func adminToken(t *testing.T, isAdmin bool) string {
	t.Helper()
	tok, err := jwt.Sign("user-1", isAdmin, time.Hour)
	require.NoError(t, err)
	return tok
}

func doAuthed(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoginEndpoint(t *testing.T) {
	r, _ := newAdminRouter(t, &fakeCaster{})

	w := doAuthed(r, http.MethodPost, "/api/admin/login", "", `{"username":"jane","password":"s3cret"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token")

	w = doAuthed(r, http.MethodPost, "/api/admin/login", "", `{"username":"jane","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	r, _ := newAdminRouter(t, &fakeCaster{})

	w := doAuthed(r, http.MethodGet, "/api/admin/subscribers", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// valid token but not an admin
	w = doAuthed(r, http.MethodGet, "/api/admin/subscribers", adminToken(t, false), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSubscribersEndpoint(t *testing.T) {
	r, _ := newAdminRouter(t, &fakeCaster{})
	tok := adminToken(t, true)

	w := doAuthed(r, http.MethodGet, "/api/admin/subscribers", tok, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a@example.com")
	assert.Contains(t, w.Body.String(), "c@example.com")

	w = doAuthed(r, http.MethodGet, "/api/admin/subscribers?status=ACTIVE", tok, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "c@example.com")

	w = doAuthed(r, http.MethodGet, "/api/admin/subscribers?status=BOGUS", tok, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsEndpoint(t *testing.T) {
	r, _ := newAdminRouter(t, &fakeCaster{})

	w := doAuthed(r, http.MethodGet, "/api/admin/subscribers/stats", adminToken(t, true), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":3`)
	assert.Contains(t, w.Body.String(), `"active":2`)
	assert.Contains(t, w.Body.String(), `"pending":1`)
}

func TestBroadcastEndpoint(t *testing.T) {
	caster := &fakeCaster{}
	r, _ := newAdminRouter(t, caster)
	tok := adminToken(t, true)

	w := doAuthed(r, http.MethodPost, "/api/admin/newsletter/broadcast", tok,
		`{"subject":"Issue #1","content":"Hello **world**"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sent":3`)
	assert.Equal(t, []string{"Issue #1"}, caster.sent)

	w = doAuthed(r, http.MethodPost, "/api/admin/newsletter/broadcast", tok, `{"subject":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTestSendDefaultsToOwner(t *testing.T) {
	caster := &fakeCaster{}
	r, _ := newAdminRouter(t, caster)

	w := doAuthed(r, http.MethodPost, "/api/admin/newsletter/test", adminToken(t, true), `{}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"owner@folio.dev"}, caster.testSends)
}

func TestMessagesEndpoint(t *testing.T) {
	r, _ := newAdminRouter(t, &fakeCaster{})

	w := doAuthed(r, http.MethodGet, "/api/admin/messages", adminToken(t, true), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ada@example.com")
}
