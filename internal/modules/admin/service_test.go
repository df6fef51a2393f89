package admin

import (
	"context"
	"testing"

	"github.com/folio-space/core/internal/models"
	"github.com/folio-space/core/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type memUsers struct {
	byName map[string]*models.User
}

func newMemUsers() *memUsers { return &memUsers{byName: map[string]*models.User{}} }

func (m *memUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	u, ok := m.byName[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	cp := *user
	m.byName[user.Username] = &cp
	return nil
}

func (m *memUsers) Update(_ context.Context, user *models.User) error {
	cp := *user
	m.byName[user.Username] = &cp
	return nil
}

func seedUser(t *testing.T, users *memUsers, username, password string, isAdmin bool) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, users.Create(context.Background(), &models.User{
		Username: username, Password: string(hash), IsAdmin: isAdmin,
	}))
}

func TestLoginIssuesAdminToken(t *testing.T) {
	users := newMemUsers()
	seedUser(t, users, "jane", "s3cret", true)
	svc := NewService(users, zap.NewNop())

	tok, err := svc.Login(context.Background(), "jane", "s3cret", "1.2.3.4")
	require.NoError(t, err)

	claims, err := jwt.Parse(tok)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)

	stored := users.byName["jane"]
	require.NotNil(t, stored.LastLoginAt)
	assert.Equal(t, "1.2.3.4", stored.LastLoginIP)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	users := newMemUsers()
	seedUser(t, users, "jane", "s3cret", true)
	svc := NewService(users, zap.NewNop())

	_, err := svc.Login(context.Background(), "jane", "wrong", "")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	svc := NewService(newMemUsers(), zap.NewNop())

	_, err := svc.Login(context.Background(), "ghost", "whatever", "")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestEnsureAdminCreatesAndRekeys(t *testing.T) {
	users := newMemUsers()
	svc := NewService(users, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "jane", "first-pass"))
	created := users.byName["jane"]
	require.NotNil(t, created)
	assert.True(t, created.IsAdmin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("first-pass")))

	// config password changed: hash follows
	require.NoError(t, svc.EnsureAdmin(ctx, "jane", "second-pass"))
	rekeyed := users.byName["jane"]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(rekeyed.Password), []byte("second-pass")))

	require.Error(t, svc.EnsureAdmin(ctx, "", ""))
}
