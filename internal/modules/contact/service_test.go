package contact

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/folio-space/core/internal/models"
	pkgmail "github.com/folio-space/core/internal/pkg/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memRepo struct {
	rows []*models.ContactMessage
}

func (m *memRepo) Create(_ context.Context, msg *models.ContactMessage) error {
	cp := *msg
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memRepo) Update(_ context.Context, msg *models.ContactMessage) error {
	for i, row := range m.rows {
		if row.Email == msg.Email && row.Message == msg.Message {
			cp := *msg
			m.rows[i] = &cp
		}
	}
	return nil
}

func (m *memRepo) List(_ context.Context, limit, offset int) ([]models.ContactMessage, int64, error) {
	var out []models.ContactMessage
	for i := offset; i < len(m.rows) && len(out) < limit; i++ {
		out = append(out, *m.rows[i])
	}
	return out, int64(len(m.rows)), nil
}

type fakeRelay struct {
	sent []pkgmail.ContactRelayData
	errs error
}

func (f *fakeRelay) SendContactRelay(_, _ string, data pkgmail.ContactRelayData) error {
	if f.errs != nil {
		return f.errs
	}
	f.sent = append(f.sent, data)
	return nil
}

func TestSubmitStoresAndRelays(t *testing.T) {
	repo := &memRepo{}
	relay := &fakeRelay{}
	svc := NewService(repo, relay, "owner@folio.dev", zap.NewNop())

	err := svc.Submit(context.Background(), Input{
		Name:    "Ada",
		Email:   "Ada@Example.COM ",
		Subject: "Hi",
		Message: "Loved the post on generics.",
		IP:      "1.2.3.4",
	})
	require.NoError(t, err)

	require.Len(t, repo.rows, 1)
	row := repo.rows[0]
	assert.Equal(t, "ada@example.com", row.Email)
	assert.True(t, row.Relayed)

	require.Len(t, relay.sent, 1)
	assert.Equal(t, "Ada", relay.sent[0].Name)
	assert.Equal(t, "1.2.3.4", relay.sent[0].IP)
}

func TestSubmitRelayFailureKeepsRow(t *testing.T) {
	repo := &memRepo{}
	relay := &fakeRelay{errs: errors.New("smtp down")}
	svc := NewService(repo, relay, "owner@folio.dev", zap.NewNop())

	err := svc.Submit(context.Background(), Input{
		Name: "Ada", Email: "ada@example.com", Message: "hello",
	})
	require.Error(t, err)

	// row stored for recovery, not marked relayed
	require.Len(t, repo.rows, 1)
	assert.False(t, repo.rows[0].Relayed)
}

func TestSubmitValidation(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, &fakeRelay{}, "owner@folio.dev", zap.NewNop())
	ctx := context.Background()

	assert.ErrorIs(t, svc.Submit(ctx, Input{Email: "a@b.com", Message: "x"}), ErrMissingField)
	assert.ErrorIs(t, svc.Submit(ctx, Input{Name: "A", Email: "a@b.com"}), ErrMissingField)
	assert.ErrorIs(t, svc.Submit(ctx, Input{Name: "A", Email: "nope", Message: "x"}), ErrInvalidEmail)
	assert.ErrorIs(t, svc.Submit(ctx, Input{
		Name: "A", Email: "a@b.com", Message: strings.Repeat("x", maxMessageLen+1),
	}), ErrMessageTooLong)
	assert.Empty(t, repo.rows)
}

func TestListClampsPaging(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, &fakeRelay{}, "owner@folio.dev", zap.NewNop())
	for i := 0; i < 30; i++ {
		require.NoError(t, repo.Create(context.Background(), &models.ContactMessage{
			Name: "n", Email: "a@b.com", Message: "m",
		}))
	}

	rows, total, err := svc.List(context.Background(), -1, -5)
	require.NoError(t, err)
	assert.Equal(t, int64(30), total)
	assert.Len(t, rows, 20)
}
