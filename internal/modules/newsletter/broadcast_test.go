package newsletter

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/folio-space/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedActive(t *testing.T, repo *memRepo, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, repo.Create(context.Background(), &models.Subscriber{
			Email:      fmt.Sprintf("sub%03d@example.com", i),
			Status:     models.SubscriberActive,
			UnsubToken: fmt.Sprintf("unsub-%03d", i),
		}))
	}
}

func TestBroadcastSendsToAllActive(t *testing.T) {
	repo := newMemRepo()
	mailer := &fakeMailer{}
	seedActive(t, repo, 25)

	// non-active rows must be skipped
	require.NoError(t, repo.Create(context.Background(), &models.Subscriber{
		Email: "pending@example.com", Status: models.SubscriberPending, UnsubToken: "p",
	}))
	require.NoError(t, repo.Create(context.Background(), &models.Subscriber{
		Email: "gone@example.com", Status: models.SubscriberUnsubscribed, UnsubToken: "g",
	}))

	b := NewBroadcaster(repo, mailer, testSite, zap.NewNop())
	report, err := b.Send(context.Background(), "Issue #1", "Hello **world**")
	require.NoError(t, err)

	assert.Equal(t, 25, report.Total)
	assert.Equal(t, 25, report.Sent)
	assert.Equal(t, 0, report.Failed)
	assert.Len(t, mailer.broadcasts, 25)
	assert.NotContains(t, mailer.broadcasts, "pending@example.com")
	assert.NotContains(t, mailer.broadcasts, "gone@example.com")
}

func TestBroadcastCountsFailuresIndividually(t *testing.T) {
	repo := newMemRepo()
	mailer := &fakeMailer{
		broadcastErr: func(to string) error {
			if to == "sub003@example.com" || to == "sub017@example.com" {
				return errors.New("mailbox full")
			}
			return nil
		},
	}
	seedActive(t, repo, 20)

	b := NewBroadcaster(repo, mailer, testSite, zap.NewNop())
	report, err := b.Send(context.Background(), "Issue #2", "content")
	require.NoError(t, err)

	assert.Equal(t, 20, report.Total)
	assert.Equal(t, 18, report.Sent)
	assert.Equal(t, 2, report.Failed)
}

func TestBroadcastRendersMarkdown(t *testing.T) {
	b := NewBroadcaster(newMemRepo(), &fakeMailer{}, testSite, zap.NewNop())

	body, err := b.render("Hello **world**")
	require.NoError(t, err)
	assert.Contains(t, string(body), "<strong>world</strong>")
}

func TestBroadcastRejectsEmptyInput(t *testing.T) {
	b := NewBroadcaster(newMemRepo(), &fakeMailer{}, testSite, zap.NewNop())

	_, err := b.Send(context.Background(), "", "body")
	assert.ErrorIs(t, err, ErrEmptyBroadcast)
	_, err = b.Send(context.Background(), "subject", "  ")
	assert.ErrorIs(t, err, ErrEmptyBroadcast)
}

func TestSendTestUsesDefaults(t *testing.T) {
	mailer := &fakeMailer{}
	b := NewBroadcaster(newMemRepo(), mailer, testSite, zap.NewNop())

	require.NoError(t, b.SendTest(context.Background(), "owner@example.com", "", ""))
	assert.Equal(t, []string{"owner@example.com"}, mailer.broadcasts)
}
