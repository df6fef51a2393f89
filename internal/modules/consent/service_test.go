package consent

import (
	"context"
	"testing"

	"github.com/folio-space/core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memSubs struct {
	byToken map[string]*models.Subscriber
	updates int
}

func newMemSubs() *memSubs { return &memSubs{byToken: map[string]*models.Subscriber{}} }

func (m *memSubs) add(sub *models.Subscriber) { m.byToken[sub.UnsubToken] = sub }

func (m *memSubs) FindByUnsubToken(_ context.Context, token string) (*models.Subscriber, error) {
	sub, ok := m.byToken[token]
	if !ok {
		return nil, nil
	}
	cp := *sub
	return &cp, nil
}

func (m *memSubs) Update(_ context.Context, sub *models.Subscriber) error {
	m.updates++
	cp := *sub
	m.byToken[sub.UnsubToken] = &cp
	return nil
}

type memRecorder struct {
	entries []models.ConsentLog
}

func (m *memRecorder) Record(_ context.Context, entry models.ConsentLog) error {
	m.entries = append(m.entries, entry)
	return nil
}

func boolp(v bool) *bool { return &v }

const chromeUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestUpdateChangesFlagsAndLogsEach(t *testing.T) {
	subs := newMemSubs()
	subs.add(&models.Subscriber{
		Email: "a@example.com", UnsubToken: "tok-a",
		AllowAnalytics: false, AllowMarketing: true,
	})
	rec := &memRecorder{}
	svc := NewService(subs, rec, zap.NewNop())

	prefs, err := svc.Update(context.Background(), PreferencesInput{
		Token:          "tok-a",
		AllowAnalytics: boolp(true),
		AllowMarketing: boolp(false),
		IP:             "1.2.3.4",
		UserAgent:      chromeUA,
	})
	require.NoError(t, err)
	assert.True(t, prefs.AllowAnalytics)
	assert.False(t, prefs.AllowMarketing)

	require.Len(t, rec.entries, 2)
	types := []string{rec.entries[0].Type, rec.entries[1].Type}
	assert.Contains(t, types, models.ConsentAnalytics)
	assert.Contains(t, types, models.ConsentMarketing)
	for _, e := range rec.entries {
		assert.Equal(t, "a@example.com", e.Email)
		assert.Equal(t, models.ConsentPolicyVersion, e.PolicyVersion)
		assert.Equal(t, "1.2.3.4", e.IPAddress)
		assert.Contains(t, string(e.Detail), "Chrome")
	}
}

func TestUpdateNoopWritesNothing(t *testing.T) {
	subs := newMemSubs()
	subs.add(&models.Subscriber{Email: "a@example.com", UnsubToken: "tok-a", AllowMarketing: true})
	rec := &memRecorder{}
	svc := NewService(subs, rec, zap.NewNop())

	// same values, and a nil pointer for analytics
	prefs, err := svc.Update(context.Background(), PreferencesInput{
		Token:          "tok-a",
		AllowMarketing: boolp(true),
	})
	require.NoError(t, err)
	assert.True(t, prefs.AllowMarketing)
	assert.Empty(t, rec.entries)
	assert.Equal(t, 0, subs.updates)
}

func TestUpdateUnknownToken(t *testing.T) {
	svc := NewService(newMemSubs(), &memRecorder{}, zap.NewNop())

	_, err := svc.Update(context.Background(), PreferencesInput{Token: "nope", AllowAnalytics: boolp(true)})
	assert.ErrorIs(t, err, ErrUnknownToken)

	_, err = svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestGetReturnsCurrentFlags(t *testing.T) {
	subs := newMemSubs()
	subs.add(&models.Subscriber{
		Email: "a@example.com", UnsubToken: "tok-a",
		AllowAnalytics: true, AllowMarketing: false,
	})
	svc := NewService(subs, &memRecorder{}, zap.NewNop())

	prefs, err := svc.Get(context.Background(), "tok-a")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", prefs.Email)
	assert.True(t, prefs.AllowAnalytics)
	assert.False(t, prefs.AllowMarketing)
}

func TestClientDetailEmptyUA(t *testing.T) {
	assert.Nil(t, clientDetail(""))
}
