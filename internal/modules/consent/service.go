package consent

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/folio-space/core/internal/models"
	"github.com/mssola/useragent"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var ErrUnknownToken = errors.New("unknown token")

// SubscriberRepo is the slice of subscriber persistence this module
// needs. The unsubscribe token doubles as the preference-management
// credential: it is permanent and only ever shown to the inbox owner.
type SubscriberRepo interface {
	FindByUnsubToken(ctx context.Context, token string) (*models.Subscriber, error)
	Update(ctx context.Context, sub *models.Subscriber) error
}

// Recorder is the append-only audit sink.
type Recorder interface {
	Record(ctx context.Context, entry models.ConsentLog) error
}

// PreferencesInput updates a subscriber's consent flags. Nil pointers
// leave the corresponding flag untouched.
type PreferencesInput struct {
	Token          string
	AllowAnalytics *bool
	AllowMarketing *bool
	IP             string
	UserAgent      string
}

// Preferences is the current consent state returned to the visitor.
type Preferences struct {
	Email          string `json:"email"`
	AllowAnalytics bool   `json:"allow_analytics"`
	AllowMarketing bool   `json:"allow_marketing"`
}

type Service struct {
	subs SubscriberRepo
	rec  Recorder
	log  *zap.Logger

	now func() time.Time
}

func NewService(subs SubscriberRepo, rec Recorder, log *zap.Logger) *Service {
	return &Service{subs: subs, rec: rec, log: log, now: time.Now}
}

// Get looks up the current flags for a preference-management token.
func (s *Service) Get(ctx context.Context, token string) (*Preferences, error) {
	sub, err := s.subs.FindByUnsubToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrUnknownToken
	}
	return &Preferences{
		Email:          sub.Email,
		AllowAnalytics: sub.AllowAnalytics,
		AllowMarketing: sub.AllowMarketing,
	}, nil
}

// Update applies the requested flag changes and appends one audit row
// per flag that actually changed. A no-op update writes nothing.
func (s *Service) Update(ctx context.Context, in PreferencesInput) (*Preferences, error) {
	sub, err := s.subs.FindByUnsubToken(ctx, in.Token)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrUnknownToken
	}

	type change struct {
		typ     string
		granted bool
	}
	var changes []change

	if in.AllowAnalytics != nil && *in.AllowAnalytics != sub.AllowAnalytics {
		sub.AllowAnalytics = *in.AllowAnalytics
		changes = append(changes, change{models.ConsentAnalytics, *in.AllowAnalytics})
	}
	if in.AllowMarketing != nil && *in.AllowMarketing != sub.AllowMarketing {
		sub.AllowMarketing = *in.AllowMarketing
		changes = append(changes, change{models.ConsentMarketing, *in.AllowMarketing})
	}

	if len(changes) > 0 {
		if err := s.subs.Update(ctx, sub); err != nil {
			return nil, err
		}
		detail := clientDetail(in.UserAgent)
		for _, ch := range changes {
			entry := models.ConsentLog{
				Email:         sub.Email,
				Type:          ch.typ,
				Granted:       ch.granted,
				PolicyVersion: models.ConsentPolicyVersion,
				IPAddress:     in.IP,
				UserAgent:     in.UserAgent,
				Detail:        detail,
			}
			if err := s.rec.Record(ctx, entry); err != nil {
				// flags are already committed; losing one audit row is
				// logged rather than unwound
				s.log.Error("consent log write failed",
					zap.String("email", sub.Email), zap.String("type", ch.typ), zap.Error(err))
			}
		}
	}

	return &Preferences{
		Email:          sub.Email,
		AllowAnalytics: sub.AllowAnalytics,
		AllowMarketing: sub.AllowMarketing,
	}, nil
}

// clientDetail condenses the raw user-agent string into a small JSON
// blob so the audit trail stays readable without re-parsing.
func clientDetail(ua string) datatypes.JSON {
	if ua == "" {
		return nil
	}
	parsed := useragent.New(ua)
	name, version := parsed.Browser()
	blob, err := json.Marshal(map[string]any{
		"browser":         name,
		"browser_version": version,
		"os":              parsed.OS(),
		"mobile":          parsed.Mobile(),
		"bot":             parsed.Bot(),
	})
	if err != nil {
		return nil
	}
	return datatypes.JSON(blob)
}
