// Package gdpr implements the two-step data export and erasure flows:
// a request endpoint that emails a short-lived verification link, and a
// verify endpoint that performs the action once the link is opened.
package gdpr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/folio-space/core/internal/models"
	"github.com/folio-space/core/internal/pkg/kv"
	"github.com/folio-space/core/internal/pkg/limiter"
	pkgmail "github.com/folio-space/core/internal/pkg/mail"
	"github.com/folio-space/core/internal/pkg/token"
	"go.uber.org/zap"
)

// Actions a verification token can authorize.
const (
	ActionExport = "export"
	ActionDelete = "delete"
)

var (
	ErrUnknownEmail  = errors.New("no data is stored for this address")
	ErrInvalidAction = errors.New("action must be export or delete")
	ErrTokenNotFound = errors.New("this link is not valid or has expired")
	ErrEmailLimited  = errors.New("too many requests for this address, try again tomorrow")
	ErrVerifyMail    = errors.New("verification email could not be sent")
)

// SubscriberStore is the read surface over subscriber rows.
type SubscriberStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Subscriber, error)
}

// ConsentStore reads the audit trail for an address.
type ConsentStore interface {
	History(ctx context.Context, email string) ([]models.ConsentLog, error)
}

// Eraser removes every row stored for an address in one transaction.
type Eraser interface {
	EraseSubscriberData(ctx context.Context, email string) error
}

// Mailer sends the verification email.
type Mailer interface {
	SendGDPRVerify(to string, data pkgmail.GDPRVerifyData) error
}

// verifyRequest is the kv payload bound to a verification token.
type verifyRequest struct {
	Action string `json:"action"`
	Email  string `json:"email"`
}

// Export is the JSON document handed to the visitor on a verified
// export. Audit metadata the site holds about them is included in full.
type Export struct {
	Email      string             `json:"email"`
	ExportedAt time.Time          `json:"exported_at"`
	Subscriber *SubscriberExport  `json:"subscriber"`
	ConsentLog []ConsentLogExport `json:"consent_log"`
}

type SubscriberExport struct {
	Status         models.SubscriberStatus `json:"status"`
	SubscribedAt   *time.Time              `json:"subscribed_at"`
	ConfirmedAt    *time.Time              `json:"confirmed_at"`
	UnsubscribedAt *time.Time              `json:"unsubscribed_at"`
	IPAddress      string                  `json:"ip_address"`
	UserAgent      string                  `json:"user_agent"`
	AllowAnalytics bool                    `json:"allow_analytics"`
	AllowMarketing bool                    `json:"allow_marketing"`
	CreatedAt      time.Time               `json:"created_at"`
}

type ConsentLogExport struct {
	Type          string    `json:"type"`
	Granted       bool      `json:"granted"`
	PolicyVersion string    `json:"policy_version"`
	CreatedAt     time.Time `json:"created_at"`
}

type Service struct {
	subs       SubscriberStore
	consent    ConsentStore
	eraser     Eraser
	tokens     kv.Store
	emailLimit limiter.Limiter
	mailer     Mailer
	siteName   string
	baseURL    string
	log        *zap.Logger

	now func() time.Time
}

func NewService(subs SubscriberStore, consent ConsentStore, eraser Eraser,
	tokens kv.Store, emailLimit limiter.Limiter, mailer Mailer,
	siteName, baseURL string, log *zap.Logger) *Service {
	return &Service{
		subs: subs, consent: consent, eraser: eraser,
		tokens: tokens, emailLimit: emailLimit, mailer: mailer,
		siteName: siteName, baseURL: baseURL, log: log,
		now: time.Now,
	}
}

// Request starts a flow: checks the address holds data, applies the
// per-email quota on top of the caller's IP limiter, stores a 15-minute
// single-use token and emails the verification link.
func (s *Service) Request(ctx context.Context, action, email string) error {
	if action != ActionExport && action != ActionDelete {
		return ErrInvalidAction
	}

	sub, err := s.subs.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if sub == nil {
		return ErrUnknownEmail
	}

	allowed, err := s.emailLimit.Allow(ctx, email)
	if err != nil {
		s.log.Warn("gdpr email limiter error", zap.Error(err))
	} else if !allowed {
		return ErrEmailLimited
	}

	tok, err := token.New()
	if err != nil {
		return err
	}
	if err := s.tokens.Put(ctx, tok, verifyRequest{Action: action, Email: sub.Email}, token.VerifyTTL); err != nil {
		return err
	}

	actionWord := ActionExport
	if action == ActionDelete {
		actionWord = "deletion"
	}
	err = s.mailer.SendGDPRVerify(sub.Email, pkgmail.GDPRVerifyData{
		SiteName:  s.siteName,
		Action:    actionWord,
		VerifyURL: fmt.Sprintf("%s/api/gdpr/verify?token=%s", s.baseURL, tok),
	})
	if err != nil {
		s.log.Error("gdpr verify mail failed", zap.String("action", action), zap.Error(err))
		return ErrVerifyMail
	}

	s.log.Info("gdpr request issued", zap.String("action", action))
	return nil
}

// Verify consumes a token. For an export it returns the data document;
// for a deletion it erases the address and returns nil.
func (s *Service) Verify(ctx context.Context, tok string) (string, *Export, error) {
	var req verifyRequest
	if err := s.tokens.Take(ctx, tok, &req); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return "", nil, ErrTokenNotFound
		}
		return "", nil, err
	}

	switch req.Action {
	case ActionExport:
		doc, err := s.buildExport(ctx, req.Email)
		return ActionExport, doc, err
	case ActionDelete:
		if err := s.eraser.EraseSubscriberData(ctx, req.Email); err != nil {
			return "", nil, err
		}
		s.log.Info("gdpr erasure completed")
		return ActionDelete, nil, nil
	default:
		return "", nil, ErrTokenNotFound
	}
}

func (s *Service) buildExport(ctx context.Context, email string) (*Export, error) {
	sub, err := s.subs.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		// deleted between request and verify
		return nil, ErrUnknownEmail
	}
	logs, err := s.consent.History(ctx, email)
	if err != nil {
		return nil, err
	}

	doc := &Export{
		Email:      sub.Email,
		ExportedAt: s.now().UTC(),
		Subscriber: &SubscriberExport{
			Status:         sub.Status,
			SubscribedAt:   sub.SubscribedAt,
			ConfirmedAt:    sub.ConfirmedAt,
			UnsubscribedAt: sub.UnsubscribedAt,
			IPAddress:      sub.IPAddress,
			UserAgent:      sub.UserAgent,
			AllowAnalytics: sub.AllowAnalytics,
			AllowMarketing: sub.AllowMarketing,
			CreatedAt:      sub.CreatedAt,
		},
		ConsentLog: make([]ConsentLogExport, 0, len(logs)),
	}
	for _, l := range logs {
		doc.ConsentLog = append(doc.ConsentLog, ConsentLogExport{
			Type:          l.Type,
			Granted:       l.Granted,
			PolicyVersion: l.PolicyVersion,
			CreatedAt:     l.CreatedAt,
		})
	}
	return doc, nil
}
