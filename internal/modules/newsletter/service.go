package newsletter

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/folio-space/core/internal/models"
	pkgmail "github.com/folio-space/core/internal/pkg/mail"
	"github.com/folio-space/core/internal/pkg/token"
	"go.uber.org/zap"
)

// Service drives the PENDING → ACTIVE → UNSUBSCRIBED lifecycle.
// Every state write commits before its email is attempted; sends are
// best-effort and never roll a transition back.
type Service struct {
	repo    Repository
	mailer  Mailer
	consent ConsentRecorder
	site    SiteInfo
	log     *zap.Logger
	now     func() time.Time
}

func NewService(repo Repository, mailer Mailer, consent ConsentRecorder, site SiteInfo, log *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		mailer:  mailer,
		consent: consent,
		site:    site,
		log:     log,
		now:     time.Now,
	}
}

// Subscribe handles first-time sign-up, PENDING re-sends and
// UNSUBSCRIBED re-subscription. One row per address, always.
func (s *Service) Subscribe(ctx context.Context, in SubscribeInput) error {
	email := NormalizeEmail(in.Email)
	if err := ValidateEmail(email); err != nil {
		return err
	}

	sub, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	switch {
	case sub == nil:
		sub, err = s.createPending(ctx, email, in)
		if err != nil {
			return err
		}
	case sub.Status == models.SubscriberActive:
		return ErrAlreadySubscribed
	case sub.Status == models.SubscriberPending:
		// re-send with a fresh token, same row
		if err := s.rotateConfirmToken(sub); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, sub); err != nil {
			return err
		}
	case sub.Status == models.SubscriberUnsubscribed:
		if err := s.resubscribe(ctx, sub, in); err != nil {
			return err
		}
	default:
		return fmt.Errorf("subscriber %s in unknown status %q", sub.ID, sub.Status)
	}

	if err := s.mailer.SendSubscribeConfirm(email, pkgmail.ConfirmData{
		SiteName:   s.site.SiteName,
		ConfirmURL: s.buildLink("/api/newsletter/confirm", *sub.ConfirmToken),
	}); err != nil {
		s.log.Error("confirmation email failed",
			zap.String("email", email), zap.Error(err))
		return ErrConfirmMailFailed
	}
	return nil
}

func (s *Service) createPending(ctx context.Context, email string, in SubscribeInput) (*models.Subscriber, error) {
	unsubToken, err := token.New()
	if err != nil {
		return nil, err
	}
	now := s.now()
	sub := &models.Subscriber{
		Email:        email,
		Status:       models.SubscriberPending,
		UnsubToken:   unsubToken,
		SubscribedAt: &now,
		IPAddress:    in.IP,
		UserAgent:    in.UserAgent,
	}
	if err := s.rotateConfirmToken(sub); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}
	s.recordConsent(ctx, email, models.ConsentNewsletter, true, in)
	return sub, nil
}

func (s *Service) resubscribe(ctx context.Context, sub *models.Subscriber, in SubscribeInput) error {
	if err := s.rotateConfirmToken(sub); err != nil {
		return err
	}
	now := s.now()
	sub.Status = models.SubscriberPending
	sub.SubscribedAt = &now
	sub.ConfirmedAt = nil
	sub.UnsubscribedAt = nil
	sub.IPAddress = in.IP
	sub.UserAgent = in.UserAgent
	if err := s.repo.Update(ctx, sub); err != nil {
		return err
	}
	s.recordConsent(ctx, sub.Email, models.ConsentNewsletter, true, in)
	return nil
}

// rotateConfirmToken issues a fresh confirmation token with the
// standard expiry. The unsub token is never touched.
func (s *Service) rotateConfirmToken(sub *models.Subscriber) error {
	t, err := token.New()
	if err != nil {
		return err
	}
	exp := s.now().Add(token.ConfirmTTL)
	sub.ConfirmToken = &t
	sub.ConfirmTokenExp = &exp
	return nil
}

// Confirm consumes a confirmation token and activates the subscriber.
func (s *Service) Confirm(ctx context.Context, confirmToken string) (ConfirmOutcome, error) {
	sub, err := s.repo.FindByConfirmToken(ctx, strings.TrimSpace(confirmToken))
	if err != nil {
		return ConfirmNotFound, err
	}
	if sub == nil {
		return ConfirmNotFound, nil
	}
	if sub.Status == models.SubscriberActive {
		return ConfirmAlreadyActive, nil
	}
	if sub.ConfirmTokenExp == nil || s.now().After(*sub.ConfirmTokenExp) {
		return ConfirmExpired, nil
	}

	now := s.now()
	sub.Status = models.SubscriberActive
	sub.ConfirmedAt = &now
	sub.ConfirmToken = nil
	sub.ConfirmTokenExp = nil
	if err := s.repo.Update(ctx, sub); err != nil {
		return ConfirmNotFound, err
	}

	// best-effort: the transition stands even when the welcome mail fails
	if err := s.mailer.SendWelcome(sub.Email, pkgmail.WelcomeData{
		SiteName:       s.site.SiteName,
		OwnerName:      s.site.OwnerName,
		UnsubscribeURL: s.buildLink("/api/newsletter/unsubscribe", sub.UnsubToken),
	}); err != nil {
		s.log.Error("welcome email failed",
			zap.String("email", sub.Email), zap.Error(err))
	}
	return ConfirmOK, nil
}

// Unsubscribe consumes a permanent unsubscribe token.
func (s *Service) Unsubscribe(ctx context.Context, unsubToken string) (UnsubOutcome, error) {
	sub, err := s.repo.FindByUnsubToken(ctx, strings.TrimSpace(unsubToken))
	if err != nil {
		return UnsubNotFound, err
	}
	if sub == nil {
		return UnsubNotFound, nil
	}
	if sub.Status == models.SubscriberUnsubscribed {
		return UnsubAlready, nil
	}

	now := s.now()
	sub.Status = models.SubscriberUnsubscribed
	sub.UnsubscribedAt = &now
	sub.ConfirmToken = nil
	sub.ConfirmTokenExp = nil
	if err := s.repo.Update(ctx, sub); err != nil {
		return UnsubNotFound, err
	}
	s.recordConsent(ctx, sub.Email, models.ConsentNewsletter, false, SubscribeInput{})
	return UnsubOK, nil
}

func (s *Service) recordConsent(ctx context.Context, email, consentType string, granted bool, in SubscribeInput) {
	if s.consent == nil {
		return
	}
	if err := s.consent.Record(ctx, models.ConsentLog{
		Email:         email,
		Type:          consentType,
		Granted:       granted,
		PolicyVersion: models.ConsentPolicyVersion,
		IPAddress:     in.IP,
		UserAgent:     in.UserAgent,
	}); err != nil {
		s.log.Error("consent log write failed",
			zap.String("email", email), zap.Error(err))
	}
}

func (s *Service) buildLink(path, tok string) string {
	base := strings.TrimRight(s.site.BaseURL, "/")
	q := url.Values{}
	q.Set("token", tok)
	return base + path + "?" + q.Encode()
}
