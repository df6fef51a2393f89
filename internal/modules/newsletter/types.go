package newsletter

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/folio-space/core/internal/models"
	pkgmail "github.com/folio-space/core/internal/pkg/mail"
)

// Policy and validation errors surfaced to the caller with a specific
// message. Infrastructure errors are returned as-is and reduced to a
// generic message at the handler boundary.
var (
	ErrInvalidEmail      = errors.New("please enter a valid email address")
	ErrDisposableEmail   = errors.New("disposable email addresses are not accepted")
	ErrAlreadySubscribed = errors.New("this address is already subscribed")
)

// ErrConfirmMailFailed marks a subscribe call whose state write
// committed but whose confirmation email did not go out. The row stays
// PENDING; retrying regenerates the token.
var ErrConfirmMailFailed = errors.New("confirmation email could not be sent")

// SubscribeInput carries a subscribe/resubscribe attempt.
type SubscribeInput struct {
	Email     string
	IP        string
	UserAgent string
}

// ConfirmOutcome is the terminal state of a confirm attempt.
type ConfirmOutcome int

const (
	ConfirmOK ConfirmOutcome = iota
	ConfirmAlreadyActive
	ConfirmExpired
	ConfirmNotFound
)

// UnsubOutcome is the terminal state of an unsubscribe attempt.
type UnsubOutcome int

const (
	UnsubOK UnsubOutcome = iota
	UnsubAlready
	UnsubNotFound
)

// Repository is the persistence surface for subscribers. Find methods
// return (nil, nil) when no row matches.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	FindByConfirmToken(ctx context.Context, token string) (*models.Subscriber, error)
	FindByUnsubToken(ctx context.Context, token string) (*models.Subscriber, error)
	Create(ctx context.Context, sub *models.Subscriber) error
	Update(ctx context.Context, sub *models.Subscriber) error
	List(ctx context.Context, status models.SubscriberStatus) ([]models.Subscriber, error)
	CountByStatus(ctx context.Context) (map[models.SubscriberStatus]int64, error)
}

// Mailer is the slice of the mail sender this module uses.
type Mailer interface {
	SendSubscribeConfirm(to string, data pkgmail.ConfirmData) error
	SendWelcome(to string, data pkgmail.WelcomeData) error
	SendBroadcast(to string, data pkgmail.BroadcastData) error
}

// ConsentRecorder appends consent events to the audit trail.
type ConsentRecorder interface {
	Record(ctx context.Context, entry models.ConsentLog) error
}

// SiteInfo is the public identity embedded in emails and links.
type SiteInfo struct {
	SiteName  string
	OwnerName string
	BaseURL   string // API base URL for confirm/unsubscribe links
}

// disposableDomains are rejected at subscribe time as a policy rule.
var disposableDomains = map[string]struct{}{
	"mailinator.com":    {},
	"guerrillamail.com": {},
	"10minutemail.com":  {},
	"yopmail.com":       {},
	"tempmail.com":      {},
	"temp-mail.org":     {},
	"throwawaymail.com": {},
	"sharklasers.com":   {},
	"trashmail.com":     {},
	"getnada.com":       {},
}

// NormalizeEmail lower-cases and trims an address so the unique index
// operates on the canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks format and the disposable-domain policy.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	if !strings.Contains(domain, ".") {
		return ErrInvalidEmail
	}
	if _, blocked := disposableDomains[domain]; blocked {
		return ErrDisposableEmail
	}
	return nil
}
