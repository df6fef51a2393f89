package newsletter

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"strings"
	"sync/atomic"

	"github.com/folio-space/core/internal/models"
	pkgmail "github.com/folio-space/core/internal/pkg/mail"
	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// broadcastChunkSize bounds concurrent sends: one chunk of independent
// email dispatches runs at a time, and the next chunk starts only after
// every outcome of the previous one is in.
const broadcastChunkSize = 10

var ErrEmptyBroadcast = errors.New("broadcast subject and content are required")

// BroadcastReport counts per-send outcomes of one broadcast.
type BroadcastReport struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Broadcaster sends a markdown newsletter issue to all ACTIVE
// subscribers, with per-subscriber unsubscribe links.
type Broadcaster struct {
	repo   Repository
	mailer Mailer
	site   SiteInfo
	log    *zap.Logger
	md     goldmark.Markdown
}

func NewBroadcaster(repo Repository, mailer Mailer, site SiteInfo, log *zap.Logger) *Broadcaster {
	return &Broadcaster{
		repo:   repo,
		mailer: mailer,
		site:   site,
		log:    log,
		md: goldmark.New(
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		),
	}
}

// Send renders the markdown body and dispatches it chunk by chunk.
func (b *Broadcaster) Send(ctx context.Context, subject, markdown string) (BroadcastReport, error) {
	subject = strings.TrimSpace(subject)
	markdown = strings.TrimSpace(markdown)
	if subject == "" || markdown == "" {
		return BroadcastReport{}, ErrEmptyBroadcast
	}

	body, err := b.render(markdown)
	if err != nil {
		return BroadcastReport{}, err
	}

	subs, err := b.repo.List(ctx, models.SubscriberActive)
	if err != nil {
		return BroadcastReport{}, err
	}

	report := BroadcastReport{Total: len(subs)}
	var sent, failed int64

	for start := 0; start < len(subs); start += broadcastChunkSize {
		end := start + broadcastChunkSize
		if end > len(subs) {
			end = len(subs)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, sub := range subs[start:end] {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					atomic.AddInt64(&failed, 1)
					return nil
				}
				err := b.mailer.SendBroadcast(sub.Email, pkgmail.BroadcastData{
					SiteName:       b.site.SiteName,
					OwnerName:      b.site.OwnerName,
					Subject:        subject,
					Body:           body,
					UnsubscribeURL: b.unsubLink(sub.UnsubToken),
				})
				if err != nil {
					atomic.AddInt64(&failed, 1)
					b.log.Error("broadcast send failed",
						zap.String("email", sub.Email), zap.Error(err))
					return nil // failures are counted, not fatal
				}
				atomic.AddInt64(&sent, 1)
				return nil
			})
		}
		// wait for the whole chunk before moving on
		if err := g.Wait(); err != nil {
			break
		}
	}

	report.Sent = int(sent)
	report.Failed = int(failed)
	return report, nil
}

// SendTest delivers one rendered copy to the given address.
func (b *Broadcaster) SendTest(ctx context.Context, to, subject, markdown string) error {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "[test] " + b.site.SiteName + " newsletter"
	}
	if strings.TrimSpace(markdown) == "" {
		markdown = "This is a **test issue** of the " + b.site.SiteName + " newsletter."
	}
	body, err := b.render(markdown)
	if err != nil {
		return err
	}
	return b.mailer.SendBroadcast(to, pkgmail.BroadcastData{
		SiteName:       b.site.SiteName,
		OwnerName:      b.site.OwnerName,
		Subject:        subject,
		Body:           body,
		UnsubscribeURL: b.site.BaseURL,
	})
}

func (b *Broadcaster) render(markdown string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := b.md.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func (b *Broadcaster) unsubLink(tok string) string {
	return strings.TrimRight(b.site.BaseURL, "/") + "/api/newsletter/unsubscribe?token=" + tok
}
