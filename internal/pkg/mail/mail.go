package mail

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// Config holds mail provider settings.
type Config struct {
	Enable    bool
	From      string
	ReplyTo   string
	ResendKey string
	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
}

// Message is a single email to send.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender sends emails via the Resend API or SMTP.
type Sender struct {
	cfg        Config
	httpClient *http.Client
}

func New(cfg Config) *Sender {
	return &Sender{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Send dispatches an email. Uses Resend if configured, otherwise SMTP.
// With mail disabled (no provider configured) it is a no-op so that
// development runs degrade gracefully; callers log the skip.
func (s *Sender) Send(msg Message) error {
	if !s.cfg.Enable {
		return nil
	}
	if s.cfg.ResendKey != "" {
		return s.sendResend(msg)
	}
	return s.sendSMTP(msg)
}

// sendResend sends via the Resend HTTP API.
func (s *Sender) sendResend(msg Message) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"from":     s.cfg.From,
		"to":       msg.To,
		"subject":  msg.Subject,
		"html":     msg.HTML,
		"reply_to": s.cfg.ReplyTo,
	})

	req, err := http.NewRequest(http.MethodPost, "https://api.resend.com/emails", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.ResendKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("resend error %d: %s", resp.StatusCode, errResp.Message)
	}
	return nil
}

// sendSMTP sends via go-mail.
func (s *Sender) sendSMTP(msg Message) error {
	m := gomail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	if s.cfg.ReplyTo != "" {
		if err := m.ReplyTo(s.cfg.ReplyTo); err != nil {
			return fmt.Errorf("set reply-to: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)

	port := s.cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	opts := []gomail.Option{gomail.WithPort(port)}
	if s.cfg.SMTPUser != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.SMTPUser),
			gomail.WithPassword(s.cfg.SMTPPass),
		)
	}

	client, err := gomail.NewClient(s.cfg.SMTPHost, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSend(m)
}
