package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

const confirmTpl = `<!DOCTYPE html>
<html>
<body style="font-family:sans-serif;background:#f5f5f5;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">
  <h2 style="color:#333">Confirm your subscription</h2>
  <p>Thanks for signing up to the {{.SiteName}} newsletter. Click the button below to confirm your email address:</p>
  <p style="margin-top:24px">
    <a href="{{.ConfirmURL}}" style="background:#4f46e5;color:#fff;padding:8px 16px;text-decoration:none;border-radius:4px">Confirm subscription</a>
  </p>
  <p style="color:#999;font-size:12px">This link expires in 24 hours. If you didn't request this, you can safely ignore this email.</p>
</div>
</body>
</html>`

const welcomeTpl = `<!DOCTYPE html>
<html>
<body style="font-family:sans-serif;background:#f5f5f5;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">
  <h2 style="color:#333">Welcome aboard!</h2>
  <p>Your subscription to the {{.SiteName}} newsletter is confirmed. You'll hear from me when something new ships.</p>
  <hr style="border:none;border-top:1px solid #eaeaea;margin:24px 0" />
  <p style="color:#999;font-size:12px">Changed your mind? <a href="{{.UnsubscribeURL}}" style="color:#999">Unsubscribe</a> any time.<br />&copy;{{year}} {{.OwnerName}}</p>
</div>
</body>
</html>`

const contactRelayTpl = `<!DOCTYPE html>
<html>
<body style="font-family:sans-serif;background:#f5f5f5;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">
  <h2 style="color:#333">New contact message</h2>
  <p><strong>{{.Name}}</strong> &lt;{{.Email}}&gt; wrote:</p>
  <div style="background:#f3f4f6;border-radius:8px;padding:12px 16px">
    <p style="font-size:14px;line-height:22px;white-space:pre-wrap">{{.Body}}</p>
  </div>
  <p style="color:#999;font-size:12px">IP: {{.IP}}<br />Agent: {{.Agent}}</p>
</div>
</body>
</html>`

const gdprVerifyTpl = `<!DOCTYPE html>
<html>
<body style="font-family:sans-serif;background:#f5f5f5;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">
  <h2 style="color:#333">Confirm your data {{.Action}} request</h2>
  <p>A {{.Action}} of the data stored for this address was requested on {{.SiteName}}. To continue, confirm it from this inbox:</p>
  <p style="margin-top:24px">
    <a href="{{.VerifyURL}}" style="background:#dc2626;color:#fff;padding:8px 16px;text-decoration:none;border-radius:4px">Confirm {{.Action}}</a>
  </p>
  <p style="color:#999;font-size:12px">This link is single-use and expires in 15 minutes. If you didn't request this, ignore this email — nothing will happen without confirmation.</p>
</div>
</body>
</html>`

const broadcastTpl = `<!DOCTYPE html>
<html>
<body style="background-color:#fff;margin:0 auto;font-family:ui-sans-serif,system-ui,-apple-system,BlinkMacSystemFont,Segoe UI,Roboto,Helvetica Neue,Arial,Noto Sans,sans-serif;padding:.5rem">
  <table align="center" width="100%" role="presentation" cellspacing="0" cellpadding="0" border="0" style="max-width:100%;border-radius:.375rem;box-shadow:0 4px 6px -1px rgb(0 0 0 / .1),0 2px 4px -2px rgb(0 0 0 / .1);margin:40px auto;padding:20px;width:550px;position:relative;overflow:hidden;border:1px solid rgb(79,70,229)">
    <tbody>
      <tr><td>
        <p style="font-size:14px;line-height:24px;margin:16px 0">From @{{.OwnerName}}:</p>
        <h1 style="font-size:20px;text-align:center">{{.Subject}}</h1>
        <div style="font-size:14px;line-height:24px;margin:16px 0">{{.Body}}</div>
        <hr style="width:100%;border:none;border-top:1px solid #eaeaea" />
        <p style="font-size:10px;line-height:24px;margin:16px 0;text-align:center;color:rgb(156,163,175)">You're receiving this because you subscribed at {{.SiteName}}. <a href="{{.UnsubscribeURL}}" style="color:rgb(156,163,175)">Unsubscribe</a><br />&copy;{{year}} {{.OwnerName}}</p>
      </td></tr>
    </tbody>
  </table>
</body>
</html>`

// ConfirmData is the data for subscription confirmation emails.
type ConfirmData struct {
	SiteName   string
	ConfirmURL string
}

// WelcomeData is the data for post-confirmation welcome emails.
type WelcomeData struct {
	SiteName       string
	OwnerName      string
	UnsubscribeURL string
}

// ContactRelayData is the data for contact form relay emails.
type ContactRelayData struct {
	Name  string
	Email string
	Body  string
	IP    string
	Agent string
}

// GDPRVerifyData is the data for GDPR verification emails.
type GDPRVerifyData struct {
	SiteName  string
	Action    string // "export" or "deletion"
	VerifyURL string
}

// BroadcastData is the data for admin newsletter broadcasts.
type BroadcastData struct {
	SiteName       string
	OwnerName      string
	Subject        string
	Body           template.HTML // pre-rendered markdown
	UnsubscribeURL string
}

func renderTemplate(tpl string, data interface{}) (string, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"year": func() int {
			return time.Now().Year()
		},
	}).Parse(tpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SendSubscribeConfirm sends a double-opt-in confirmation email.
func (s *Sender) SendSubscribeConfirm(to string, data ConfirmData) error {
	if strings.TrimSpace(data.SiteName) == "" {
		data.SiteName = "this site"
	}
	html, err := renderTemplate(confirmTpl, data)
	if err != nil {
		return err
	}
	return s.Send(Message{
		To:      []string{to},
		Subject: "Please confirm your subscription",
		HTML:    html,
	})
}

// SendWelcome sends the post-confirmation welcome email.
func (s *Sender) SendWelcome(to string, data WelcomeData) error {
	if strings.TrimSpace(data.SiteName) == "" {
		data.SiteName = "this site"
	}
	html, err := renderTemplate(welcomeTpl, data)
	if err != nil {
		return err
	}
	return s.Send(Message{
		To:      []string{to},
		Subject: fmt.Sprintf("Welcome to the %s newsletter", data.SiteName),
		HTML:    html,
	})
}

// SendContactRelay forwards a contact form submission to the owner.
func (s *Sender) SendContactRelay(to, subject string, data ContactRelayData) error {
	if strings.TrimSpace(data.IP) == "" {
		data.IP = "-"
	}
	if strings.TrimSpace(data.Agent) == "" {
		data.Agent = "-"
	}
	html, err := renderTemplate(contactRelayTpl, data)
	if err != nil {
		return err
	}
	if strings.TrimSpace(subject) == "" {
		subject = "(no subject)"
	}
	return s.Send(Message{
		To:      []string{to},
		Subject: fmt.Sprintf("[contact] %s", subject),
		HTML:    html,
	})
}

// SendGDPRVerify sends the verification email for a data request.
func (s *Sender) SendGDPRVerify(to string, data GDPRVerifyData) error {
	if strings.TrimSpace(data.SiteName) == "" {
		data.SiteName = "this site"
	}
	html, err := renderTemplate(gdprVerifyTpl, data)
	if err != nil {
		return err
	}
	return s.Send(Message{
		To:      []string{to},
		Subject: fmt.Sprintf("Confirm your data %s request", data.Action),
		HTML:    html,
	})
}

// SendBroadcast sends a newsletter broadcast to one subscriber.
func (s *Sender) SendBroadcast(to string, data BroadcastData) error {
	if strings.TrimSpace(data.OwnerName) == "" {
		data.OwnerName = data.SiteName
	}
	html, err := renderTemplate(broadcastTpl, data)
	if err != nil {
		return err
	}
	return s.Send(Message{
		To:      []string{to},
		Subject: data.Subject,
		HTML:    html,
	})
}
