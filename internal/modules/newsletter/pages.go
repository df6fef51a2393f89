package newsletter

import (
	"html/template"

	"github.com/gin-gonic/gin"
)

// The confirm/unsubscribe endpoints are opened from email clients, so
// they answer with small self-contained HTML pages instead of JSON.
var pageTpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family:sans-serif;background:#f5f5f5;padding:40px 20px">
<div style="max-width:480px;margin:0 auto;background:#fff;border-radius:8px;padding:32px;text-align:center">
  <h1 style="font-size:20px;color:#111">{{.Heading}}</h1>
  <p style="color:#555;line-height:1.6">{{.Message}}</p>
  {{if .HomeURL}}<p style="margin-top:24px"><a href="{{.HomeURL}}" style="color:#4f46e5">Back to {{.SiteName}}</a></p>{{end}}
</div>
</body>
</html>`))

type pageData struct {
	Title    string
	Heading  string
	Message  string
	SiteName string
	HomeURL  string
}

func (h *Handler) renderPage(c *gin.Context, status int, heading, message string) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	_ = pageTpl.Execute(c.Writer, pageData{
		Title:    heading,
		Heading:  heading,
		Message:  message,
		SiteName: h.site.SiteName,
		HomeURL:  h.homeURL,
	})
}

// Page copy for every terminal state of the token flows. "Not found"
// and "expired" are deliberately distinct so the reader knows whether
// to re-subscribe or just stop clicking.
const (
	pageConfirmOKHeading  = "Subscription confirmed"
	pageConfirmOKBody     = "Your email address is verified. Welcome aboard — a confirmation is on its way to your inbox."
	pageConfirmDupHeading = "Already confirmed"
	pageConfirmDupBody    = "This address is already subscribed. Nothing more to do."
	pageExpiredHeading    = "Confirmation link expired"
	pageExpiredBody       = "This link was valid for 24 hours and has expired. Please subscribe again to receive a fresh one."
	pageNotFoundHeading   = "Link not valid"
	pageNotFoundBody      = "This link is not valid. It may have been used already, or copied incompletely."
	pageUnsubOKHeading    = "Unsubscribed"
	pageUnsubOKBody       = "You've been unsubscribed and won't receive further issues. Sorry to see you go."
	pageUnsubDupHeading   = "Already unsubscribed"
	pageUnsubDupBody      = "This address was already unsubscribed. No further emails will be sent."
	pageErrorHeading      = "Something went wrong"
	pageErrorBody         = "We couldn't process the request right now. Please try again later."
)
