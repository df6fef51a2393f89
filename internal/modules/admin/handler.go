package admin

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/folio-space/core/internal/models"
	"github.com/folio-space/core/internal/modules/newsletter"
	"github.com/folio-space/core/internal/pkg/response"
	"go.uber.org/zap"
)

// LoginDTO is the dashboard login payload.
type LoginDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// BroadcastDTO is one newsletter issue to dispatch.
type BroadcastDTO struct {
	Subject string `json:"subject" binding:"required"`
	Content string `json:"content" binding:"required"` // markdown
}

// TestSendDTO previews an issue to one inbox (owner's by default).
type TestSendDTO struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// SubscriberLister is the read slice of the subscriber store the
// dashboard needs.
type SubscriberLister interface {
	List(ctx context.Context, status models.SubscriberStatus) ([]models.Subscriber, error)
	CountByStatus(ctx context.Context) (map[models.SubscriberStatus]int64, error)
}

// Caster dispatches newsletter issues.
type Caster interface {
	Send(ctx context.Context, subject, markdown string) (newsletter.BroadcastReport, error)
	SendTest(ctx context.Context, to, subject, markdown string) error
}

// MessageLister pages through stored contact messages.
type MessageLister interface {
	List(ctx context.Context, limit, offset int) ([]models.ContactMessage, int64, error)
}

type Handler struct {
	svc        *Service
	subs       SubscriberLister
	caster     Caster
	messages   MessageLister
	ownerEmail string
	log        *zap.Logger
}

func NewHandler(svc *Service, subs SubscriberLister, caster Caster,
	messages MessageLister, ownerEmail string, log *zap.Logger) *Handler {
	return &Handler{
		svc: svc, subs: subs, caster: caster,
		messages: messages, ownerEmail: ownerEmail, log: log,
	}
}

// RegisterRoutes mounts /admin. Login is public; everything else sits
// behind the auth middleware plus the explicit admin check.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	g := rg.Group("/admin")
	g.POST("/login", h.login)

	authed := g.Group("", authMW, adminMW)
	authed.GET("/subscribers", h.subscribers)
	authed.GET("/subscribers/stats", h.stats)
	authed.GET("/messages", h.contactMessages)
	authed.POST("/newsletter/test", h.testSend)
	authed.POST("/newsletter/broadcast", h.broadcast)
}

func (h *Handler) login(c *gin.Context) {
	var dto LoginDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "username and password are required")
		return
	}

	tok, err := h.svc.Login(c.Request.Context(), dto.Username, dto.Password, c.ClientIP())
	switch {
	case err == nil:
		response.OK(c, gin.H{"token": tok, "expires_in": int(SessionTTL.Seconds())})
	case errors.Is(err, ErrBadCredentials):
		h.log.Warn("failed login attempt",
			zap.String("username", dto.Username), zap.String("ip", c.ClientIP()))
		response.Unauthorized(c)
	default:
		h.log.Error("login failed", zap.Error(err))
		response.InternalError(c)
	}
}

func (h *Handler) subscribers(c *gin.Context) {
	status := models.SubscriberStatus(c.Query("status"))
	switch status {
	case "", models.SubscriberPending, models.SubscriberActive, models.SubscriberUnsubscribed:
	default:
		response.BadRequest(c, "unknown status filter")
		return
	}

	subs, err := h.subs.List(c.Request.Context(), status)
	if err != nil {
		h.log.Error("subscriber list failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, subs)
}

func (h *Handler) stats(c *gin.Context) {
	counts, err := h.subs.CountByStatus(c.Request.Context())
	if err != nil {
		h.log.Error("subscriber stats failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	response.OK(c, gin.H{
		"total":        total,
		"pending":      counts[models.SubscriberPending],
		"active":       counts[models.SubscriberActive],
		"unsubscribed": counts[models.SubscriberUnsubscribed],
	})
}

func (h *Handler) contactMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	rows, total, err := h.messages.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.Error("contact message list failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"total": total, "messages": rows})
}

func (h *Handler) testSend(c *gin.Context) {
	var dto TestSendDTO
	_ = c.ShouldBindJSON(&dto) // all fields optional

	to := dto.To
	if to == "" {
		to = h.ownerEmail
	}
	if err := h.caster.SendTest(c.Request.Context(), to, dto.Subject, dto.Content); err != nil {
		h.log.Error("test send failed", zap.String("to", to), zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"success": true, "message": "Test issue sent to " + to})
}

func (h *Handler) broadcast(c *gin.Context) {
	var dto BroadcastDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, newsletter.ErrEmptyBroadcast.Error())
		return
	}

	report, err := h.caster.Send(c.Request.Context(), dto.Subject, dto.Content)
	switch {
	case err == nil:
		h.log.Info("broadcast dispatched",
			zap.Int("total", report.Total), zap.Int("sent", report.Sent), zap.Int("failed", report.Failed))
		response.OK(c, report)
	case errors.Is(err, newsletter.ErrEmptyBroadcast):
		response.BadRequest(c, err.Error())
	default:
		h.log.Error("broadcast failed", zap.Error(err))
		response.InternalError(c)
	}
}
