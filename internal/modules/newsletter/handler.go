package newsletter

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/folio-space/core/internal/pkg/response"
	"go.uber.org/zap"
)

// SubscribeDTO is the subscribe form payload.
type SubscribeDTO struct {
	Email string `json:"email" binding:"required"`
}

type Handler struct {
	svc     *Service
	site    SiteInfo
	homeURL string
	log     *zap.Logger
}

func NewHandler(svc *Service, site SiteInfo, homeURL string, log *zap.Logger) *Handler {
	return &Handler{svc: svc, site: site, homeURL: homeURL, log: log}
}

// RegisterRoutes mounts the newsletter endpoints. The subscribe and
// confirm limiters are separate: the confirm quota also blunts token
// enumeration.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, subscribeRL, confirmRL gin.HandlerFunc) {
	g := rg.Group("/newsletter")
	g.POST("/subscribe", subscribeRL, h.subscribe)
	g.GET("/confirm", confirmRL, h.confirm)       // ?token=...
	g.GET("/unsubscribe", confirmRL, h.unsubscribe) // ?token=...
}

func (h *Handler) subscribe(c *gin.Context) {
	var dto SubscribeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "email is required")
		return
	}

	err := h.svc.Subscribe(c.Request.Context(), SubscribeInput{
		Email:     dto.Email,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	switch {
	case err == nil:
		response.OK(c, gin.H{
			"success": true,
			"message": "Almost there — check your inbox to confirm your subscription.",
		})
	case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrDisposableEmail):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrAlreadySubscribed):
		h.log.Info("duplicate subscribe attempt",
			zap.String("email", NormalizeEmail(dto.Email)), zap.String("ip", c.ClientIP()))
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrConfirmMailFailed):
		// row is PENDING; a retry regenerates the token
		response.InternalError(c)
	default:
		h.log.Error("subscribe failed", zap.Error(err), zap.String("ip", c.ClientIP()))
		response.InternalError(c)
	}
}

func (h *Handler) confirm(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		h.renderPage(c, http.StatusBadRequest, pageNotFoundHeading, pageNotFoundBody)
		return
	}

	outcome, err := h.svc.Confirm(c.Request.Context(), token)
	if err != nil {
		h.log.Error("confirm failed", zap.Error(err))
		h.renderPage(c, http.StatusInternalServerError, pageErrorHeading, pageErrorBody)
		return
	}

	switch outcome {
	case ConfirmOK:
		h.renderPage(c, http.StatusOK, pageConfirmOKHeading, pageConfirmOKBody)
	case ConfirmAlreadyActive:
		h.renderPage(c, http.StatusOK, pageConfirmDupHeading, pageConfirmDupBody)
	case ConfirmExpired:
		h.renderPage(c, http.StatusGone, pageExpiredHeading, pageExpiredBody)
	default:
		h.renderPage(c, http.StatusNotFound, pageNotFoundHeading, pageNotFoundBody)
	}
}

func (h *Handler) unsubscribe(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		h.renderPage(c, http.StatusBadRequest, pageNotFoundHeading, pageNotFoundBody)
		return
	}

	outcome, err := h.svc.Unsubscribe(c.Request.Context(), token)
	if err != nil {
		h.log.Error("unsubscribe failed", zap.Error(err))
		h.renderPage(c, http.StatusInternalServerError, pageErrorHeading, pageErrorBody)
		return
	}

	switch outcome {
	case UnsubOK:
		h.renderPage(c, http.StatusOK, pageUnsubOKHeading, pageUnsubOKBody)
	case UnsubAlready:
		h.renderPage(c, http.StatusOK, pageUnsubDupHeading, pageUnsubDupBody)
	default:
		h.renderPage(c, http.StatusNotFound, pageNotFoundHeading, pageNotFoundBody)
	}
}
