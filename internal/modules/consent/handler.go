package consent

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/folio-space/core/internal/pkg/response"
	"go.uber.org/zap"
)

// PreferencesDTO is the preference-update payload. The token comes from
// the "manage preferences" link in any newsletter email.
type PreferencesDTO struct {
	Token          string `json:"token" binding:"required"`
	AllowAnalytics *bool  `json:"allow_analytics"`
	AllowMarketing *bool  `json:"allow_marketing"`
}

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/consent")
	g.GET("/preferences", h.get)  // ?token=...
	g.POST("/preferences", h.update)
}

func (h *Handler) get(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.BadRequest(c, "token is required")
		return
	}
	prefs, err := h.svc.Get(c.Request.Context(), token)
	switch {
	case err == nil:
		response.OK(c, prefs)
	case errors.Is(err, ErrUnknownToken):
		response.NotFoundMsg(c, "this link is not valid")
	default:
		h.log.Error("consent lookup failed", zap.Error(err))
		response.InternalError(c)
	}
}

func (h *Handler) update(c *gin.Context) {
	var dto PreferencesDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "token is required")
		return
	}

	prefs, err := h.svc.Update(c.Request.Context(), PreferencesInput{
		Token:          dto.Token,
		AllowAnalytics: dto.AllowAnalytics,
		AllowMarketing: dto.AllowMarketing,
		IP:             c.ClientIP(),
		UserAgent:      c.Request.UserAgent(),
	})
	switch {
	case err == nil:
		response.OK(c, prefs)
	case errors.Is(err, ErrUnknownToken):
		response.NotFoundMsg(c, "this link is not valid")
	default:
		h.log.Error("consent update failed", zap.Error(err))
		response.InternalError(c)
	}
}
