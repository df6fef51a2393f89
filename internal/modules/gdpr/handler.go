package gdpr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/folio-space/core/internal/modules/newsletter"
	"github.com/folio-space/core/internal/pkg/response"
	"go.uber.org/zap"
)

// RequestDTO starts an export or deletion flow.
type RequestDTO struct {
	Email  string `json:"email" binding:"required"`
	Action string `json:"action" binding:"required"`
}

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, ipRL gin.HandlerFunc) {
	g := rg.Group("/gdpr")
	g.POST("/request", ipRL, h.request)
	g.GET("/verify", h.verify) // ?token=...
}

func (h *Handler) request(c *gin.Context) {
	var dto RequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "email and action are required")
		return
	}

	err := h.svc.Request(c.Request.Context(), dto.Action, newsletter.NormalizeEmail(dto.Email))
	switch {
	case err == nil:
		response.OK(c, gin.H{
			"success": true,
			"message": "Check your inbox — a verification link is on its way. It expires in 15 minutes.",
		})
	case errors.Is(err, ErrInvalidAction):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrUnknownEmail):
		response.NotFoundMsg(c, err.Error())
	case errors.Is(err, ErrEmailLimited):
		h.log.Warn("gdpr per-email quota hit", zap.String("ip", c.ClientIP()))
		response.TooManyRequests(c, err.Error())
	default:
		h.log.Error("gdpr request failed", zap.Error(err))
		response.InternalError(c)
	}
}

func (h *Handler) verify(c *gin.Context) {
	tok := c.Query("token")
	if tok == "" {
		response.BadRequest(c, "token is required")
		return
	}

	action, doc, err := h.svc.Verify(c.Request.Context(), tok)
	switch {
	case err == nil && action == ActionExport:
		c.Header("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s-data-export.json"`, doc.ExportedAt.Format("2006-01-02")))
		c.JSON(http.StatusOK, doc)
	case err == nil:
		response.OK(c, gin.H{
			"success": true,
			"message": "All data stored for this address has been deleted.",
		})
	case errors.Is(err, ErrTokenNotFound), errors.Is(err, ErrUnknownEmail):
		response.NotFoundMsg(c, ErrTokenNotFound.Error())
	default:
		h.log.Error("gdpr verify failed", zap.Error(err))
		response.InternalError(c)
	}
}
