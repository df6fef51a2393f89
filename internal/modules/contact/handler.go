package contact

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/folio-space/core/internal/pkg/response"
	"go.uber.org/zap"
)

// SendDTO is the contact form payload.
type SendDTO struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Subject string `json:"subject"`
	Message string `json:"message" binding:"required"`
}

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, rl gin.HandlerFunc) {
	rg.POST("/contact", rl, h.send)
}

func (h *Handler) send(c *gin.Context) {
	var dto SendDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, ErrMissingField.Error())
		return
	}

	err := h.svc.Submit(c.Request.Context(), Input{
		Name:      dto.Name,
		Email:     dto.Email,
		Subject:   dto.Subject,
		Message:   dto.Message,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	switch {
	case err == nil:
		response.OK(c, gin.H{"success": true, "message": "Thanks — your message is on its way."})
	case errors.Is(err, ErrMissingField), errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrMessageTooLong):
		response.BadRequest(c, err.Error())
	default:
		h.log.Error("contact submit failed", zap.Error(err), zap.String("ip", c.ClientIP()))
		response.InternalError(c)
	}
}
