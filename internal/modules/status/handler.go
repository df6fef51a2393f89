package status

import (
	"github.com/gin-gonic/gin"
	"github.com/folio-space/core/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/status", h.summary)
}

func (h *Handler) summary(c *gin.Context) {
	response.OK(c, h.svc.Summary(c.Request.Context()))
}
