package projects

import (
	"github.com/gin-gonic/gin"
	"github.com/folio-space/core/internal/pkg/response"
	"go.uber.org/zap"
)

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/projects", h.list)
}

func (h *Handler) list(c *gin.Context) {
	projects, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.log.Error("project list failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	if projects == nil {
		projects = []Project{}
	}
	response.OK(c, projects)
}
