package content

import (
	"errors"

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
	g := rg.Group("/posts")
	g.GET("", h.list)
	g.GET("/:slug", h.bySlug)
}

func (h *Handler) list(c *gin.Context) {
	posts, err := h.svc.Posts(c.Request.Context())
	if err != nil {
		h.log.Error("post list failed", zap.Error(err))
		response.InternalError(c)
		return
	}
	if posts == nil {
		posts = []Post{}
	}
	response.OK(c, posts)
}

func (h *Handler) bySlug(c *gin.Context) {
	post, err := h.svc.PostBySlug(c.Request.Context(), c.Param("slug"))
	switch {
	case err == nil:
		response.OK(c, post)
	case errors.Is(err, ErrPostNotFound):
		response.NotFound(c)
	default:
		h.log.Error("post fetch failed", zap.String("slug", c.Param("slug")), zap.Error(err))
		response.InternalError(c)
	}
}
