package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/folio-space/core/internal/config"
	"github.com/folio-space/core/internal/middleware"
	"github.com/folio-space/core/internal/modules/admin"
	"github.com/folio-space/core/internal/modules/consent"
	"github.com/folio-space/core/internal/modules/contact"
	"github.com/folio-space/core/internal/modules/content"
	"github.com/folio-space/core/internal/modules/gdpr"
	"github.com/folio-space/core/internal/modules/newsletter"
	"github.com/folio-space/core/internal/modules/projects"
	"github.com/folio-space/core/internal/modules/status"
	"github.com/folio-space/core/internal/pkg/response"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type routeDeps struct {
	cfg *config.AppConfig
	log *zap.Logger

	newsletter *newsletter.Handler
	consent    *consent.Handler
	contact    *contact.Handler
	gdpr       *gdpr.Handler
	admin      *admin.Handler
	content    *content.Handler
	projects   *projects.Handler
	status     *status.Handler

	newsletterRL gin.HandlerFunc
	confirmRL    gin.HandlerFunc
	contactRL    gin.HandlerFunc
	resumeRL     gin.HandlerFunc
	gdprRL       gin.HandlerFunc
}

func mountRoutes(engine *gin.Engine, d routeDeps) {
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")

	d.newsletter.RegisterRoutes(api, d.newsletterRL, d.confirmRL)
	d.consent.RegisterRoutes(api)
	d.contact.RegisterRoutes(api, d.contactRL)
	d.gdpr.RegisterRoutes(api, d.gdprRL)
	d.admin.RegisterRoutes(api, middleware.Auth(), middleware.RequireAdmin())
	d.content.RegisterRoutes(api)
	d.projects.RegisterRoutes(api)
	d.status.RegisterRoutes(api)

	api.GET("/resume", d.resumeRL, resumeRedirect(d.cfg))

	engine.NoRoute(func(c *gin.Context) { response.NotFound(c) })
	engine.NoMethod(func(c *gin.Context) { response.MethodNotAllowed(c) })
}

// resumeRedirect sends the caller to the hosted résumé asset. The
// limiter in front keeps scrapers from hammering the underlying CDN.
func resumeRedirect(cfg *config.AppConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.ResumeURL == "" {
			response.NotFound(c)
			return
		}
		c.Redirect(http.StatusFound, cfg.ResumeURL)
	}
}
