// Package app assembles configuration, storage, middleware and the
// module handlers into a runnable HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/folio-space/core/internal/config"
	"github.com/folio-space/core/internal/database"
	"github.com/folio-space/core/internal/middleware"
	"github.com/folio-space/core/internal/modules/admin"
	"github.com/folio-space/core/internal/modules/consent"
	"github.com/folio-space/core/internal/modules/contact"
	"github.com/folio-space/core/internal/modules/content"
	"github.com/folio-space/core/internal/modules/gdpr"
	"github.com/folio-space/core/internal/modules/newsletter"
	"github.com/folio-space/core/internal/modules/projects"
	"github.com/folio-space/core/internal/modules/status"
	"github.com/folio-space/core/internal/pkg/jwt"
	"github.com/folio-space/core/internal/pkg/kv"
	"github.com/folio-space/core/internal/pkg/limiter"
	pkgmail "github.com/folio-space/core/internal/pkg/mail"
	"github.com/folio-space/core/internal/pkg/redis"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App is the assembled service.
type App struct {
	cfg    *config.AppConfig
	log    *zap.Logger
	engine *gin.Engine
}

// New wires the whole service. Redis is required in production; in
// development a missing Redis degrades to in-process limiters and
// token storage so the server still comes up.
func New(cfg *config.AppConfig, log *zap.Logger) (*App, error) {
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	jwt.SetSecret(cfg.Admin.JWTSecret)

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	var rdb *redislib.Client
	rc, err := redis.Connect(cfg.RedisURL)
	switch {
	case err == nil:
		rdb = rc.Raw()
	case cfg.IsProd():
		return nil, err
	default:
		log.Warn("redis unavailable, using in-process limiters and token store", zap.Error(err))
	}

	newLimiter := func(name string, rule config.LimitRule) limiter.Limiter {
		r := limiter.Rule{Name: name, Max: rule.Max, Window: rule.Window}
		if rdb != nil {
			return limiter.NewRedis(rdb, r)
		}
		return limiter.NewMemory(r)
	}
	// one TTL store backs both the GDPR verification tokens and the
	// upstream caches; key prefixes keep them apart
	var store kv.Store = kv.NewMemory()
	if rdb != nil {
		store = kv.NewRedis(rdb)
	}

	mailer := pkgmail.New(pkgmail.Config{
		Enable:    cfg.Mail.Enable,
		From:      cfg.Mail.From,
		ReplyTo:   cfg.Mail.OwnerEmail,
		ResendKey: cfg.Mail.ResendKey,
		SMTPHost:  cfg.Mail.SMTP.Host,
		SMTPPort:  cfg.Mail.SMTP.Port,
		SMTPUser:  cfg.Mail.SMTP.User,
		SMTPPass:  cfg.Mail.SMTP.Pass,
	})
	if !cfg.Mail.Enable {
		log.Warn("mail provider not configured, outgoing email disabled")
	}

	site := newsletter.SiteInfo{
		SiteName:  cfg.SiteName,
		OwnerName: cfg.Mail.OwnerName,
		BaseURL:   cfg.PublicURL(),
	}

	subRepo := newsletter.NewGormRepository(db)
	recorder := consent.NewGormRecorder(db)

	newsSvc := newsletter.NewService(subRepo, mailer, recorder, site, log)
	caster := newsletter.NewBroadcaster(subRepo, mailer, site, log)
	consentSvc := consent.NewService(subRepo, recorder, log)
	contactSvc := contact.NewService(contact.NewGormRepository(db), mailer, cfg.Mail.OwnerEmail, log)
	gdprSvc := gdpr.NewService(subRepo, recorder, gdpr.NewGormEraser(db), store,
		newLimiter("gdpr-email", cfg.Limits.GDPRByEmail), mailer,
		cfg.SiteName, cfg.PublicURL(), log)
	adminSvc := admin.NewService(admin.NewGormUserRepo(db), log)
	contentSvc := content.NewService(content.NewClient(cfg.CMS), store, log)
	projectSvc := projects.NewService(projects.NewClient(cfg.GitHub), store, log)
	statusSvc := status.NewService(status.NewClient(cfg.Uptime), store, log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := adminSvc.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		return nil, fmt.Errorf("seed admin account: %w", err)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.Logger(log), middleware.Metrics(), corsMiddleware(cfg))

	mountRoutes(engine, routeDeps{
		cfg: cfg,
		log: log,

		newsletter: newsletter.NewHandler(newsSvc, site, cfg.SiteURL, log),
		consent:    consent.NewHandler(consentSvc, log),
		contact:    contact.NewHandler(contactSvc, log),
		gdpr:       gdpr.NewHandler(gdprSvc, log),
		admin: admin.NewHandler(adminSvc, subRepo, caster, contactSvc,
			cfg.Mail.OwnerEmail, log),
		content:  content.NewHandler(contentSvc, log),
		projects: projects.NewHandler(projectSvc, log),
		status:   status.NewHandler(statusSvc),

		newsletterRL: middleware.RateLimit(newLimiter("newsletter", cfg.Limits.Newsletter), log),
		confirmRL:    middleware.RateLimit(newLimiter("confirm", cfg.Limits.Confirm), log),
		contactRL:    middleware.RateLimit(newLimiter("contact", cfg.Limits.Contact), log),
		resumeRL:     middleware.RateLimit(newLimiter("resume", cfg.Limits.Resume), log),
		gdprRL:       middleware.RateLimit(newLimiter("gdpr-ip", cfg.Limits.GDPRByIP), log),
	})

	return &App{cfg: cfg, log: log, engine: engine}, nil
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Port),
		Handler: a.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server listening", zap.Int("port", a.cfg.Port), zap.String("env", a.cfg.Env))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
