package server

import (
	"context"
	"net/http"

	auditdomain "github.com/finwiselabs/finwise/internal/audit/domain"
	"github.com/finwiselabs/finwise/internal/config"
	webhookdomain "github.com/finwiselabs/finwise/internal/webhook/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Server struct {
	log        *zap.Logger
	webhookSvc webhookdomain.Service
	auditSvc   auditdomain.Service
	engine     *gin.Engine
}

type Params struct {
	fx.In

	Log        *zap.Logger
	WebhookSvc webhookdomain.Service
	AuditSvc   auditdomain.Service
}

func New(p Params) *Server {
	s := &Server{
		log:        p.Log.Named("server"),
		webhookSvc: p.WebhookSvc,
		auditSvc:   p.AuditSvc,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	engine.POST("/webhooks/billing", s.IngestWebhook)

	admin := engine.Group("/admin")
	admin.GET("/webhook-events", s.ListWebhookEvents)
	admin.POST("/webhook-events/:id/reprocess", s.ReprocessWebhookEvent)
	admin.GET("/subscriptions/:id/events", s.ListSubscriptionEvents)

	s.engine = engine
	return s
}

func Register(lc fx.Lifecycle, s *Server, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: s.engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					s.log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
