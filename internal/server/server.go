// Package server exposes the webhook endpoint together with health and
// metrics routes.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

type Server struct {
	engine *gin.Engine
	http   *http.Server
	log    logrus.FieldLogger
}

// New builds the router. An empty webhookPath disables the update route,
// an empty secret disables the header check.
func New(port, webhookPath, secret string, dispatch func(tgbotapi.Update), log logrus.FieldLogger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine: engine,
		http:   &http.Server{Addr: ":" + port, Handler: engine, ReadHeaderTimeout: 10 * time.Second},
		log:    log,
	}

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if webhookPath != "" {
		engine.POST(webhookPath, s.webhook(secret, dispatch))
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) webhook(secret string, dispatch func(tgbotapi.Update)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret != "" {
			got := c.GetHeader(secretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				s.log.WithField("ip", c.ClientIP()).Warn("webhook call with bad secret")
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
		}

		var upd tgbotapi.Update
		if err := c.ShouldBindJSON(&upd); err != nil {
			s.log.WithError(err).Warn("bad webhook payload")
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		dispatch(upd)
		c.Status(http.StatusOK)
	}
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		s.log.WithField("addr", s.http.Addr).Info("http server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("http server stopped")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
