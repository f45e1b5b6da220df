package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/justinas/alice"
	"github.com/sirupsen/logrus"

	"github.com/vfg2006/ads-sync-api/internal/api/handler"
	"github.com/vfg2006/ads-sync-api/internal/api/handler/router"
	"github.com/vfg2006/ads-sync-api/internal/config"
	"github.com/vfg2006/ads-sync-api/internal/usecases/authenticating"
	"github.com/vfg2006/ads-sync-api/pkg/middleware"
)

const shutdownTimeout = 15 * time.Second

// Dependencies reúne o que a API de operação expõe
type Dependencies struct {
	Authenticator   authenticating.Authenticator
	Scheduler       handler.JobScheduler
	Queue           handler.QueueInspector
	SyncRuns        handler.SyncRunLister
	Changes         handler.ChangeReader
	Recommendations handler.RecommendationStore
	HealthChecks    map[string]handler.HealthCheck
}

type Server struct {
	httpServer *http.Server
}

func New(cfg *config.Config, deps Dependencies) (*Server, error) {
	if deps.Authenticator == nil {
		return nil, fmt.Errorf("api: authenticator is required")
	}

	rt := router.New(
		router.WithRoutes(handler.Healthcheck(deps.HealthChecks)...),
		router.WithRoutes(handler.Metrics()...),
		router.WithRoutes(handler.Jobs(deps.Scheduler, deps.Queue)...),
		router.WithRoutes(handler.SyncRuns(deps.SyncRuns)...),
		router.WithRoutes(handler.Changes(deps.Changes)...),
		router.WithRoutes(handler.Recommendations(deps.Recommendations)...),
	)

	middlewares := []alice.Constructor{
		middleware.LogPanicMiddleware(),
		middleware.LoggingMiddleware(),
		middleware.Cors(cfg.Server.AllowedOrigins),
		middleware.AuthMiddleware(deps.Authenticator),
	}

	srv := &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
			Handler:           alice.New(middlewares...).Then(rt),
			ReadHeaderTimeout: 2 * time.Second,
		},
	}

	return srv, nil
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serve até ctx ser cancelado (o main cancela ao receber SIGINT/SIGTERM)
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"address": s.httpServer.Addr,
		}).Info("Servidor iniciando")

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logrus.WithError(err).Error("Erro durante a execução do servidor")
			return err
		}
		return nil
	case <-ctx.Done():
		logrus.Info("Contexto de aplicação cancelado")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logrus.WithFields(logrus.Fields{
		"timeout": shutdownTimeout.String(),
	}).Info("Iniciando desligamento gracioso do servidor")

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Erro durante o desligamento do servidor")
		return err
	}

	logrus.Info("Servidor HTTP desligado com sucesso")
	return nil
}
