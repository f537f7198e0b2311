package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"autotrader/src/auth"
	"autotrader/src/autotrade"
	"autotrader/src/handler"
	"autotrader/src/notifier"
	"autotrader/src/repository"
)

// NewRouter wires the execution engine's HTTP surface.
func NewRouter() *chi.Mux {
	configRepo := repository.NewAutoTradingConfigRepository()
	accountRepo := repository.NewExchangeAccountRepository()
	logRepo := repository.NewAutoTradingLogRepository()
	signalRepo := repository.NewSignalRepository()

	deps := autotrade.Deps{
		Configs:  configRepo,
		Accounts: accountRepo,
		Audit:    logRepo,
		Signals:  signalRepo,
	}
	if tn := notifier.NewTelegramNotifier(); tn != nil {
		deps.Notifier = tn
	}

	orchestrator := autotrade.NewOrchestrator(
		logger.WithField("component", "Orchestrator"),
		deps,
	)

	r := chi.NewRouter()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("/healthcheck error")
		}
	})

	r.Route("/api/autotrade", func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Get("/config", handler.GetConfigHandler(configRepo))
		r.Put("/config", handler.UpsertConfigHandler(configRepo))
		r.Get("/logs", handler.SearchLogsHandler(logRepo))
		r.Get("/stats", handler.GetStatsHandler(logRepo))
		r.Post("/execute", handler.ExecuteHandler(signalRepo, orchestrator))
	})

	return r
}

// StartServer runs the API server until SIGINT/SIGTERM, then shuts down
// gracefully.
func StartServer(port string) {
	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: NewRouter(),
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
