// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/unclebandit/listing-campaigns/internal/app"
	"github.com/unclebandit/listing-campaigns/internal/config"
	"github.com/unclebandit/listing-campaigns/internal/controller"
	"github.com/unclebandit/listing-campaigns/internal/db"
	"github.com/unclebandit/listing-campaigns/internal/handler"
	"github.com/unclebandit/listing-campaigns/internal/logging"
	"github.com/unclebandit/listing-campaigns/internal/queue"
)

func main() {
	cfg, dotenv, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatal("failed to build logger: ", err)
	}
	defer logger.Sync()
	if !dotenv {
		logger.Info("no .env file found, relying on OS environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	conn, err := db.Open(ctx, cfg.DB.DSN(), logger)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := db.Migrate(ctx, conn); err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, conn, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	// Without a broker this process also runs the consumers.
	if mem, ok := a.Queue.(*queue.InMemoryQueue); ok {
		if err := mem.Subscribe(queue.TopicCampaignContent, app.ContentJobHandler(a.Processor, logger.Named("content_job"))); err != nil {
			return err
		}
		if err := mem.Subscribe(queue.TopicItemApproved, app.ApprovedEventHandler(logger.Named("dispatch"))); err != nil {
			return err
		}
		defer mem.Wait()
	}

	validate := validator.New()
	campaignController := &controller.CampaignController{
		Campaigns: a.Campaigns,
		Approvals: a.Approvals,
		Listings:  a.Listings,
		Processor: a.Processor,
		Validate:  validate,
		Logger:    logger.Named("http"),
	}
	triggerController := &controller.TriggerController{
		Triggers: a.Triggers,
		Validate: validate,
		Logger:   logger.Named("http"),
	}
	campaignHandler := &handler.CampaignHandler{
		Service:  a.Campaigns,
		Validate: validate,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		controller.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(controller.RequireUser)

		// Automation settings
		r.Put("/triggers/{status}", triggerController.SaveTrigger)

		// Listing routes
		r.Put("/listings/{id}/status", campaignController.ChangeListingStatus)

		// Campaign routes
		r.Get("/campaigns", campaignHandler.ListCampaignsHandler)
		r.Get("/campaigns/{id}", campaignHandler.GetCampaignHandlerWithStats)
		r.Get("/campaigns/{id}/items", campaignHandler.ListItemsHandler)
		r.Get("/campaigns/{id}/history", campaignHandler.HistoryHandler)
		r.Post("/campaigns/{id}/pause", campaignController.PauseCampaign)
		r.Post("/campaigns/{id}/resume", campaignController.ResumeCampaign)
		r.Post("/campaigns/{id}/cancel", campaignController.CancelCampaign)
		r.Post("/campaigns/{id}/approve-all", campaignController.ApproveAll)
		r.Post("/campaigns/{id}/process", campaignController.ProcessContent)

		// Queue item routes
		r.Post("/items/{id}/approve", campaignController.ApproveItem)
		r.Post("/items/{id}/skip", campaignController.SkipItem)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
