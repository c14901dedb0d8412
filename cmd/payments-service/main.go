package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"github.com/nurpe/marketplace-payments/internal/auth"
	"github.com/nurpe/marketplace-payments/internal/config"
	"github.com/nurpe/marketplace-payments/internal/db"
	"github.com/nurpe/marketplace-payments/internal/excel"
	httphandler "github.com/nurpe/marketplace-payments/internal/http"
	"github.com/nurpe/marketplace-payments/internal/http/middleware"
	"github.com/nurpe/marketplace-payments/internal/logger"
	"github.com/nurpe/marketplace-payments/internal/pdf"
	"github.com/nurpe/marketplace-payments/internal/repository"
	"github.com/nurpe/marketplace-payments/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	// money goes over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	defer func() {
		if err := db.Close(database); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}()

	profileRepo := repository.NewProfileRepository(database)
	contractRepo := repository.NewContractRepository(database)
	jobRepo := repository.NewJobRepository(database)
	reportRepo := repository.NewReportRepository(database)
	store := repository.NewStore(database)

	pdfGenerator, err := pdf.NewGenerator()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init pdf generator")
	}

	profileService := service.NewProfileService(profileRepo)
	contractService := service.NewContractService(contractRepo)
	jobService := service.NewJobService(jobRepo)
	paymentService := service.NewPaymentService(store, log)
	reportService := service.NewReportService(reportRepo, excel.NewGenerator(), pdfGenerator, cfg)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	authMiddleware := middleware.Auth(tokenParser, profileService, cfg.Auth.AllowProfileHeader)
	handler := httphandler.NewHandler(contractService, jobService, paymentService, reportService, log)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.HTTP.AllowedOrigins)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("starting payments service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("server stopped")
			return
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	log.Info().Msg("server stopped")
}
