package main

import (
	"fmt"
	"os"

	"cleanbag-service/internal/auth"
	"cleanbag-service/internal/config"
	"cleanbag-service/internal/db"
	httphandler "cleanbag-service/internal/http"
	"cleanbag-service/internal/http/middleware"
	"cleanbag-service/internal/logger"
	"cleanbag-service/internal/payment"
	"cleanbag-service/internal/push"
	"cleanbag-service/internal/repository"
	"cleanbag-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	events := db.NewRedis(cfg)
	if events == nil {
		log.Warn().Msg("redis not configured, webhook dedupe cache disabled")
	}

	paymentClient := payment.NewClient(cfg.Payments.BaseURL, cfg.Payments.APIKey)
	pushClient := push.NewClient(cfg.Push.Endpoint)

	orderRepo := repository.NewOrderRepository(database)
	driverRepo := repository.NewDriverRepository(database)
	facilityRepo := repository.NewFacilityRepository(database)
	agencyRepo := repository.NewAgencyRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)

	notificationService := service.NewNotificationService(notificationRepo, pushClient, log)
	orderService := service.NewOrderService(
		orderRepo, driverRepo, facilityRepo,
		paymentClient, notificationService, events,
		cfg.Pricing, log,
	)
	agencyService := service.NewAgencyService(agencyRepo, driverRepo, notificationService, log)
	complianceService := service.NewComplianceService(driverRepo, log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(
		orderService, agencyService, notificationService, complianceService,
		cfg.Payments.WebhookSecret, log,
	)
	router := httphandler.NewRouter(handler, middleware.Auth(tokenParser), cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting cleanbag service")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
