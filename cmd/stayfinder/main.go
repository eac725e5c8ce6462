package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"stayfinder/internal/app/commands"
	bookingapp "stayfinder/internal/app/handlers/booking"
	paymentsapp "stayfinder/internal/app/handlers/payments"
	"stayfinder/internal/app/middleware"
	appoutbox "stayfinder/internal/app/outbox"
	"stayfinder/internal/app/policies"
	"stayfinder/internal/app/queries"
	"stayfinder/internal/app/uow"
	"stayfinder/internal/domain/listings"
	"stayfinder/internal/domain/shared/money"
	"stayfinder/internal/infra/broker/kafka"
	"stayfinder/internal/infra/config"
	mongodb "stayfinder/internal/infra/db/mongo"
	ginserver "stayfinder/internal/infra/http/gin"
	"stayfinder/internal/infra/obs"
	infraoutbox "stayfinder/internal/infra/outbox"
	infrapayments "stayfinder/internal/infra/payments"
	"stayfinder/internal/infra/security"
	"stayfinder/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	for _, task := range app.background {
		go func(run func(context.Context) error) {
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background task stopped", "error", err)
			}
		}(task)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers   ginserver.Handlers
	background []func(context.Context) error
	ready      func() error
}

func buildApplication(cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		app         application
		uowFactory  uow.UoWFactory
		outboxStore appoutbox.Outbox
		idStore     middleware.IdempotencyStore
	)

	switch cfg.StorageMode {
	case config.StorageMongo:
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, fmt.Errorf("mongo connect: %w", err)
		}
		listingDir := mongodb.NewListingDirectory(client.DB)
		bookingRepo := mongodb.NewBookingRepository(client.DB)
		uowFactory = mongodb.Factory{DB: client.DB, Listings: listingDir, Bookings: bookingRepo}
		store := infraoutbox.NewStore(client.DB)
		outboxStore = store
		idStore = mongodb.NewIdempotencyStore(client.DB)
		app.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, fmt.Errorf("kafka producer: %w", err)
			}
			worker := &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
			app.background = append(app.background, worker.Run)
		}

	default:
		listingDir := memory.NewListingDirectory()
		bookingRepo := memory.NewBookingRepository()
		uowFactory = memory.NewFactory(listingDir, bookingRepo)
		outboxStore = memory.NewOutbox()
		idStore = memory.NewIdempotencyStore()
		app.ready = func() error { return nil }

		fixturesPath := getenv("LISTINGS_FIXTURES", filepath.Join("data", "listings.json"))
		if err := loadListingFixtures(fixturesPath, listingDir, logger); err != nil {
			logger.Warn("listing fixtures load failed", "error", err, "path", fixturesPath)
		}

		if len(cfg.KafkaBrokers) > 0 {
			sync := &kafka.CatalogSync{Sink: listingDir, Logger: logger}
			consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, "stayfinder-catalog", nil, sync)
			if err != nil {
				return application{}, fmt.Errorf("kafka consumer: %w", err)
			}
			topic := cfg.KafkaTopicPrefix + "catalog.events.v1"
			app.background = append(app.background, func(ctx context.Context) error {
				defer consumer.Close()
				return consumer.Run(ctx, []string{topic})
			})
		}
	}

	var gateway policies.PaymentsPort
	if cfg.PaymentAPIKey != "" {
		gateway = &infrapayments.Gateway{
			Client:  &http.Client{Timeout: 10 * time.Second},
			BaseURL: cfg.PaymentGatewayURL,
			APIKey:  cfg.PaymentAPIKey,
			Logger:  logger,
		}
	} else {
		logger.Warn("payment api key missing, using in-memory gateway")
		gateway = infrapayments.NewFakeGateway()
	}

	encoder := appoutbox.JSONEventEncoder{}
	clock := time.Now

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
		Encoder:    encoder,
		Clock:      clock,
	})
	commands.RegisterHandler(commandBus, bookingapp.UpdateStatusCommand{}.Key(), &bookingapp.UpdateStatusHandler{
		Outbox:  outboxStore,
		Encoder: encoder,
		Logger:  logger,
		Clock:   clock,
	})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		Outbox:  outboxStore,
		Encoder: encoder,
		Logger:  logger,
		Clock:   clock,
	})
	commands.RegisterHandler(commandBus, paymentsapp.CreateIntentCommand{}.Key(), &paymentsapp.CreateIntentHandler{
		Payments: gateway,
		Logger:   logger,
		Clock:    clock,
	})
	commands.RegisterHandler(commandBus, paymentsapp.ConfirmPaymentCommand{}.Key(), &paymentsapp.ConfirmPaymentHandler{
		Payments: gateway,
		Outbox:   outboxStore,
		Encoder:  encoder,
		Logger:   logger,
		Clock:    clock,
	})
	commands.RegisterHandler(commandBus, paymentsapp.RefundCommand{}.Key(), &paymentsapp.RefundHandler{
		Payments: gateway,
		Outbox:   outboxStore,
		Encoder:  encoder,
		Logger:   logger,
		Clock:    clock,
	})
	commands.RegisterHandler(commandBus, paymentsapp.WebhookCommand{}.Key(), &paymentsapp.WebhookHandler{
		Outbox:  outboxStore,
		Encoder: encoder,
		Logger:  logger,
		Clock:   clock,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, bookingapp.ListBookingsQuery{}.Key(), &bookingapp.ListBookingsHandler{
		UoWFactory: uowFactory,
		Logger:     logger,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Validation(middleware.SelfValidator{}),
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryValidation(middleware.SelfValidator{}),
	)

	authMW := ginserver.AuthMiddleware{
		Verifier: security.JWTVerifier{Secret: []byte(cfg.AuthSecret)},
		Logger:   logger,
	}

	app.handlers = ginserver.Handlers{
		Booking: ginserver.BookingHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		Payment: ginserver.PaymentHandler{
			Commands: commandBusWithMiddleware,
			Webhooks: security.WebhookVerifier{Secret: []byte(cfg.WebhookSecret)},
			Logger:   logger,
		},
		AuthMiddleware: authMW.Handle,
	}
	return app, nil
}

type listingFixture struct {
	ID                 string `json:"id"`
	Host               string `json:"host"`
	Title              string `json:"title"`
	Address            string `json:"address"`
	City               string `json:"city"`
	Country            string `json:"country"`
	BasePriceCents     int64  `json:"base_price_cents"`
	Currency           string `json:"currency"`
	WeeklyDiscountPct  int    `json:"weekly_discount_pct"`
	MonthlyDiscountPct int    `json:"monthly_discount_pct"`
	CleaningFeeCents   int64  `json:"cleaning_fee_cents"`
	MaxGuests          int    `json:"max_guests"`
	CancellationPolicy string `json:"cancellation_policy"`
	Status             string `json:"status"`
}

func loadListingFixtures(path string, dir *memory.ListingDirectory, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("listing fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}

	var fixtures []listingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	for _, fx := range fixtures {
		currency := fx.Currency
		if currency == "" {
			currency = money.DefaultCurrency
		}
		status := listings.Status(fx.Status)
		if status == "" {
			status = listings.StatusActive
		}
		dir.Put(&listings.Listing{
			ID:    listings.ListingID(fx.ID),
			Host:  listings.HostID(fx.Host),
			Title: fx.Title,
			Location: listings.Location{
				Address: fx.Address,
				City:    fx.City,
				Country: fx.Country,
			},
			Pricing: listings.PricingRules{
				BasePrice:          money.Money{Amount: fx.BasePriceCents, Currency: currency},
				WeeklyDiscountPct:  fx.WeeklyDiscountPct,
				MonthlyDiscountPct: fx.MonthlyDiscountPct,
				CleaningFee:        money.Money{Amount: fx.CleaningFeeCents, Currency: currency},
			},
			Capacity:           listings.Capacity{Guests: fx.MaxGuests},
			CancellationPolicy: listings.CancellationPolicy(fx.CancellationPolicy),
			Status:             status,
		})
		logger.Info("listing fixture imported", "listing_id", fx.ID)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
