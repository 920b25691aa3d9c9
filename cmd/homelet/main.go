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
	"strings"
	"syscall"
	"time"

	"homelet/internal/app/commands"
	adminapp "homelet/internal/app/handlers/admin"
	bookingapp "homelet/internal/app/handlers/booking"
	escrowapp "homelet/internal/app/handlers/escrow"
	"homelet/internal/app/middleware"
	appoutbox "homelet/internal/app/outbox"
	"homelet/internal/app/queries"
	"homelet/internal/app/uow"
	domainproperty "homelet/internal/domain/property"
	"homelet/internal/domain/shared/money"
	"homelet/internal/infra/broker/kafka"
	"homelet/internal/infra/config"
	mongostore "homelet/internal/infra/db/mongo"
	ginserver "homelet/internal/infra/http/gin"
	"homelet/internal/infra/obs"
	infraoutbox "homelet/internal/infra/outbox"
	"homelet/internal/infra/security"
	"homelet/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	fixturesPath := cfg.FixturesPath
	if fixturesPath == "" {
		fixturesPath = defaultPropertyFixturesPath()
	}
	if err := loadPropertyFixtures(ctx, app.properties, fixturesPath, cfg.Currency, logger); err != nil {
		logger.Warn("property fixtures load failed", "error", err, "path", fixturesPath)
	}

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		if app.producer != nil {
			if err := app.producer.Close(); err != nil {
				logger.Error("kafka producer close failed", "error", err)
			}
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.StoreMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers   ginserver.Handlers
	properties domainproperty.Repository
	producer   *kafka.Producer
	worker     *infraoutbox.Worker
	ready      func() error
}

func buildApplication(cfg config.Config, logger *slog.Logger) (application, error) {
	app := application{ready: func() error { return nil }}

	var (
		uowFactory uow.UoWFactory
		box        appoutbox.Outbox
		idStore    middleware.IdempotencyStore
	)
	switch cfg.StoreMode {
	case "mongo":
		client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, fmt.Errorf("mongo connect: %w", err)
		}
		propertyRepo := mongostore.NewPropertyRepository(client.DB)
		bookingRepo := mongostore.NewBookingRepository(client.DB)
		escrowRepo := mongostore.NewEscrowRepository(client.DB)
		uowFactory = mongostore.Factory{
			DB:           client.DB,
			PropertyRepo: propertyRepo,
			BookingRepo:  bookingRepo,
			EscrowRepo:   escrowRepo,
		}
		store := infraoutbox.NewStore(client.DB)
		box = store
		idStore = mongostore.NewIdempotencyStore(client.DB)
		app.properties = propertyRepo
		app.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, fmt.Errorf("kafka connect: %w", err)
			}
			app.producer = producer
			app.worker = &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
				Logger:      logger,
			}
		}
	default:
		factory := memory.NewFactory()
		uowFactory = factory
		box = memory.NewOutbox(logger)
		idStore = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
		app.properties = factory.Properties
	}

	verifier := security.HMACPaymentVerifier{Secret: []byte(cfg.PaymentSecret)}
	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		UoWFactory: uowFactory,
		Payments:   verifier,
		Outbox:     box,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		UoWFactory: uowFactory,
		Outbox:     box,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, escrowapp.ConfirmMoveInCommand{}.Key(), &escrowapp.ConfirmMoveInHandler{
		UoWFactory: uowFactory,
		Outbox:     box,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, escrowapp.PayInstallmentCommand{}.Key(), &escrowapp.PayInstallmentHandler{
		UoWFactory: uowFactory,
		Payments:   verifier,
		Outbox:     box,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, escrowapp.ReleaseCommand{}.Key(), &escrowapp.ReleaseHandler{
		UoWFactory: uowFactory,
		Outbox:     box,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, escrowapp.MarkInstallmentTransferredCommand{}.Key(), &escrowapp.MarkInstallmentTransferredHandler{
		UoWFactory: uowFactory,
		Outbox:     box,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, adminapp.RemoveBookingCommand{}.Key(), &adminapp.RemoveBookingHandler{
		UoWFactory: uowFactory,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, bookingapp.ListRenterBookingsQuery{}.Key(), &bookingapp.ListRenterBookingsHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, bookingapp.GetOccupancyQuery{}.Key(), &bookingapp.GetOccupancyHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, escrowapp.GetScheduleQuery{}.Key(), &escrowapp.GetScheduleHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, adminapp.RevenueQuery{}.Key(), &adminapp.RevenueHandler{
		UoWFactory: uowFactory,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Validation(),
		middleware.Idempotency(idStore, nil),
		middleware.OutboxFlush(box),
		middleware.Transaction(uowFactory, nil),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus, middleware.QueryValidation())

	adminMW := ginserver.AdminKeyMiddleware{
		Checker: security.AdminKeyChecker{Hash: cfg.AdminKeyHash},
		Logger:  logger,
	}
	app.handlers = ginserver.Handlers{
		Booking: ginserver.BookingHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
			Currency: cfg.Currency,
		},
		Escrow: ginserver.EscrowHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		Admin: ginserver.AdminHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		AdminMiddleware: adminMW.Handle,
	}

	return app, nil
}

type propertyFixture struct {
	ID          string        `json:"id"`
	Landlord    string        `json:"landlord"`
	Title       string        `json:"title"`
	City        string        `json:"city"`
	MonthlyRent int64         `json:"monthly_rent"`
	NightlyRate int64         `json:"nightly_rate"`
	Currency    string        `json:"currency"`
	Rooms       []roomFixture `json:"rooms"`
}

type roomFixture struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func loadPropertyFixtures(ctx context.Context, repo domainproperty.Repository, path, defaultCurrency string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("property fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []propertyFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	for _, fx := range fixtures {
		currency := strings.ToUpper(fx.Currency)
		if currency == "" {
			currency = defaultCurrency
		}
		rooms := make([]domainproperty.Room, 0, len(fx.Rooms))
		for _, room := range fx.Rooms {
			rooms = append(rooms, domainproperty.Room{ID: room.ID, Name: room.Name, Count: room.Count})
		}
		monthly, err := money.New(fx.MonthlyRent, currency)
		if err != nil {
			logger.Error("fixture invalid", "property_id", fx.ID, "error", err)
			continue
		}
		nightly, err := money.New(fx.NightlyRate, currency)
		if err != nil {
			logger.Error("fixture invalid", "property_id", fx.ID, "error", err)
			continue
		}
		prop, err := domainproperty.New(domainproperty.CreateParams{
			ID:          domainproperty.PropertyID(fx.ID),
			Landlord:    fx.Landlord,
			Title:       fx.Title,
			City:        fx.City,
			MonthlyRent: monthly,
			NightlyRate: nightly,
			Rooms:       rooms,
			CreatedAt:   now,
		})
		if err != nil {
			logger.Error("fixture invalid", "property_id", fx.ID, "error", err)
			continue
		}
		if err := repo.Save(ctx, prop); err != nil {
			logger.Error("cannot store fixture property", "property_id", fx.ID, "error", err)
			continue
		}
		logger.Info("property fixture imported", "property_id", prop.ID)
	}
	return nil
}

func defaultPropertyFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "properties.json"),
		filepath.Join("deploy", "data", "properties.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
