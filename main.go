package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/middleware"
	"github.com/google/uuid"

	"github.com/appetiteclub/storefront/internal/cart"
	"github.com/appetiteclub/storefront/internal/catalog"
	"github.com/appetiteclub/storefront/internal/events"
	"github.com/appetiteclub/storefront/internal/mongo"
	"github.com/appetiteclub/storefront/internal/pricing"
)

const (
	appNamespace = "STOREFRONT"
	appName      = "storefront"
	appVersion   = "0.1.0"
)

func main() {
	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	baseRepo := mongo.NewBaseRepo(config, logger)
	err = baseRepo.Start(ctx)
	if err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	campaignRepo := mongo.NewCampaignRepo(db)
	menuItemRepo := mongo.NewMenuItemRepo(db)
	snapshotRepo := mongo.NewCartSnapshotRepo(db)

	if err := menuItemRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("%s(%s) cannot create menu item indexes: %v", appName, appVersion, err)
	}

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	pub, err := events.NewNATSPublisher(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}

	publisherLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	}

	sessions := cart.NewSessions(func(sessionID uuid.UUID) cart.Store {
		return snapshotRepo.StoreFor(sessionID)
	}, logger)

	pricingHandler := pricing.NewHandler(campaignRepo, config, logger)
	catalogHandler := catalog.NewHandler(menuItemRepo, campaignRepo, config, logger)
	cartHandler := cart.NewHandler(cart.HandlerDeps{
		Sessions:     sessions,
		CampaignRepo: campaignRepo,
		Publisher:    pub,
	}, config, logger)

	// Demo seeding if enabled
	demoEnabled, _ := config.GetString("seeding.demo")
	var seedHooks apt.LifecycleHooks
	if demoEnabled == "true" {
		logger.Info("Demo seeding enabled for storefront service")
		menuSeeds := catalog.SeedingFunc(appName, baseRepo.GetDatabase, logger)
		campaignSeeds := pricing.SeedingFunc(appName, baseRepo.GetDatabase, logger)
		seedHooks = apt.LifecycleHooks{
			OnStart: func(ctx context.Context) error {
				if err := menuSeeds(ctx); err != nil {
					return err
				}
				return campaignSeeds(ctx)
			},
		}
	}

	// Public storefront API: CORS stays enabled for the web client.
	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: logger,
	})

	lifecycles := []interface{}{
		apt.LifecycleHooks{OnStop: baseRepo.Stop},
		publisherLifecycle,
	}
	if demoEnabled == "true" {
		lifecycles = append(lifecycles, seedHooks)
	}

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", catalogHandler, pricingHandler, cartHandler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	err = ms.Run(ctx)
	if err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) terminated with error: %v", appName, appVersion, err)
	}
}
