package app

import (
	"fmt"
	availabilityhandler "smartrentals/internal/availability/handler"
	availability "smartrentals/internal/availability/service"
	cataloghandler "smartrentals/internal/catalog/handler"
	catalogrepo "smartrentals/internal/catalog/repository"
	catalog "smartrentals/internal/catalog/service"
	catalogvalidator "smartrentals/internal/catalog/validator"
	"smartrentals/internal/orders/events"
	orderhandler "smartrentals/internal/orders/handler"
	"smartrentals/internal/orders/jobs"
	orderrepo "smartrentals/internal/orders/repository"
	orders "smartrentals/internal/orders/service"
	ordervalidator "smartrentals/internal/orders/validator"
	reporthandler "smartrentals/internal/reports/handler"
	reports "smartrentals/internal/reports/service"
	ledgerrepo "smartrentals/internal/reservations/repository"
	settingshandler "smartrentals/internal/settings/handler"
	settings "smartrentals/internal/settings/service"
	"smartrentals/pkg/config"
	"smartrentals/pkg/contracts"
	"smartrentals/pkg/db"
	mongotx "smartrentals/pkg/db/mongo"
	"smartrentals/pkg/db/sqldb"
	"smartrentals/pkg/kafka"
)

// Repositories are the stores for the configured storage driver.
type Repositories struct {
	Products catalogrepo.ProductRepository
	Units    catalogrepo.UnitRepository
	Ledger   ledgerrepo.Ledger
	Orders   orderrepo.OrderRepository
	Tx       db.TransactionManager
}

func NewRepositories(cfg *config.Config) Repositories {
	if cfg.StorageDriver == config.StorageMongo {
		return Repositories{
			Products: catalogrepo.NewMongoProductRepository(cfg),
			Units:    catalogrepo.NewMongoUnitRepository(cfg),
			Ledger:   ledgerrepo.NewMongoLedger(cfg),
			Orders:   orderrepo.NewMongoOrderRepository(cfg),
			Tx:       mongotx.NewTransactionManager(cfg.Client.Mongo.Client),
		}
	}

	d := cfg.Client.SQL
	return Repositories{
		Products: catalogrepo.NewSQLProductRepository(d),
		Units:    catalogrepo.NewSQLUnitRepository(d),
		Ledger:   ledgerrepo.NewSQLLedger(d),
		Orders:   orderrepo.NewSQLOrderRepository(d),
		Tx:       sqldb.NewTransactionManager(d),
	}
}

func NewCatalogService(cfg *config.Config, repos Repositories) catalog.CatalogService {
	return catalog.NewCatalogService(
		repos.Products,
		repos.Units,
		repos.Ledger,
		repos.Tx,
		catalogvalidator.NewCatalogValidator(cfg.Log),
		cfg,
	)
}

// newPublisher returns a Kafka-backed order event publisher, or a no-op one
// when no brokers are configured. The producer, if any, is returned so it
// can be closed on shutdown.
func newPublisher(cfg *config.Config) (events.Publisher, *kafka.Producer, error) {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Info("No Kafka brokers configured, order events are not published")
		return events.NewNoopPublisher(), nil, nil
	}

	producer, err := kafka.NewProducer(kafka.NewProducerConfig(cfg.KafkaBrokers, cfg.KafkaOrdersTopic), cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("creating kafka producer: %w", err)
	}
	cfg.Log.Info("Order events published to Kafka", "topic", producer.Topic())
	return events.NewKafkaPublisher(producer, cfg.Log), producer, nil
}

// Build wires the storage, services and handlers selected by cfg into an
// application. The store clients must already be connected.
func Build(cfg *config.Config) (*Application, error) {
	repos := NewRepositories(cfg)

	broker := settings.NewBroker()
	settingsProvider, err := settings.NewFileProvider(cfg.SettingsFile, cfg.Currency, broker, cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	publisher, producer, err := newPublisher(cfg)
	if err != nil {
		return nil, err
	}

	catalogService := NewCatalogService(cfg, repos)
	resolver := availability.NewResolver(catalogService, repos.Ledger, cfg.Log)
	availabilityService := availability.NewAvailabilityService(catalogService, resolver, cfg)
	orderService := orders.NewOrderService(
		repos.Orders,
		repos.Ledger,
		resolver,
		catalogService,
		settingsProvider,
		repos.Tx,
		publisher,
		ordervalidator.NewOrderValidator(cfg.Log),
		cfg,
	)
	reportService := reports.NewReportService(repos.Ledger, repos.Units, repos.Orders, cfg.Log)
	cfg.Log.Info("Services initialized", "storage_driver", cfg.StorageDriver)

	scheduler, err := jobs.NewScheduler(orderService, cfg)
	if err != nil {
		return nil, fmt.Errorf("scheduling order expiry: %w", err)
	}

	a := NewApplication(cfg)
	a.SetApp([]contracts.Handler{
		cataloghandler.NewCatalogHandler(catalogService, cfg.Log),
		availabilityhandler.NewAvailabilityHandler(availabilityService, cfg.Log),
		orderhandler.NewOrderHandler(orderService, cfg.PaymentWebhookSecret, cfg.Log),
		reporthandler.NewReportHandler(reportService),
		settingshandler.NewSettingsHandler(settingsProvider, broker, cfg.Log),
	}, settingshandler.SyncPath)
	a.AddWorker(scheduler)
	if producer != nil {
		a.OnShutdown(producer)
	}
	return a, nil
}
