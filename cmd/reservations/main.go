package main

import (
	"jire/internal/bookings/events"
	"jire/internal/bookings/handler"
	"jire/internal/bookings/repository"
	"jire/internal/bookings/service"
	"jire/internal/bookings/validator"
	"jire/pkg/app"
	"jire/pkg/config"
	"jire/pkg/kafka"
	kafka_config "jire/pkg/kafka/config"
	kafka_middleware "jire/pkg/kafka/middleware"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Reservations service")
	publisher, metrics := initEvents(cfg)
	registry := initRegistry(cfg, publisher)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewBookingHandler(registry, cfg.PublicURL, cfg.Log),
		handler.NewHealthHandler(registry, metrics, cfg.Log),
	)
	serverApp.OnShutdown("registry", registry.Close)
	serverApp.Run()
}

func initRegistry(cfg *config.Config, publisher events.Publisher) service.Registry {
	var (
		repo   repository.BookingRepository
		locker service.RoomLocker
	)
	switch cfg.StoreBackend {
	case config.StoreMongo:
		repo = repository.NewMongoBookingRepository(cfg)
		locker = repository.NewMongoRoomLocker(cfg)
	default:
		repo = repository.NewMemoryBookingRepository()
		locker = service.NewLocalRoomLocker()
	}

	registry := service.NewRegistry(
		repo,
		locker,
		publisher,
		validator.NewBookingValidator(cfg.Log),
		cfg,
	)
	cfg.Log.Info("Registry initialized", "store_backend", cfg.StoreBackend, "database", cfg.MongoDatabaseName)
	return registry
}

// initEvents returns a nil publisher and metrics when events are disabled.
func initEvents(cfg *config.Config) (events.Publisher, *kafka_middleware.Metrics) {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Booking events disabled")
		return nil, nil
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.EventsTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	metrics := &kafka_middleware.Metrics{}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	producer.Use(kafka_middleware.MetricsProducerMiddleware(metrics))

	cfg.Log.Info("Booking events enabled", "topic", cfg.EventsTopic)
	return events.NewKafkaPublisher(producer, ServiceName, cfg.PublicURL), metrics
}
