package main

import (
	"context"

	"calbook/internal/bookings/catalog"
	"calbook/internal/bookings/handler"
	"calbook/internal/bookings/repository"
	"calbook/internal/bookings/service"
	"calbook/internal/bookings/validator"
	"calbook/internal/clients"
	"calbook/pkg/app"
	"calbook/pkg/config"
	"calbook/pkg/kafka"
	kafka_config "calbook/pkg/kafka/config"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	cfg.Log.Info("Starting Bookings service")

	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	ctx := context.Background()
	if err := repository.EnsureIndexes(ctx, cfg); err != nil {
		cfg.Log.Fatal("Failed to create booking indexes", "error", err)
	}
	if err := repository.EnsureLockIndexes(ctx, cfg); err != nil {
		cfg.Log.Fatal("Failed to create booking lock indexes", "error", err)
	}

	bookingService := initServices(cfg)
	clientDirectory := initClients(cfg)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg,
		handler.NewBookingHandler(bookingService, cfg.Log),
		clients.NewHandler(clientDirectory, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	lockRepo := repository.NewBookingLockRepository(cfg)

	slotCatalog, err := catalog.New(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to build slot catalog", "error", err)
	}

	var publisher service.EventPublisher
	kafkaCfg := kafka_config.Load(ServiceName)
	if kafkaCfg.Enabled() {
		producer, err := kafka.NewProducer(kafkaCfg, service.TopicBookingEvents)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
		}
		publisher = producer
		cfg.Log.Info("Kafka producer ready", "topic", service.TopicBookingEvents)
	} else {
		cfg.Log.Info("Kafka disabled, change events stay instance-local")
	}

	bookingService := service.NewBookingService(
		cfg,
		cfg.Log,
		bookingRepo,
		lockRepo,
		bookingValidator,
		slotCatalog,
		publisher,
	)

	if kafkaCfg.Enabled() {
		startChangeConsumer(cfg, kafkaCfg, bookingService)
	}

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}

func startChangeConsumer(cfg *config.Config, kafkaCfg *kafka_config.Config, bookingService service.BookingService) {
	consumer, err := kafka.NewConsumer(kafkaCfg, service.TopicBookingEvents, bookingService.HandleChangeEvent)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	go func() {
		if err := consumer.Start(context.Background()); err != nil {
			cfg.Log.Error("Kafka consumer stopped", "error", err)
		}
	}()
	cfg.Log.Info("Kafka change consumer started", "topic", service.TopicBookingEvents)
}

func initClients(cfg *config.Config) *clients.Directory {
	directory, err := clients.Load(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to load client directory", "error", err)
	}

	cfg.Log.Info("Client directory loaded", "clients", directory.Len())
	return directory
}
