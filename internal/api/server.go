package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/dukaan-ai/orderdesk/internal/config"
	"github.com/dukaan-ai/orderdesk/internal/database"
	"github.com/dukaan-ai/orderdesk/internal/decision"
	"github.com/dukaan-ai/orderdesk/internal/handlers"
	"github.com/dukaan-ai/orderdesk/internal/outbox"
	"github.com/dukaan-ai/orderdesk/internal/repository"
	"github.com/dukaan-ai/orderdesk/internal/service"
	"github.com/dukaan-ai/orderdesk/pkg/kafka"
	"github.com/dukaan-ai/orderdesk/pkg/logger"
	"github.com/dukaan-ai/orderdesk/pkg/middleware"
)

type Server struct {
	config          *config.Config
	logger          logger.Logger
	router          *mux.Router
	httpServer      *http.Server
	db              *database.Database
	orderRepo       *repository.OrderRepository
	outboxRepo      *repository.OutboxRepository
	productRepo     *repository.ProductRepository
	orderService    *service.OrderService
	controller      *decision.Controller
	outboxProcessor *outbox.Processor
	kafkaProducer   *kafka.Producer
	kafkaConsumer   *kafka.Consumer
	rateLimiter     *middleware.RateLimiterMiddleware
}

// NewServer creates a new API server with the given configuration and logger.
func NewServer(cfg *config.Config, logger logger.Logger) (*Server, error) {
	r := mux.NewRouter()

	db, err := database.New(cfg, logger)

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Repositories
	orderRepo := repository.NewOrderRepository(db, logger)
	outboxRepo := repository.NewOutboxRepository(db, logger)
	productRepo := repository.NewProductRepository(db, logger)

	// Services
	orderService := service.NewOrderService(orderRepo, outboxRepo, logger)

	// Decision windows over the order store
	controller := decision.NewController(decision.Config{
		ListTicks:       cfg.Decision.ListTicks,
		DetailTicks:     cfg.Decision.DetailTicks,
		TickInterval:    cfg.Decision.TickInterval,
		TrackWidth:      cfg.Gesture.TrackWidth,
		HandleWidth:     cfg.Gesture.HandleWidth,
		CommitThreshold: cfg.Gesture.CommitThreshold,
	}, orderService, logger)

	// Kafka producer and the outbox processor feeding it
	kafkaProducer, err := kafka.NewProducer(cfg.Kafka.Brokers, logger)

	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	outboxProcessor := outbox.NewProcessor(outboxRepo, outbox.ProcessorConfig{
		PollingInterval: 5 * time.Second,
		BatchSize:       10,
		MaxRetries:      3,
	}, logger)

	kafkaHandler := outbox.NewKafkaHandler(kafkaProducer, cfg.Kafka.EventsTopic, logger)
	outboxProcessor.RegisterHandler("order_created", kafkaHandler)
	outboxProcessor.RegisterHandler("order_status_changed", kafkaHandler)

	// Kafka consumer for orders arriving from the storefront
	kafkaConsumer, err := kafka.NewConsumer(&kafka.ConsumerConfig{
		Brokers:       cfg.Kafka.Brokers,
		Topics:        []string{cfg.Kafka.IncomingTopic},
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
	}, logger)

	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	incomingHandler := handlers.NewIncomingOrdersHandler(orderService, controller, logger)
	kafkaConsumer.RegisterHandler(cfg.Kafka.IncomingTopic, incomingHandler)

	rateLimiter := middleware.NewRateLimiterMiddleware(&middleware.RateLimiterConfig{
		GlobalMaxTokens:  100,
		GlobalRefillRate: 50,
		IPMaxTokens:      20,
		IPRefillRate:     10,
	}, logger)

	server := &Server{
		config: cfg,
		logger: logger,
		router: r,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		db:              db,
		orderRepo:       orderRepo,
		outboxRepo:      outboxRepo,
		productRepo:     productRepo,
		orderService:    orderService,
		controller:      controller,
		outboxProcessor: outboxProcessor,
		kafkaProducer:   kafkaProducer,
		kafkaConsumer:   kafkaConsumer,
		rateLimiter:     rateLimiter,
	}

	server.setupRoutes()

	outboxProcessor.Start()

	if err := kafkaConsumer.Start(); err != nil {
		logger.Error("Failed to start Kafka consumer", "error", err)
		// Non-fatal: orders can still be created over HTTP
	}

	return server, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Tear down decision windows first so no timer rejects an order while
	// the rest of the stack is going away.
	s.controller.Shutdown()

	s.outboxProcessor.Stop()

	if s.kafkaConsumer != nil {
		if err := s.kafkaConsumer.Stop(); err != nil {
			s.logger.Error("Error stopping Kafka consumer", "error", err)
		}
	}

	if s.kafkaProducer != nil {
		if err := s.kafkaProducer.Close(); err != nil {
			s.logger.Error("Error closing Kafka producer", "error", err)
		}
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error("Error closing database connection", "error", err)
	}

	return s.httpServer.Shutdown(ctx)
}

// setupRoutes configures all the routes for the API
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.rateLimiter.Middleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", s.healthCheckHandler).Methods(http.MethodGet)

	// Orders
	api.HandleFunc("/orders", s.listOrdersHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders", s.createOrderHandler).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}", s.getOrderByIDHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/status", s.updateOrderStatusHandler).Methods(http.MethodPatch)

	// Decision windows
	api.HandleFunc("/orders/{id}/decision", s.openDecisionHandler).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/decision", s.decisionProgressHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/decision", s.closeDecisionHandler).Methods(http.MethodDelete)
	api.HandleFunc("/orders/{id}/decision/gesture", s.gestureHandler).Methods(http.MethodPost)

	// Catalog
	api.HandleFunc("/products", s.listProductsHandler).Methods(http.MethodGet)
}

// Middleware for logging requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Info("Request processed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
			"remoteAddr", r.RemoteAddr,
		)
	})
}
