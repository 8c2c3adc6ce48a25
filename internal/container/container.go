package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anime-shed/photo-curator-go/internal/analyzer"
	"github.com/anime-shed/photo-curator-go/internal/config"
	"github.com/anime-shed/photo-curator-go/internal/factory"
	"github.com/anime-shed/photo-curator-go/internal/logger"
	"github.com/anime-shed/photo-curator-go/internal/observer"
	"github.com/anime-shed/photo-curator-go/internal/repository"
	"github.com/anime-shed/photo-curator-go/internal/service"
	"github.com/anime-shed/photo-curator-go/internal/storage"
	"github.com/anime-shed/photo-curator-go/internal/transport"
	"github.com/anime-shed/photo-curator-go/pkg/validation"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Container holds all application dependencies
type Container struct {
	config       *config.Config
	store        storage.ImageStore
	pool         *analyzer.WorkerPool
	publisher    *observer.EventPublisher
	registry     *prometheus.Registry
	photoService service.PhotoService
	handler      http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	return NewContainerWithFactory(ctx, cfg, factory.NewComponentFactory())
}

// NewContainerWithFactory builds the dependency graph from the given factories
func NewContainerWithFactory(ctx context.Context, cfg *config.Config, components *factory.ComponentFactory) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	logger.Setup(cfg.LogLevel)

	store, err := components.StorageFactory.CreateStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observer.NewMetricsObserver(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	locale := analyzer.ParseLocale(cfg.DefaultLocale)
	qualityAnalyzer := components.AnalyzerFactory.CreateAnalyzer(locale)
	pool := components.AnalyzerFactory.CreateWorkerPool(cfg.MaxWorkers)

	photoService := service.NewPhotoService(service.Dependencies{
		Store:         store,
		Repository:    repository.NewStoreImageRepository(store, cfg.MaxUploadSize, cfg.MaxPixels),
		Analyzer:      qualityAnalyzer,
		Cache:         repository.NewMemoryAnalysisCache(cfg.CacheTTL),
		Pool:          pool,
		Events:        publisher,
		Validator:     validation.NewFilenameValidator(),
		MaxUploadSize: cfg.MaxUploadSize,
	})

	handler := transport.NewHandler(photoService, cfg, transport.Options{
		Gatherer: registry,
		Backend:  store.Backend(),
	})

	logger.WithField("workers", pool.Workers()).Info("Analysis worker pool started")

	return &Container{
		config:       cfg,
		store:        store,
		pool:         pool,
		publisher:    publisher,
		registry:     registry,
		photoService: photoService,
		handler:      handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// PhotoService returns the photo service
func (c *Container) PhotoService() service.PhotoService {
	return c.photoService
}

// Close stops the worker pool and flushes pending events
func (c *Container) Close() {
	c.pool.Close()
	c.publisher.Wait()
}
