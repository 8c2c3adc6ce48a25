package factory

import (
	"context"
	"fmt"

	"github.com/anime-shed/photo-curator-go/internal/analyzer"
	"github.com/anime-shed/photo-curator-go/internal/config"
	"github.com/anime-shed/photo-curator-go/internal/logger"
	"github.com/anime-shed/photo-curator-go/internal/storage"

	"github.com/sirupsen/logrus"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// LocalStorage for the local file system
	LocalStorage StorageType = config.StorageBackendLocal
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = config.StorageBackendAzure
)

// AnalyzerFactory creates quality analyzers and the pool they run on
type AnalyzerFactory interface {
	CreateAnalyzer(locale analyzer.Locale) analyzer.QualityAnalyzer
	CreateWorkerPool(workers int) *analyzer.WorkerPool
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(ctx context.Context, cfg config.Storage) (storage.ImageStore, error)
}

// analyzerFactory implements AnalyzerFactory
type analyzerFactory struct {
	thresholds analyzer.ScoringThresholds
}

// NewAnalyzerFactory creates a new analyzer factory using the default
// scoring thresholds
func NewAnalyzerFactory() AnalyzerFactory {
	return NewAnalyzerFactoryWithThresholds(analyzer.DefaultThresholds())
}

// NewAnalyzerFactoryWithThresholds creates an analyzer factory with custom thresholds
func NewAnalyzerFactoryWithThresholds(thresholds analyzer.ScoringThresholds) AnalyzerFactory {
	return &analyzerFactory{thresholds: thresholds}
}

// CreateAnalyzer creates an analyzer whose untagged calls use locale
func (f *analyzerFactory) CreateAnalyzer(locale analyzer.Locale) analyzer.QualityAnalyzer {
	defaults := analyzer.DefaultOptions().
		WithLocale(locale).
		WithThresholds(f.thresholds)
	return analyzer.NewQualityAnalyzerWithCalculator(analyzer.NewMetricsCalculator(), defaults)
}

// CreateWorkerPool creates and starts a pool; workers <= 0 means one per CPU
func (f *analyzerFactory) CreateWorkerPool(workers int) *analyzer.WorkerPool {
	pool := analyzer.NewWorkerPool(workers)
	pool.Start()
	return pool
}

// storageFactory implements StorageFactory
type storageFactory struct{}

// NewStorageFactory creates a new storage factory
func NewStorageFactory() StorageFactory {
	return &storageFactory{}
}

// containerEnsurer is implemented by stores that must provision their bucket
type containerEnsurer interface {
	EnsureContainer(ctx context.Context) error
}

// CreateStorage creates a storage implementation based on the configured backend
func (f *storageFactory) CreateStorage(ctx context.Context, cfg config.Storage) (storage.ImageStore, error) {
	var (
		store storage.ImageStore
		err   error
	)

	switch StorageType(cfg.Backend) {
	case LocalStorage:
		store, err = storage.NewLocalStorage(cfg.UploadDir, cfg.ProcessedDir)
	case AzureStorage:
		store, err = storage.NewAzureStorage(cfg.Azure.AccountName, cfg.Azure.AccountKey, cfg.Azure.Container)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	if ensurer, ok := store.(containerEnsurer); ok {
		if err := ensurer.EnsureContainer(ctx); err != nil {
			return nil, err
		}
	}

	logger.WithFields(logrus.Fields{
		"backend":       store.Backend(),
		"upload_dir":    cfg.UploadDir,
		"processed_dir": cfg.ProcessedDir,
	}).Info("Storage backend ready")

	return store, nil
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	AnalyzerFactory AnalyzerFactory
	StorageFactory  StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory() *ComponentFactory {
	return &ComponentFactory{
		AnalyzerFactory: NewAnalyzerFactory(),
		StorageFactory:  NewStorageFactory(),
	}
}
