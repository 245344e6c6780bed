package repositories

import (
	"context"

	"linkpulse/internal/core/ports"
	"linkpulse/internal/infrastructure/repositories/memory"
	mysqlrepo "linkpulse/internal/infrastructure/repositories/mysql"
	"linkpulse/pkg/config"

	"go.uber.org/zap"
)

// RepositoryFactory creates the directory/mapping repositories with fallback
// support: MySQL when a DSN is configured, in-memory otherwise.
type RepositoryFactory struct {
	useMySQL  bool
	directory *mysqlrepo.Directory
	fallback  *memory.MemoryDirectory
	logger    *zap.SugaredLogger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useMySQL: cfg.Database.DSN != "",
		logger:   logger,
	}

	if factory.useMySQL {
		directory, err := mysqlrepo.NewDirectory(cfg.Database.DSN, mysqlrepo.Options{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		factory.directory = directory
		logger.Infow("using mysql device directory")
	} else {
		factory.fallback = memory.NewMemoryDirectory()
		logger.Info("no database dsn configured, using memory device directory")
	}

	return factory, nil
}

// CreateDeviceDirectory returns the device inventory repository.
func (f *RepositoryFactory) CreateDeviceDirectory() ports.DeviceDirectory {
	if f.useMySQL {
		return f.directory
	}
	return f.fallback
}

// CreateQueueMappingStore returns the queue-to-subscription mapping store.
func (f *RepositoryFactory) CreateQueueMappingStore() ports.QueueMappingStore {
	if f.useMySQL {
		return f.directory
	}
	return f.fallback
}

// Close closes the database connection if used.
func (f *RepositoryFactory) Close() error {
	if f.directory != nil {
		return f.directory.Close()
	}
	return nil
}

// HealthCheck checks database connection health.
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.directory != nil {
		return f.directory.Ping(ctx)
	}
	return nil
}
