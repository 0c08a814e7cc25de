package cmd

import (
	"context"
	"fmt"

	"catalog-harvester/core/config"
	"catalog-harvester/core/database"
	"catalog-harvester/core/logger"
	"catalog-harvester/core/storage"
	"catalog-harvester/feature/harvest"
	"catalog-harvester/feature/harvest/dataset"
	"catalog-harvester/feature/harvest/source"
	"catalog-harvester/feature/harvest/source/dataverse"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app bundles the dependencies shared by the server and the CLI commands.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	service *harvest.Service
}

// bootstrap loads configuration, connects to the database and the optional
// archive, and builds the harvest service.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var archive *storage.Archive
	if cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to storage: %w", err)
		}
		archive = storage.NewArchive(client, cfg.Storage.Bucket)
		if err := archive.EnsureBucket(ctx); err != nil {
			return nil, err
		}
	}

	metrics := harvest.NewMetrics(nil)
	client := dataverse.NewClient(dataverse.ClientConfig{
		Timeout:           cfg.Harvest.FetchTimeout(),
		RequestsPerSecond: cfg.Harvest.RequestsPerSecond,
		MaxResponseBytes:  cfg.Harvest.MaxResponseBytes,
		Observer:          metrics,
	}, l)
	registry := source.NewRegistry(dataverse.NewHarvester(client))

	datasets := dataset.NewGormStore(db)
	svc := harvest.NewService(db, registry, datasets, dataset.NewGormIndexer(db), archive, metrics, l, harvest.Options{
		Workers:  cfg.Harvest.Workers(),
		UserName: cfg.Harvest.UserName,
		SiteUser: cfg.Harvest.SiteUser,
	})

	return &app{cfg: cfg, logger: l, db: db, service: svc}, nil
}

// requiredColumns must exist once migration has run. A table the database
// user cannot alter fails here instead of on the first pass.
var requiredColumns = map[string][]string{
	"harvest_objects": {"guid", "source_id", "content_hash", "package_id", "prior_id", "is_current", "state"},
	"packages":        {"name", "content_hash", "source_id", "state", "extras"},
}

// migrate creates or updates every table the service uses.
func (a *app) migrate() error {
	if err := dataset.NewGormStore(a.db).Migrate(); err != nil {
		return fmt.Errorf("failed to migrate dataset tables: %w", err)
	}
	if err := a.service.Staging().Migrate(); err != nil {
		return fmt.Errorf("failed to migrate harvest tables: %w", err)
	}

	for table, columns := range requiredColumns {
		missing, err := database.MissingColumns(a.db, table, columns)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("table %s is missing columns %v", table, missing)
		}
	}
	return nil
}
