package harvest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	harvesterrors "catalog-harvester/core/errors"
	"catalog-harvester/core/storage"
	"catalog-harvester/feature/harvest/dataset"
	"catalog-harvester/feature/harvest/importer"
	"catalog-harvester/feature/harvest/models"
	"catalog-harvester/feature/harvest/source"
	"catalog-harvester/feature/harvest/source/dataverse"
	"catalog-harvester/feature/harvest/staging"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrPassRunning is returned when a pass is requested for a source that is
// already being harvested.
var ErrPassRunning = errors.New("a harvest pass is already running for this source")

// Options tunes harvest passes.
type Options struct {
	Workers  int
	UserName string
	SiteUser string
}

// Service handles harvest operations.
type Service struct {
	db       *gorm.DB
	staging  *staging.Store
	datasets dataset.Store
	index    dataset.Indexer
	registry *source.Registry
	resolver *importer.Resolver
	archive  *storage.Archive
	metrics  *Metrics
	logger   *zap.Logger
	opts     Options

	mu      sync.Mutex
	running map[string]struct{}
}

// NewService creates a new harvest service. archive and metrics may be nil.
func NewService(db *gorm.DB, registry *source.Registry, datasets dataset.Store, index dataset.Indexer, archive *storage.Archive, metrics *Metrics, logger *zap.Logger, opts Options) *Service {
	store := staging.NewStore(db)
	return &Service{
		db:       db,
		staging:  store,
		datasets: datasets,
		index:    index,
		registry: registry,
		resolver: importer.NewResolver(db, store, datasets, index, logger, opts.Workers),
		archive:  archive,
		metrics:  metrics,
		logger:   logger,
		opts:     opts,
		running:  make(map[string]struct{}),
	}
}

// Staging returns the staging store.
func (s *Service) Staging() *staging.Store {
	return s.staging
}

// Harvesters lists the registered source types.
func (s *Service) Harvesters() []source.Info {
	return s.registry.Infos()
}

// CreateSourceInput is the payload for creating a harvest source.
type CreateSourceInput struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Config   string `json:"config"`
	OwnerOrg string `json:"owner_org"`
}

// CreateSource validates and persists a new harvest source.
func (s *Service) CreateSource(ctx context.Context, in CreateSourceInput) (*models.HarvestSource, error) {
	url := strings.TrimSpace(in.URL)
	if url == "" {
		return nil, harvesterrors.NewConfigError("url", "Missing value")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, harvesterrors.NewConfigError("url", "must be an http(s) URL")
	}

	sourceType := in.Type
	if sourceType == "" {
		sourceType = dataverse.TypeName
	}
	if _, err := s.registry.Get(sourceType); err != nil {
		return nil, harvesterrors.NewConfigError("type", err.Error())
	}

	cfg, err := source.ParseConfig(in.Config)
	if err != nil {
		return nil, err
	}

	src := &models.HarvestSource{
		URL:      strings.TrimSuffix(url, "/"),
		Title:    in.Title,
		Type:     sourceType,
		Config:   cfg.String(),
		OwnerOrg: in.OwnerOrg,
		Active:   true,
	}
	if err := s.staging.CreateSource(ctx, src); err != nil {
		return nil, err
	}

	s.logger.Info("Created harvest source", zap.String("source_id", src.ID), zap.String("url", src.URL), zap.String("type", src.Type))
	return src, nil
}

// GetSource returns a harvest source.
func (s *Service) GetSource(ctx context.Context, id string) (*models.HarvestSource, error) {
	return s.staging.GetSource(ctx, id)
}

// ListSources returns every harvest source.
func (s *Service) ListSources(ctx context.Context) ([]models.HarvestSource, error) {
	return s.staging.ListSources(ctx)
}

// ListObjects returns the staging records of a source.
func (s *Service) ListObjects(ctx context.Context, sourceID string, current *bool) ([]models.HarvestObject, error) {
	if _, err := s.staging.GetSource(ctx, sourceID); err != nil {
		return nil, err
	}
	return s.staging.List(ctx, staging.ListFilter{SourceID: sourceID, Current: current})
}

// JobReport is a job with the errors recorded against it.
type JobReport struct {
	Job          *models.HarvestJob          `json:"job"`
	GatherErrors []models.HarvestGatherError `json:"gather_errors"`
	ObjectErrors []models.HarvestObjectError `json:"object_errors"`
}

// GetJob returns a job and its errors.
func (s *Service) GetJob(ctx context.Context, id string) (*JobReport, error) {
	job, err := s.staging.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	gather, objects, err := s.staging.JobErrors(ctx, id)
	if err != nil {
		return nil, err
	}
	return &JobReport{Job: job, GatherErrors: gather, ObjectErrors: objects}, nil
}

func (s *Service) acquire(sourceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.running[sourceID]; busy {
		return false
	}
	s.running[sourceID] = struct{}{}
	return true
}

func (s *Service) release(sourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, sourceID)
}

func (s *Service) newActor() *importer.ActorResolver {
	return importer.NewActorResolver(s.opts.UserName, importer.StaticSiteUser(s.opts.SiteUser))
}

// Purge removes superseded staging records of a source older than olderThan.
func (s *Service) Purge(ctx context.Context, sourceID string, olderThan time.Duration) (int64, error) {
	if _, err := s.staging.GetSource(ctx, sourceID); err != nil {
		return 0, err
	}
	n, err := s.staging.PurgeSuperseded(ctx, sourceID, time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	s.logger.Info("Purged superseded harvest objects", zap.String("source_id", sourceID), zap.Int64("objects", n))
	return n, nil
}

// ClearReport summarizes a clear operation.
type ClearReport struct {
	SourceID        string `json:"source_id"`
	Objects         int64  `json:"objects"`
	Jobs            int64  `json:"jobs"`
	DatasetsDeleted int    `json:"datasets_deleted"`
	Snapshots       int    `json:"snapshots"`
	// Skipped is set when a pass was running and the source was left alone.
	Skipped         bool   `json:"skipped,omitempty"`
}

// ClearHistory removes the job history of a source, keeping current records
// and their datasets.
func (s *Service) ClearHistory(ctx context.Context, sourceID string) (*ClearReport, error) {
	if _, err := s.staging.GetSource(ctx, sourceID); err != nil {
		return nil, err
	}
	if !s.acquire(sourceID) {
		return nil, ErrPassRunning
	}
	defer s.release(sourceID)

	objects, jobs, err := s.staging.ClearHistory(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Cleared harvest source history", zap.String("source_id", sourceID), zap.Int64("objects", objects), zap.Int64("jobs", jobs))
	return &ClearReport{SourceID: sourceID, Objects: objects, Jobs: jobs}, nil
}

// ClearAllHistory clears the job history of every source and returns one
// report per source. Sources with a pass in progress are skipped.
func (s *Service) ClearAllHistory(ctx context.Context) ([]*ClearReport, error) {
	sources, err := s.staging.ListSources(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]*ClearReport, 0, len(sources))
	for _, src := range sources {
		report, err := s.ClearHistory(ctx, src.ID)
		if errors.Is(err, ErrPassRunning) {
			s.logger.Warn("Skipped history clear of busy source", zap.String("source_id", src.ID))
			reports = append(reports, &ClearReport{SourceID: src.ID, Skipped: true})
			continue
		}
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// ClearSource removes every job and staging record of a source and deletes
// the datasets they linked.
func (s *Service) ClearSource(ctx context.Context, sourceID string) (*ClearReport, error) {
	if _, err := s.staging.GetSource(ctx, sourceID); err != nil {
		return nil, err
	}
	if !s.acquire(sourceID) {
		return nil, ErrPassRunning
	}
	defer s.release(sourceID)

	packageIDs, err := s.staging.ClearSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	report := &ClearReport{SourceID: sourceID}
	actor, err := s.newActor().Actor(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range packageIDs {
		if err := s.datasets.Delete(ctx, actor, id); err != nil {
			s.logger.Warn("Failed to delete dataset of cleared source", zap.String("package_id", id), zap.Error(err))
			continue
		}
		if err := s.index.Remove(ctx, id); err != nil {
			s.logger.Warn("Failed to unindex dataset of cleared source", zap.String("package_id", id), zap.Error(err))
		}
		report.DatasetsDeleted++
	}

	if s.archive != nil {
		n, err := s.archive.RemoveSource(ctx, sourceID)
		if err != nil {
			s.logger.Warn("Failed to remove snapshots of cleared source", zap.String("source_id", sourceID), zap.Error(err))
		}
		report.Snapshots = n
	}

	s.logger.Info("Cleared harvest source",
		zap.String("source_id", sourceID),
		zap.Int("datasets", report.DatasetsDeleted),
		zap.Int("snapshots", report.Snapshots),
	)
	return report, nil
}
