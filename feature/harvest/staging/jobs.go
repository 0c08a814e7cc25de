package staging

import (
	"context"
	"errors"
	"fmt"
	"time"

	harvesterrors "catalog-harvester/core/errors"
	"catalog-harvester/feature/harvest/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateSource persists a new harvest source, assigning an id if missing.
func (s *Store) CreateSource(ctx context.Context, src *models.HarvestSource) error {
	if src.ID == "" {
		src.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(src).Error; err != nil {
		return fmt.Errorf("failed to create harvest source: %w", err)
	}
	return nil
}

// GetSource loads a harvest source by id.
func (s *Store) GetSource(ctx context.Context, id string) (*models.HarvestSource, error) {
	var src models.HarvestSource
	if err := s.db.WithContext(ctx).First(&src, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, harvesterrors.NewNotFoundError("harvest source", id)
		}
		return nil, fmt.Errorf("failed to load harvest source %s: %w", id, err)
	}
	return &src, nil
}

// ListSources returns every harvest source ordered by creation time.
func (s *Store) ListSources(ctx context.Context) ([]models.HarvestSource, error) {
	var out []models.HarvestSource
	if err := s.db.WithContext(ctx).Order("created_at").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list harvest sources: %w", err)
	}
	return out, nil
}

// CreateJob starts a new running job for the source.
func (s *Store) CreateJob(ctx context.Context, sourceID string) (*models.HarvestJob, error) {
	job := &models.HarvestJob{
		ID:        uuid.NewString(),
		SourceID:  sourceID,
		Status:    models.JobRunning,
		StartedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("failed to create harvest job: %w", err)
	}
	return job, nil
}

// FinishJob stores the final status and counts of a job.
func (s *Store) FinishJob(ctx context.Context, job *models.HarvestJob, status models.JobStatus) error {
	now := time.Now()
	job.Status = status
	job.FinishedAt = &now
	if err := s.db.WithContext(ctx).Save(job).Error; err != nil {
		return fmt.Errorf("failed to finish harvest job %s: %w", job.ID, err)
	}
	return nil
}

// AbortStaleJobs closes the running jobs of a source other than keepID. They
// belong to passes that never finished.
func (s *Store) AbortStaleJobs(ctx context.Context, sourceID, keepID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.HarvestJob{}).
		Where("source_id = ? AND status = ? AND id <> ?", sourceID, models.JobRunning, keepID).
		Updates(map[string]any{
			"status":      models.JobAborted,
			"finished_at": time.Now(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to abort stale jobs of source %s: %w", sourceID, res.Error)
	}
	return res.RowsAffected, nil
}

// GetJob loads a job by id.
func (s *Store) GetJob(ctx context.Context, id string) (*models.HarvestJob, error) {
	var job models.HarvestJob
	if err := s.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, harvesterrors.NewNotFoundError("harvest job", id)
		}
		return nil, fmt.Errorf("failed to load harvest job %s: %w", id, err)
	}
	return &job, nil
}

// SaveGatherError records a gather failure of a job.
func (s *Store) SaveGatherError(ctx context.Context, jobID, message string) error {
	row := &models.HarvestGatherError{JobID: jobID, Message: message}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to save gather error: %w", err)
	}
	return nil
}

// SaveObjectError records a staging or import failure of one object.
func (s *Store) SaveObjectError(ctx context.Context, objectID, stage, message string) error {
	row := &models.HarvestObjectError{ObjectID: objectID, Stage: stage, Message: message}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to save object error: %w", err)
	}
	return nil
}

// JobErrors returns the gather errors of a job and the errors of its objects.
func (s *Store) JobErrors(ctx context.Context, jobID string) ([]models.HarvestGatherError, []models.HarvestObjectError, error) {
	db := s.db.WithContext(ctx)

	var gather []models.HarvestGatherError
	if err := db.Where("job_id = ?", jobID).Order("id").Find(&gather).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load gather errors: %w", err)
	}

	var objects []models.HarvestObjectError
	sub := db.Model(&models.HarvestObject{}).Select("id").Where("job_id = ?", jobID)
	if err := db.Where("object_id IN (?)", sub).Order("id").Find(&objects).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load object errors: %w", err)
	}
	return gather, objects, nil
}
