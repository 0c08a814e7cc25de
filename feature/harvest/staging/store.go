package staging

import (
	"context"
	"errors"
	"fmt"
	"time"

	harvesterrors "catalog-harvester/core/errors"
	"catalog-harvester/core/reconcile"
	"catalog-harvester/feature/harvest/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the gorm-backed staging store.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new staging store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx returns a store bound to the given transaction.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

// DB returns the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the harvest tables.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate harvest tables: %w", err)
	}
	return nil
}

// StageInput describes one staging record to write.
type StageInput struct {
	SourceID       string
	JobID          string
	Identifier     string
	Classification reconcile.Classification
	Payload        map[string]any
	PackageID      string
}

// StageReport is the outcome of StageAll.
type StageReport struct {
	Planned  int
	Staged   []*models.HarvestObject
	Failures []error
}

// Discrepancy returns how many planned records were not staged.
func (r *StageReport) Discrepancy() int {
	return r.Planned - len(r.Staged)
}

// CurrentIndex maps every current identifier of the source to its linked
// dataset id ("" when the record was never linked).
func (s *Store) CurrentIndex(ctx context.Context, sourceID string) (map[string]string, error) {
	var rows []models.HarvestObject
	err := s.db.WithContext(ctx).
		Select("guid", "package_id").
		Where("source_id = ? AND is_current = ?", sourceID, true).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load current records for source %s: %w", sourceID, err)
	}

	index := make(map[string]string, len(rows))
	for i := range rows {
		index[rows[i].GUID] = rows[i].LinkedPackage()
	}
	return index, nil
}

// Stage writes one staging record. Each call is its own transaction, so a
// failure never affects records staged before or after it.
func (s *Store) Stage(ctx context.Context, in StageInput) (*models.HarvestObject, error) {
	if !in.Classification.Valid() {
		return nil, &harvesterrors.IntegrityError{Reason: fmt.Sprintf("unknown classification %q for %s", in.Classification, in.Identifier)}
	}
	if in.Classification == reconcile.ClassDeleted && in.Payload != nil {
		return nil, &harvesterrors.IntegrityError{Reason: fmt.Sprintf("deleted record %s carries a payload", in.Identifier)}
	}

	payload, hash, err := Canonical(in.Payload)
	if err != nil {
		return nil, &harvesterrors.PersistenceError{Identifier: in.Identifier, Op: "stage", Err: err}
	}

	obj := &models.HarvestObject{
		ID:             uuid.NewString(),
		GUID:           in.Identifier,
		SourceID:       in.SourceID,
		JobID:          in.JobID,
		Classification: in.Classification,
		Payload:        payload,
		ContentHash:    hash,
		State:          models.StatePending,
	}
	if in.PackageID != "" && in.Classification != reconcile.ClassNew {
		pkg := in.PackageID
		obj.PackageID = &pkg
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch in.Classification {
		case reconcile.ClassChanged:
			var prior models.HarvestObject
			err := tx.Select("id").
				Where("source_id = ? AND guid = ? AND is_current = ?", in.SourceID, in.Identifier, true).
				First(&prior).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &harvesterrors.IntegrityError{ObjectID: obj.ID, Reason: "changed record has no current prior record"}
				}
				return err
			}
			obj.PriorID = &prior.ID
		case reconcile.ClassDeleted:
			err := tx.Model(&models.HarvestObject{}).
				Where("source_id = ? AND guid = ? AND is_current = ?", in.SourceID, in.Identifier, true).
				Update("is_current", false).Error
			if err != nil {
				return err
			}
		}
		return tx.Create(obj).Error
	})
	if err != nil {
		var integrity *harvesterrors.IntegrityError
		if errors.As(err, &integrity) {
			return nil, err
		}
		return nil, &harvesterrors.PersistenceError{Identifier: in.Identifier, Op: "stage", Err: err}
	}

	return obj, nil
}

// StageAll stages every input, isolating failures per identifier.
func (s *Store) StageAll(ctx context.Context, inputs []StageInput) *StageReport {
	report := &StageReport{Planned: len(inputs)}
	for _, in := range inputs {
		obj, err := s.Stage(ctx, in)
		if err != nil {
			report.Failures = append(report.Failures, err)
			continue
		}
		report.Staged = append(report.Staged, obj)
	}
	return report
}

// Get loads a staging record by id.
func (s *Store) Get(ctx context.Context, id string) (*models.HarvestObject, error) {
	var obj models.HarvestObject
	if err := s.db.WithContext(ctx).First(&obj, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, harvesterrors.NewNotFoundError("harvest object", id)
		}
		return nil, fmt.Errorf("failed to load harvest object %s: %w", id, err)
	}
	return &obj, nil
}

// ListFilter narrows List. Zero values do not filter.
type ListFilter struct {
	SourceID string
	JobID    string
	Current  *bool
	State    models.State
}

// List returns staging records ordered by guid then creation time.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.HarvestObject, error) {
	q := s.db.WithContext(ctx).Model(&models.HarvestObject{})
	if f.SourceID != "" {
		q = q.Where("source_id = ?", f.SourceID)
	}
	if f.JobID != "" {
		q = q.Where("job_id = ?", f.JobID)
	}
	if f.Current != nil {
		q = q.Where("is_current = ?", *f.Current)
	}
	if f.State != "" {
		q = q.Where("state = ?", f.State)
	}

	var out []models.HarvestObject
	if err := q.Order("guid").Order("created_at").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list harvest objects: %w", err)
	}
	return out, nil
}

// MarkCurrent makes obj the only current record of its identifier and
// persists its dataset linkage and metadata-modified date.
func (s *Store) MarkCurrent(ctx context.Context, obj *models.HarvestObject) error {
	db := s.db.WithContext(ctx)

	err := db.Model(&models.HarvestObject{}).
		Where("source_id = ? AND guid = ? AND is_current = ? AND id <> ?", obj.SourceID, obj.GUID, true, obj.ID).
		Update("is_current", false).Error
	if err != nil {
		return &harvesterrors.PersistenceError{Identifier: obj.GUID, Op: "mark current", Err: err}
	}

	obj.Current = true
	err = db.Model(&models.HarvestObject{}).Where("id = ?", obj.ID).Updates(map[string]any{
		"is_current":        true,
		"package_id":        obj.PackageID,
		"metadata_modified": obj.MetadataModified,
	}).Error
	if err != nil {
		return &harvesterrors.PersistenceError{Identifier: obj.GUID, Op: "mark current", Err: err}
	}
	return nil
}

// MarkResolved moves a record to the resolved state.
func (s *Store) MarkResolved(ctx context.Context, id string) error {
	return s.setState(ctx, id, models.StateResolved, "")
}

// MarkFailed moves a record to the failed state with the given detail.
func (s *Store) MarkFailed(ctx context.Context, id, detail string) error {
	return s.setState(ctx, id, models.StateFailed, detail)
}

func (s *Store) setState(ctx context.Context, id string, state models.State, detail string) error {
	res := s.db.WithContext(ctx).Model(&models.HarvestObject{}).Where("id = ?", id).Updates(map[string]any{
		"state":        state,
		"error_detail": detail,
	})
	if res.Error != nil {
		return &harvesterrors.PersistenceError{Identifier: id, Op: "set state " + string(state), Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return harvesterrors.NewNotFoundError("harvest object", id)
	}
	return nil
}

// Delete removes a staging record.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&models.HarvestObject{}, "id = ?", id).Error; err != nil {
		return &harvesterrors.PersistenceError{Identifier: id, Op: "delete", Err: err}
	}
	return nil
}

// PurgeSuperseded removes non-current records of the source that finished
// PendingDeletes returns the deleted records of a source still waiting to be
// resolved, oldest first.
func (s *Store) PendingDeletes(ctx context.Context, sourceID string) ([]*models.HarvestObject, error) {
	var objs []*models.HarvestObject
	err := s.db.WithContext(ctx).
		Where("source_id = ? AND state = ? AND classification = ?", sourceID, models.StatePending, reconcile.ClassDeleted).
		Order("created_at, id").
		Find(&objs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending deletes of source %s: %w", sourceID, err)
	}
	return objs, nil
}

// SupersedePending fails the pending new and changed records of a source.
// Their identifiers are still absent from, or unchanged in, the current index,
// so the next gather stages them again.
func (s *Store) SupersedePending(ctx context.Context, sourceID, detail string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.HarvestObject{}).
		Where("source_id = ? AND state = ? AND classification <> ?", sourceID, models.StatePending, reconcile.ClassDeleted).
		Updates(map[string]any{
			"state":        models.StateFailed,
			"error_detail": detail,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to supersede pending records of source %s: %w", sourceID, res.Error)
	}
	return res.RowsAffected, nil
}

// importing before olderThan. Pending records are never purged.
func (s *Store) PurgeSuperseded(ctx context.Context, sourceID string, olderThan time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("source_id = ? AND is_current = ? AND state <> ? AND created_at < ?", sourceID, false, models.StatePending, olderThan).
		Delete(&models.HarvestObject{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge superseded records of source %s: %w", sourceID, res.Error)
	}
	return res.RowsAffected, nil
}

// ClearHistory deletes every non-current record of the source, their error
// rows, and every job left without records. Linked datasets stay.
func (s *Store) ClearHistory(ctx context.Context, sourceID string) (objects int64, jobs int64, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Model(&models.HarvestObject{}).Select("id").
			Where("source_id = ? AND is_current = ?", sourceID, false)
		if err := tx.Where("object_id IN (?)", stale).Delete(&models.HarvestObjectError{}).Error; err != nil {
			return err
		}

		res := tx.Where("source_id = ? AND is_current = ?", sourceID, false).Delete(&models.HarvestObject{})
		if res.Error != nil {
			return res.Error
		}
		objects = res.RowsAffected

		live := tx.Model(&models.HarvestObject{}).Distinct("job_id").Where("source_id = ?", sourceID)
		empty := tx.Model(&models.HarvestJob{}).Select("id").
			Where("source_id = ? AND status <> ? AND id NOT IN (?)", sourceID, models.JobRunning, live)
		if err := tx.Where("job_id IN (?)", empty).Delete(&models.HarvestGatherError{}).Error; err != nil {
			return err
		}

		res = tx.Where("source_id = ? AND status <> ? AND id NOT IN (?)", sourceID, models.JobRunning, live).
			Delete(&models.HarvestJob{})
		if res.Error != nil {
			return res.Error
		}
		jobs = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to clear history of source %s: %w", sourceID, err)
	}
	return objects, jobs, nil
}

// ClearSource deletes every job and staging record of the source and returns
// the distinct dataset ids the records linked, for the caller to delete.
func (s *Store) ClearSource(ctx context.Context, sourceID string) ([]string, error) {
	var packageIDs []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.HarvestObject{}).
			Where("source_id = ? AND package_id IS NOT NULL AND package_id <> ''", sourceID).
			Distinct().Order("package_id").Pluck("package_id", &packageIDs).Error
		if err != nil {
			return err
		}

		objects := tx.Model(&models.HarvestObject{}).Select("id").Where("source_id = ?", sourceID)
		if err := tx.Where("object_id IN (?)", objects).Delete(&models.HarvestObjectError{}).Error; err != nil {
			return err
		}
		if err := tx.Where("source_id = ?", sourceID).Delete(&models.HarvestObject{}).Error; err != nil {
			return err
		}

		jobs := tx.Model(&models.HarvestJob{}).Select("id").Where("source_id = ?", sourceID)
		if err := tx.Where("job_id IN (?)", jobs).Delete(&models.HarvestGatherError{}).Error; err != nil {
			return err
		}
		return tx.Where("source_id = ?", sourceID).Delete(&models.HarvestJob{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clear source %s: %w", sourceID, err)
	}
	return packageIDs, nil
}
