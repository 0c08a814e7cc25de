package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	harvesterrors "catalog-harvester/core/errors"
	"catalog-harvester/core/logger"
	"catalog-harvester/core/reconcile"
	"catalog-harvester/feature/harvest/dataset"
	"catalog-harvester/feature/harvest/models"
	"catalog-harvester/feature/harvest/source"
	"catalog-harvester/feature/harvest/staging"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Outcome is what resolving one staging record did.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeDeleted   Outcome = "deleted"
	OutcomeFailed    Outcome = "failed"
	// OutcomeSkipped marks a record left pending because the pass was cancelled.
	OutcomeSkipped Outcome = "skipped"
)

// Result is the outcome of resolving one staging record.
type Result struct {
	ObjectID       string
	Identifier     string
	Classification reconcile.Classification
	Outcome        Outcome
	PackageID      string
	Err            error
}

// Pass carries what every record of one pass shares.
type Pass struct {
	Source    *models.HarvestSource
	Harvester source.Harvester
	Actor     *ActorResolver
}

// Resolver walks staging records through the import state machine.
type Resolver struct {
	db       *gorm.DB
	staging  *staging.Store
	datasets dataset.Store
	index    dataset.Indexer
	logger   *zap.Logger
	workers  int
	locks    *keyedMutex
}

// NewResolver creates a new resolver. The staging store, dataset store and
// index must share db so one transaction can span all three.
func NewResolver(db *gorm.DB, store *staging.Store, datasets dataset.Store, index dataset.Indexer, logger *zap.Logger, workers int) *Resolver {
	if workers <= 0 {
		workers = 1
	}
	return &Resolver{
		db:       db,
		staging:  store,
		datasets: datasets,
		index:    index,
		logger:   logger,
		workers:  workers,
		locks:    newKeyedMutex(),
	}
}

// ResolveAll resolves every record on the worker pool and returns one result
// per record in input order. Cancellation is honoured only between records:
// a record that has started always finishes, and records not yet started are
// reported as skipped and stay pending.
func (r *Resolver) ResolveAll(ctx context.Context, pass *Pass, objs []*models.HarvestObject) ([]Result, error) {
	results := make([]Result, len(objs))

	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, obj := range objs {
		results[i] = skipped(obj)
		if ctx.Err() != nil {
			continue
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			unlock := r.locks.Lock(obj.SourceID + "\x00" + obj.GUID)
			defer unlock()

			results[i] = r.Resolve(context.WithoutCancel(ctx), pass, obj)
			return nil
		})
	}

	_ = g.Wait()
	return results, ctx.Err()
}

func skipped(obj *models.HarvestObject) Result {
	return Result{
		ObjectID:       obj.ID,
		Identifier:     obj.GUID,
		Classification: obj.Classification,
		Outcome:        OutcomeSkipped,
	}
}

// Resolve runs one staging record to resolved or failed.
func (r *Resolver) Resolve(ctx context.Context, pass *Pass, obj *models.HarvestObject) Result {
	l := logger.ForRecord(r.logger, obj.GUID, string(obj.Classification)).With(zap.String("object_id", obj.ID))

	res := Result{
		ObjectID:       obj.ID,
		Identifier:     obj.GUID,
		Classification: obj.Classification,
	}

	var err error
	switch obj.Classification {
	case reconcile.ClassDeleted:
		res.Outcome, err = r.resolveDeleted(ctx, pass, obj, l)
	case reconcile.ClassNew:
		res.Outcome, err = r.resolveNew(ctx, pass, obj)
	case reconcile.ClassChanged:
		res.Outcome, err = r.resolveChanged(ctx, pass, obj)
	default:
		err = &harvesterrors.IntegrityError{ObjectID: obj.ID, Reason: fmt.Sprintf("unknown classification %q", obj.Classification)}
	}
	res.PackageID = obj.LinkedPackage()

	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		r.fail(ctx, obj, err, l)
		return res
	}

	l.Info("Resolved harvest object", zap.String("outcome", string(res.Outcome)), zap.String("package_id", res.PackageID))
	return res
}

func (r *Resolver) fail(ctx context.Context, obj *models.HarvestObject, cause error, l *zap.Logger) {
	detail := Detail(cause)
	l.Warn("Harvest object failed", zap.String("detail", detail))

	if err := r.staging.MarkFailed(ctx, obj.ID, detail); err != nil {
		l.Error("Failed to mark harvest object as failed", zap.Error(err))
	}
	obj.State = models.StateFailed
	obj.ErrorDetail = detail

	if err := r.staging.SaveObjectError(ctx, obj.ID, "import", detail); err != nil {
		l.Error("Failed to save object error", zap.Error(err))
	}
}

// Detail renders a failure cause for the staging record.
func Detail(err error) string {
	var verr *harvesterrors.ValidationError
	if errors.As(err, &verr) {
		return "Validation Error: " + verr.Summary()
	}
	return err.Error()
}

func (r *Resolver) resolveDeleted(ctx context.Context, pass *Pass, obj *models.HarvestObject, l *zap.Logger) (Outcome, error) {
	pkgID := obj.LinkedPackage()
	if pkgID == "" {
		l.Warn("Deleted record has no linked dataset")
	} else {
		actor, err := pass.Actor.Actor(ctx)
		if err != nil {
			return "", err
		}

		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := r.datasets.WithTx(tx).Delete(ctx, actor, pkgID); err != nil {
				return err
			}
			return r.index.WithTx(tx).Remove(ctx, pkgID)
		})
		if err != nil {
			// Delete failures do not fail the record.
			l.Error("Failed to delete dataset", zap.String("package_id", pkgID), zap.Error(err))
		}
	}

	if err := r.staging.MarkResolved(ctx, obj.ID); err != nil {
		return "", err
	}
	obj.State = models.StateResolved
	return OutcomeDeleted, nil
}

func (r *Resolver) resolveNew(ctx context.Context, pass *Pass, obj *models.HarvestObject) (Outcome, error) {
	payload, err := checkPayload(obj)
	if err != nil {
		return "", err
	}

	pkg, meta, err := pass.Harvester.BuildDatasetDict(obj.GUID, payload)
	if err != nil {
		return "", fmt.Errorf("failed to build dataset: %w", err)
	}

	actor, err := pass.Actor.Actor(ctx)
	if err != nil {
		return "", err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ds := r.datasets.WithTx(tx)

		name, err := dataset.UniqueName(ctx, ds, pkg.Title)
		if err != nil {
			return err
		}
		pkg.Name = name
		pkg.ID = uuid.NewString()
		r.decorate(pass, obj, pkg)
		pass.Harvester.AttachResources(meta, pkg)

		id, err := ds.Create(ctx, actor, pkg)
		if err != nil {
			return err
		}
		return r.link(ctx, tx, obj, id, pkg)
	})
	if err != nil {
		obj.PackageID = nil
		return "", err
	}
	return OutcomeCreated, nil
}

func (r *Resolver) resolveChanged(ctx context.Context, pass *Pass, obj *models.HarvestObject) (Outcome, error) {
	payload, err := checkPayload(obj)
	if err != nil {
		return "", err
	}

	if obj.Prior() == "" {
		return "", &harvesterrors.IntegrityError{ObjectID: obj.ID, Reason: "changed record has no prior record"}
	}
	prior, err := r.staging.Get(ctx, obj.Prior())
	if err != nil {
		if errors.Is(err, harvesterrors.ErrNotFound) {
			return "", &harvesterrors.IntegrityError{ObjectID: obj.ID, Reason: "prior record " + obj.Prior() + " no longer exists"}
		}
		return "", err
	}

	pkgID := obj.LinkedPackage()
	if pkgID == "" {
		pkgID = prior.LinkedPackage()
	}
	if pkgID == "" {
		return "", &harvesterrors.IntegrityError{ObjectID: obj.ID, Reason: "changed record has no linked dataset"}
	}

	if prior.ContentHash != "" && prior.ContentHash == obj.ContentHash {
		return r.relink(ctx, obj, prior, pkgID)
	}

	pkg, meta, err := pass.Harvester.BuildDatasetDict(obj.GUID, payload)
	if err != nil {
		return "", fmt.Errorf("failed to build dataset: %w", err)
	}

	actor, err := pass.Actor.Actor(ctx)
	if err != nil {
		return "", err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ds := r.datasets.WithTx(tx)

		existing, err := ds.Show(ctx, pkgID)
		if err != nil {
			return err
		}
		pkg.ID = existing.ID
		pkg.Name = existing.Name
		r.decorate(pass, obj, pkg)
		pass.Harvester.AttachResources(meta, pkg)

		id, err := ds.Update(ctx, actor, pkgID, pkg)
		if err != nil {
			return err
		}
		return r.link(ctx, tx, obj, id, pkg)
	})
	if err != nil {
		return "", err
	}
	return OutcomeUpdated, nil
}

// relink resolves a changed record whose content did not change: the new
// record takes over the prior's dataset link and date, the prior is removed,
// and only the search index is refreshed.
func (r *Resolver) relink(ctx context.Context, obj, prior *models.HarvestObject, pkgID string) (Outcome, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st := r.staging.WithTx(tx)

		obj.PackageID = &pkgID
		obj.MetadataModified = prior.MetadataModified

		if err := st.Delete(ctx, prior.ID); err != nil {
			return err
		}
		if err := st.MarkCurrent(ctx, obj); err != nil {
			return err
		}
		if err := st.MarkResolved(ctx, obj.ID); err != nil {
			return err
		}

		pkg, err := r.datasets.WithTx(tx).Show(ctx, pkgID)
		if err != nil {
			if errors.Is(err, harvesterrors.ErrNotFound) {
				return nil
			}
			return err
		}
		pkg.SetExtra(dataset.ExtraHarvestObjectID, obj.ID)
		return r.index.WithTx(tx).Index(ctx, pkg)
	})
	if err != nil {
		return "", err
	}
	obj.State = models.StateResolved
	return OutcomeUnchanged, nil
}

// decorate sets the fields every harvested dataset carries.
func (r *Resolver) decorate(pass *Pass, obj *models.HarvestObject, pkg *dataset.Package) {
	if pass.Source.OwnerOrg != "" {
		pkg.OwnerOrg = pass.Source.OwnerOrg
	}
	pkg.SourceID = pass.Source.ID
	pkg.ContentHash = obj.ContentHash
	pkg.SetExtra(dataset.ExtraHarvestObjectID, obj.ID)
	pkg.SetExtra(dataset.ExtraHarvestSourceID, pass.Source.ID)
	pkg.SetExtra(dataset.ExtraGUID, obj.GUID)
}

// link records the dataset on the staging record, makes it current, and
// indexes the dataset, all inside tx.
func (r *Resolver) link(ctx context.Context, tx *gorm.DB, obj *models.HarvestObject, id string, pkg *dataset.Package) error {
	st := r.staging.WithTx(tx)

	obj.PackageID = &id
	modified := pkg.MetadataModified
	obj.MetadataModified = &modified

	if err := st.MarkCurrent(ctx, obj); err != nil {
		return err
	}
	if err := st.MarkResolved(ctx, obj.ID); err != nil {
		return err
	}
	obj.State = models.StateResolved
	return r.index.WithTx(tx).Index(ctx, pkg)
}

func checkPayload(obj *models.HarvestObject) (map[string]any, error) {
	if obj.GUID == "" {
		return nil, &harvesterrors.IntegrityError{ObjectID: obj.ID, Reason: "missing identifier"}
	}
	if obj.Payload == "" {
		return nil, &harvesterrors.IntegrityError{ObjectID: obj.ID, Reason: "empty payload"}
	}

	var payload map[string]any
	dec := json.NewDecoder(bytes.NewReader([]byte(obj.Payload)))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, &harvesterrors.IntegrityError{ObjectID: obj.ID, Reason: "unreadable payload: " + err.Error()}
	}
	return payload, nil
}
