package harvest

import (
	"context"
	"fmt"

	harvesterrors "catalog-harvester/core/errors"
	"catalog-harvester/core/logger"
	"catalog-harvester/core/reconcile"
	"catalog-harvester/feature/harvest/importer"
	"catalog-harvester/feature/harvest/models"
	"catalog-harvester/feature/harvest/source"
	"catalog-harvester/feature/harvest/staging"

	"go.uber.org/zap"
)

// RunPass runs one harvest pass for a source: gather, then import.
// The returned summary is non-nil whenever a job was created, including
// when the pass aborted.
func (s *Service) RunPass(ctx context.Context, sourceID string) (*models.PassSummary, error) {
	src, err := s.staging.GetSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if !s.acquire(src.ID) {
		return nil, ErrPassRunning
	}
	defer s.release(src.ID)

	harvester, err := s.registry.Get(src.Type)
	if err != nil {
		return nil, harvesterrors.NewConfigError("type", err.Error())
	}

	job, err := s.staging.CreateJob(ctx, src.ID)
	if err != nil {
		return nil, err
	}
	summary := &models.PassSummary{JobID: job.ID, SourceID: src.ID, Failures: []models.Failure{}}
	l := s.logger.With(zap.String("source_id", src.ID), zap.String("job_id", job.ID))
	l.Info("Harvest pass started", zap.String("url", src.URL), zap.String("type", src.Type))

	pass := &importer.Pass{Source: src, Harvester: harvester, Actor: s.newActor()}
	if err := s.recoverPending(ctx, pass, summary, l); err != nil {
		s.abort(job, summary, err, l)
		return summary, err
	}

	staged, err := s.gather(ctx, src, harvester, job, summary, l)
	if err != nil {
		s.abort(job, summary, err, l)
		return summary, err
	}

	results, err := s.resolver.ResolveAll(ctx, pass, staged)
	s.tally(summary, results)

	// The job row is finished even when the caller went away.
	finishCtx := context.WithoutCancel(ctx)
	summary.ApplyTo(job)
	status := models.JobFinished
	if err != nil {
		status = models.JobAborted
		summary.Warnings = append(summary.Warnings, "pass cancelled: "+err.Error())
	}
	if ferr := s.staging.FinishJob(finishCtx, job, status); ferr != nil {
		l.Error("Failed to finish harvest job", zap.Error(ferr))
	}
	s.metrics.RecordPass(string(status))

	l.Info("Harvest pass finished",
		zap.String("status", string(status)),
		zap.Int("staged_new", summary.StagedNew),
		zap.Int("staged_changed", summary.StagedChanged),
		zap.Int("staged_deleted", summary.StagedDeleted),
		zap.Int("resolved", summary.Resolved),
		zap.Int("unchanged", summary.Unchanged),
		zap.Int("failed", summary.Failed),
	)
	return summary, err
}

// supersededDetail is stored on pending records closed by a later pass.
const supersededDetail = "superseded: left pending by an interrupted harvest job"

// recoverPending finishes what an interrupted pass of the same source left
// behind. Pending deletes are resolved, because their prior record is no
// longer current and no later gather would stage them again. Other pending
// records are failed; the gather that follows stages their identifiers anew.
func (s *Service) recoverPending(ctx context.Context, pass *importer.Pass, summary *models.PassSummary, l *zap.Logger) error {
	stale, err := s.staging.AbortStaleJobs(ctx, pass.Source.ID, summary.JobID)
	if err != nil {
		return err
	}
	if stale > 0 {
		l.Warn("Aborted unfinished jobs of earlier passes", zap.Int64("count", stale))
	}

	deletes, err := s.staging.PendingDeletes(ctx, pass.Source.ID)
	if err != nil {
		return err
	}
	if len(deletes) > 0 {
		results, err := s.resolver.ResolveAll(ctx, pass, deletes)
		for _, res := range results {
			s.metrics.RecordResolved(res.Outcome)
			switch res.Outcome {
			case importer.OutcomeDeleted:
				summary.Recovered++
			case importer.OutcomeFailed:
				summary.Failed++
				summary.Failures = append(summary.Failures, models.Failure{
					ObjectID:       res.ObjectID,
					Identifier:     res.Identifier,
					Classification: res.Classification,
					Cause:          importer.Detail(res.Err),
				})
			}
		}
		if err != nil {
			return err
		}
		l.Info("Resolved pending deletes of earlier jobs", zap.Int("count", summary.Recovered))
	}

	n, err := s.staging.SupersedePending(ctx, pass.Source.ID, supersededDetail)
	if err != nil {
		return err
	}
	if n > 0 {
		summary.Superseded = int(n)
		l.Warn("Superseded pending records of earlier jobs", zap.Int64("count", n))
	}
	return nil
}

// gather fetches the remote catalog, reconciles it and stages the result.
// Nothing is staged unless the fetch fully succeeded.
func (s *Service) gather(ctx context.Context, src *models.HarvestSource, harvester source.Harvester, job *models.HarvestJob, summary *models.PassSummary, l *zap.Logger) ([]*models.HarvestObject, error) {
	cfg, err := source.ParseConfig(src.Config)
	if err != nil {
		return nil, err
	}

	fetched, err := harvester.FetchCatalog(ctx, src.URL, cfg)
	if err != nil {
		return nil, err
	}

	for _, dropped := range fetched.Dropped {
		l.Warn("Dropped catalog item", zap.Error(dropped))
		summary.Warnings = append(summary.Warnings, dropped.Error())
		s.saveGatherError(ctx, job.ID, dropped.Error(), l)
	}

	if fetched.ItemCount > 0 && len(fetched.Identifiers) == 0 {
		return nil, &harvesterrors.EmptyResultError{SourceID: src.ID, Items: fetched.ItemCount}
	}

	s.snapshot(ctx, src.ID, job, fetched.Raw, l)

	localIndex, err := s.staging.CurrentIndex(ctx, src.ID)
	if err != nil {
		return nil, err
	}

	result, plan := reconcile.ReconcileWithPlan(fetched.Identifiers, localIndex)
	if err := result.Validate(fetched.Identifiers, reconcile.KeysOf(localIndex)); err != nil {
		return nil, err
	}
	summary.Planned = plan.Summary.Total
	if plan.Empty() {
		l.Info("Nothing to harvest")
		return nil, nil
	}

	records := fetched.ByIdentifier()
	inputs := make([]staging.StageInput, 0, len(plan.Actions))
	for _, action := range plan.Actions {
		in := staging.StageInput{
			SourceID:       src.ID,
			JobID:          job.ID,
			Identifier:     action.Identifier,
			Classification: action.Classification,
			PackageID:      action.PackageID,
		}
		if action.Classification != reconcile.ClassDeleted {
			in.Payload = records[action.Identifier].Payload
		}
		inputs = append(inputs, in)
	}

	report := s.staging.StageAll(ctx, inputs)
	for _, obj := range report.Staged {
		summary.CountStaged(obj.Classification)
		s.metrics.RecordStaged(obj.Classification)
		logger.ForRecord(l, obj.GUID, string(obj.Classification)).Debug("Staged harvest object", zap.String("object_id", obj.ID))
	}
	for _, ferr := range report.Failures {
		l.Error("Failed to stage harvest object", zap.Error(ferr))
		s.saveGatherError(ctx, job.ID, ferr.Error(), l)
	}
	if d := report.Discrepancy(); d > 0 {
		msg := fmt.Sprintf("staged %d of %d planned records", len(report.Staged), report.Planned)
		l.Warn("Staging incomplete", zap.Int("missing", d))
		summary.Warnings = append(summary.Warnings, msg)
	}

	l.Info("Gather finished",
		zap.Int("new", plan.Summary.New),
		zap.Int("changed", plan.Summary.Changed),
		zap.Int("deleted", plan.Summary.Deleted),
		zap.Int("staged", len(report.Staged)),
	)
	return report.Staged, nil
}

func (s *Service) snapshot(ctx context.Context, sourceID string, job *models.HarvestJob, raw []byte, l *zap.Logger) {
	if s.archive == nil || len(raw) == 0 {
		return
	}
	if err := s.archive.Put(ctx, sourceID, job.ID, raw); err != nil {
		l.Warn("Failed to archive catalog snapshot", zap.Error(err))
		return
	}
	job.Snapshot = s.archive.Key(sourceID, job.ID)
}

func (s *Service) saveGatherError(ctx context.Context, jobID, message string, l *zap.Logger) {
	if err := s.staging.SaveGatherError(context.WithoutCancel(ctx), jobID, message); err != nil {
		l.Error("Failed to save gather error", zap.Error(err))
	}
}

// abort records a gather failure and closes the job.
func (s *Service) abort(job *models.HarvestJob, summary *models.PassSummary, cause error, l *zap.Logger) {
	ctx := context.Background()
	l.Error("Harvest pass aborted", zap.Error(cause))

	s.saveGatherError(ctx, job.ID, cause.Error(), l)
	summary.Warnings = append(summary.Warnings, cause.Error())
	summary.ApplyTo(job)
	if err := s.staging.FinishJob(ctx, job, models.JobAborted); err != nil {
		l.Error("Failed to finish harvest job", zap.Error(err))
	}
	s.metrics.RecordPass(string(models.JobAborted))
}

// tally folds importer results into the summary.
func (s *Service) tally(summary *models.PassSummary, results []importer.Result) {
	for _, res := range results {
		s.metrics.RecordResolved(res.Outcome)
		switch res.Outcome {
		case importer.OutcomeFailed:
			summary.Failed++
			cause := ""
			if res.Err != nil {
				cause = importer.Detail(res.Err)
			}
			summary.Failures = append(summary.Failures, models.Failure{
				ObjectID:       res.ObjectID,
				Identifier:     res.Identifier,
				Classification: res.Classification,
				Cause:          cause,
			})
		case importer.OutcomeSkipped:
		case importer.OutcomeUnchanged:
			summary.Unchanged++
			summary.Resolved++
		default:
			summary.Resolved++
		}
	}
}
