package staging_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"catalog-harvester/core/database"
	harvesterrors "catalog-harvester/core/errors"
	"catalog-harvester/core/reconcile"
	"catalog-harvester/feature/harvest/models"
	"catalog-harvester/feature/harvest/staging"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newStore(t *testing.T) *staging.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(database.Config{
		Driver: "sqlite",
		Name:   "file:" + name + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)

	store := staging.NewStore(db)
	require.NoError(t, store.Migrate())
	return store
}

func seedCurrent(t *testing.T, store *staging.Store, sourceID, guid, packageID string) *models.HarvestObject {
	t.Helper()
	pkg := packageID
	obj := &models.HarvestObject{
		ID:             "obj-" + guid,
		GUID:           guid,
		SourceID:       sourceID,
		JobID:          "job-0",
		Classification: reconcile.ClassNew,
		Payload:        `{"id":"` + guid + `"}`,
		PackageID:      &pkg,
		Current:        true,
		State:          models.StateResolved,
	}
	require.NoError(t, store.DB().Create(obj).Error)
	return obj
}

func TestCanonical(t *testing.T) {
	a, hashA, err := staging.Canonical(map[string]any{"b": 1, "a": map[string]any{"z": true, "y": "x"}})
	require.NoError(t, err)
	b, hashB, err := staging.Canonical(map[string]any{"a": map[string]any{"y": "x", "z": true}, "b": 1})
	require.NoError(t, err)

	assert.Equal(t, `{"a":{"y":"x","z":true},"b":1}`, a)
	assert.Equal(t, a, b)
	assert.Equal(t, hashA, hashB)
	assert.Len(t, hashA, 64)

	_, hashC, err := staging.Canonical(map[string]any{"b": 2})
	require.NoError(t, err)
	assert.NotEqual(t, hashA, hashC)

	empty, emptyHash, err := staging.Canonical(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Empty(t, emptyHash)
}

func TestStage(t *testing.T) {
	ctx := context.Background()

	t.Run("New", func(t *testing.T) {
		store := newStore(t)
		obj, err := store.Stage(ctx, staging.StageInput{
			SourceID:       "src",
			JobID:          "job-1",
			Identifier:     "doi:1",
			Classification: reconcile.ClassNew,
			Payload:        map[string]any{"name": "One"},
		})
		require.NoError(t, err)

		assert.Equal(t, models.StatePending, obj.State)
		assert.False(t, obj.Current)
		assert.Nil(t, obj.PackageID)
		assert.Nil(t, obj.PriorID)
		assert.Equal(t, `{"name":"One"}`, obj.Payload)
		assert.NotEmpty(t, obj.ContentHash)
	})

	t.Run("Changed links the prior record", func(t *testing.T) {
		store := newStore(t)
		prior := seedCurrent(t, store, "src", "doi:2", "pkg-2")

		obj, err := store.Stage(ctx, staging.StageInput{
			SourceID:       "src",
			JobID:          "job-1",
			Identifier:     "doi:2",
			Classification: reconcile.ClassChanged,
			Payload:        map[string]any{"name": "Two"},
			PackageID:      "pkg-2",
		})
		require.NoError(t, err)

		assert.Equal(t, prior.ID, obj.Prior())
		assert.Equal(t, "pkg-2", obj.LinkedPackage())

		// The prior stays current until the new record is resolved.
		reloaded, err := store.Get(ctx, prior.ID)
		require.NoError(t, err)
		assert.True(t, reloaded.Current)
	})

	t.Run("Changed without prior", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Stage(ctx, staging.StageInput{
			SourceID:       "src",
			JobID:          "job-1",
			Identifier:     "doi:ghost",
			Classification: reconcile.ClassChanged,
			Payload:        map[string]any{},
		})
		assert.ErrorIs(t, err, harvesterrors.ErrIntegrity)
	})

	t.Run("Deleted clears current flag", func(t *testing.T) {
		store := newStore(t)
		prior := seedCurrent(t, store, "src", "doi:3", "pkg-3")

		obj, err := store.Stage(ctx, staging.StageInput{
			SourceID:       "src",
			JobID:          "job-1",
			Identifier:     "doi:3",
			Classification: reconcile.ClassDeleted,
			PackageID:      "pkg-3",
		})
		require.NoError(t, err)
		assert.Empty(t, obj.Payload)
		assert.Equal(t, "pkg-3", obj.LinkedPackage())

		reloaded, err := store.Get(ctx, prior.ID)
		require.NoError(t, err)
		assert.False(t, reloaded.Current)

		index, err := store.CurrentIndex(ctx, "src")
		require.NoError(t, err)
		assert.NotContains(t, index, "doi:3")
	})

	t.Run("Deleted with payload is rejected", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Stage(ctx, staging.StageInput{
			SourceID:       "src",
			Identifier:     "doi:4",
			Classification: reconcile.ClassDeleted,
			Payload:        map[string]any{"x": 1},
		})
		assert.ErrorIs(t, err, harvesterrors.ErrIntegrity)
	})

	t.Run("Unknown classification", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Stage(ctx, staging.StageInput{Identifier: "doi:5", Classification: "moved"})
		assert.ErrorIs(t, err, harvesterrors.ErrIntegrity)
	})
}

func TestStageAll_IsolatesFailures(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	seedCurrent(t, store, "src", "doi:kept", "pkg-k")

	report := store.StageAll(ctx, []staging.StageInput{
		{SourceID: "src", JobID: "j", Identifier: "doi:a", Classification: reconcile.ClassNew, Payload: map[string]any{"a": 1}},
		{SourceID: "src", JobID: "j", Identifier: "doi:missing", Classification: reconcile.ClassChanged, Payload: map[string]any{}},
		{SourceID: "src", JobID: "j", Identifier: "doi:kept", Classification: reconcile.ClassChanged, Payload: map[string]any{"k": 1}, PackageID: "pkg-k"},
	})

	assert.Equal(t, 3, report.Planned)
	assert.Len(t, report.Staged, 2)
	assert.Len(t, report.Failures, 1)
	assert.Equal(t, 1, report.Discrepancy())
}

func TestStage_PersistenceFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `harvest_objects`").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	store := staging.NewStore(gormDB)
	_, err = store.Stage(context.Background(), staging.StageInput{
		SourceID:       "src",
		JobID:          "job",
		Identifier:     "doi:1",
		Classification: reconcile.ClassNew,
		Payload:        map[string]any{"a": 1},
	})

	var pe *harvesterrors.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "doi:1", pe.Identifier)
	assert.ErrorIs(t, err, harvesterrors.ErrPersistence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkCurrent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	prior := seedCurrent(t, store, "src", "doi:1", "pkg-1")

	obj, err := store.Stage(ctx, staging.StageInput{
		SourceID:       "src",
		JobID:          "job-2",
		Identifier:     "doi:1",
		Classification: reconcile.ClassChanged,
		Payload:        map[string]any{"v": 2},
		PackageID:      "pkg-1",
	})
	require.NoError(t, err)

	modified := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	obj.MetadataModified = &modified
	require.NoError(t, store.MarkCurrent(ctx, obj))

	current, err := store.List(ctx, staging.ListFilter{SourceID: "src", Current: ptr(true)})
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, obj.ID, current[0].ID)
	assert.Equal(t, "pkg-1", current[0].LinkedPackage())
	require.NotNil(t, current[0].MetadataModified)
	assert.True(t, modified.Equal(*current[0].MetadataModified))

	old, err := store.Get(ctx, prior.ID)
	require.NoError(t, err)
	assert.False(t, old.Current)
}

func TestStates(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	obj, err := store.Stage(ctx, staging.StageInput{SourceID: "src", JobID: "j", Identifier: "doi:1", Classification: reconcile.ClassNew, Payload: map[string]any{}})
	require.NoError(t, err)

	require.NoError(t, store.MarkFailed(ctx, obj.ID, "title: missing"))
	got, err := store.Get(ctx, obj.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateFailed, got.State)
	assert.Equal(t, "title: missing", got.ErrorDetail)

	require.NoError(t, store.MarkResolved(ctx, obj.ID))
	got, err = store.Get(ctx, obj.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateResolved, got.State)
	assert.Empty(t, got.ErrorDetail)

	assert.ErrorIs(t, store.MarkResolved(ctx, "nope"), harvesterrors.ErrNotFound)

	require.NoError(t, store.Delete(ctx, obj.ID))
	_, err = store.Get(ctx, obj.ID)
	assert.ErrorIs(t, err, harvesterrors.ErrNotFound)
}

func TestPurgeSuperseded(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	seedCurrent(t, store, "src", "doi:1", "pkg-1")

	stale := &models.HarvestObject{ID: "stale", GUID: "doi:1", SourceID: "src", JobID: "j", Classification: reconcile.ClassNew, State: models.StateResolved}
	pending := &models.HarvestObject{ID: "pending", GUID: "doi:2", SourceID: "src", JobID: "j", Classification: reconcile.ClassNew, State: models.StatePending}
	require.NoError(t, store.DB().Create(stale).Error)
	require.NoError(t, store.DB().Create(pending).Error)

	n, err := store.PurgeSuperseded(ctx, "src", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.Get(ctx, "stale")
	assert.ErrorIs(t, err, harvesterrors.ErrNotFound)
	_, err = store.Get(ctx, "pending")
	assert.NoError(t, err)
	_, err = store.Get(ctx, "obj-doi:1")
	assert.NoError(t, err)
}

func TestPendingRecovery(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	seedCurrent(t, store, "src-1", "A", "pkg-a")
	seedCurrent(t, store, "src-1", "B", "pkg-b")

	stale, err := store.CreateJob(ctx, "src-1")
	require.NoError(t, err)
	report := store.StageAll(ctx, []staging.StageInput{
		{SourceID: "src-1", JobID: stale.ID, Identifier: "A", Classification: reconcile.ClassDeleted, PackageID: "pkg-a"},
		{SourceID: "src-1", JobID: stale.ID, Identifier: "B", Classification: reconcile.ClassChanged, Payload: map[string]any{"v": 2}, PackageID: "pkg-b"},
		{SourceID: "src-1", JobID: stale.ID, Identifier: "C", Classification: reconcile.ClassNew, Payload: map[string]any{"v": 1}},
	})
	require.Empty(t, report.Failures)

	deletes, err := store.PendingDeletes(ctx, "src-1")
	require.NoError(t, err)
	require.Len(t, deletes, 1)
	assert.Equal(t, "A", deletes[0].GUID)
	assert.Equal(t, "pkg-a", deletes[0].LinkedPackage())

	other, err := store.PendingDeletes(ctx, "src-2")
	require.NoError(t, err)
	assert.Empty(t, other)

	n, err := store.SupersedePending(ctx, "src-1", "superseded")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	pending, err := store.List(ctx, staging.ListFilter{SourceID: "src-1", State: models.StatePending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, reconcile.ClassDeleted, pending[0].Classification)

	// B's prior stays current, so the next gather stages it as changed again.
	index, err := store.CurrentIndex(ctx, "src-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"B": "pkg-b"}, index)

	current, err := store.CreateJob(ctx, "src-1")
	require.NoError(t, err)
	aborted, err := store.AbortStaleJobs(ctx, "src-1", current.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, aborted)

	got, err := store.GetJob(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobAborted, got.Status)
	assert.NotNil(t, got.FinishedAt)
	got, err = store.GetJob(ctx, current.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobRunning, got.Status)
}

func TestClearHistory(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	oldJob, err := store.CreateJob(ctx, "src")
	require.NoError(t, err)
	require.NoError(t, store.FinishJob(ctx, oldJob, models.JobFinished))
	liveJob, err := store.CreateJob(ctx, "src")
	require.NoError(t, err)
	require.NoError(t, store.FinishJob(ctx, liveJob, models.JobFinished))

	pkg := "pkg-1"
	require.NoError(t, store.DB().Create(&models.HarvestObject{ID: "old", GUID: "doi:1", SourceID: "src", JobID: oldJob.ID, Classification: reconcile.ClassNew, State: models.StateResolved, PackageID: &pkg}).Error)
	require.NoError(t, store.DB().Create(&models.HarvestObject{ID: "live", GUID: "doi:1", SourceID: "src", JobID: liveJob.ID, Classification: reconcile.ClassChanged, State: models.StateResolved, PackageID: &pkg, Current: true}).Error)
	require.NoError(t, store.SaveObjectError(ctx, "old", "import", "boom"))
	require.NoError(t, store.SaveGatherError(ctx, oldJob.ID, "timeout"))

	objects, jobs, err := store.ClearHistory(ctx, "src")
	require.NoError(t, err)
	assert.Equal(t, int64(1), objects)
	assert.Equal(t, int64(1), jobs)

	_, err = store.GetJob(ctx, oldJob.ID)
	assert.ErrorIs(t, err, harvesterrors.ErrNotFound)
	_, err = store.GetJob(ctx, liveJob.ID)
	assert.NoError(t, err)

	index, err := store.CurrentIndex(ctx, "src")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"doi:1": "pkg-1"}, index)
}

func TestClearSource(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	seedCurrent(t, store, "src", "doi:1", "pkg-1")
	seedCurrent(t, store, "src", "doi:2", "pkg-2")
	seedCurrent(t, store, "other", "doi:9", "pkg-9")
	job, err := store.CreateJob(ctx, "src")
	require.NoError(t, err)

	ids, err := store.ClearSource(ctx, "src")
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg-1", "pkg-2"}, ids)

	left, err := store.List(ctx, staging.ListFilter{SourceID: "src"})
	require.NoError(t, err)
	assert.Empty(t, left)
	_, err = store.GetJob(ctx, job.ID)
	assert.ErrorIs(t, err, harvesterrors.ErrNotFound)

	other, err := store.CurrentIndex(ctx, "other")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestSourcesAndJobs(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	src := &models.HarvestSource{URL: "https://demo.dataverse.org", Type: "dataverse", Config: `{"id_field_name":"global_id"}`, Active: true}
	require.NoError(t, store.CreateSource(ctx, src))
	assert.NotEmpty(t, src.ID)

	got, err := store.GetSource(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, src.URL, got.URL)

	_, err = store.GetSource(ctx, "missing")
	assert.ErrorIs(t, err, harvesterrors.ErrNotFound)

	list, err := store.ListSources(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	job, err := store.CreateJob(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobRunning, job.Status)

	job.Resolved = 3
	require.NoError(t, store.FinishJob(ctx, job, models.JobFinished))
	loaded, err := store.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobFinished, loaded.Status)
	assert.Equal(t, 3, loaded.Resolved)
	assert.NotNil(t, loaded.FinishedAt)

	require.NoError(t, store.SaveGatherError(ctx, job.ID, "fetch failed"))
	gather, objects, err := store.JobErrors(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, gather, 1)
	assert.Equal(t, "fetch failed", gather[0].Message)
	assert.Empty(t, objects)
}

func ptr[T any](v T) *T {
	return &v
}
