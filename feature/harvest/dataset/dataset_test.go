package dataset_test

import (
	"context"
	"strings"
	"testing"

	"catalog-harvester/core/database"
	harvesterrors "catalog-harvester/core/errors"
	"catalog-harvester/feature/harvest/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*dataset.GormStore, *dataset.GormIndexer) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(database.Config{
		Driver: "sqlite",
		Name:   "file:" + name + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)

	store := dataset.NewGormStore(db)
	require.NoError(t, store.Migrate())
	return store, dataset.NewGormIndexer(db)
}

func TestMungeName(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Climate Data 2020", "climate-data-2020"},
		{"Évolution des côtes", "evolution-des-cotes"},
		{"  --Hello,   World!--  ", "hello-world"},
		{"snake_case_title", "snake_case_title"},
		{"???", ""},
		{strings.Repeat("a", 150), strings.Repeat("a", 100)},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, dataset.MungeName(tt.title))
		})
	}
}

func TestUniqueName(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	name, err := dataset.UniqueName(ctx, store, "My Dataset")
	require.NoError(t, err)
	assert.Equal(t, "my-dataset", name)

	_, err = store.Create(ctx, "admin", &dataset.Package{ID: "p1", Name: "my-dataset", Title: "My Dataset"})
	require.NoError(t, err)

	name, err = dataset.UniqueName(ctx, store, "My Dataset")
	require.NoError(t, err)
	assert.Equal(t, "my-dataset-1", name)

	name, err = dataset.UniqueName(ctx, store, "!")
	require.NoError(t, err)
	assert.Equal(t, "dataset", name)
}

func TestValidate(t *testing.T) {
	err := dataset.Validate(&dataset.Package{Name: "Bad Name", Resources: []dataset.Resource{{Name: "r"}}})
	var verr *harvesterrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "resources[0].url")

	assert.NoError(t, dataset.Validate(&dataset.Package{Name: "ok", Title: "Ok"}))
}

func TestGormStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	pkg := &dataset.Package{
		ID:       "pkg-1",
		Name:     "first",
		Title:    "First",
		OwnerOrg: "org",
		Tags:     []string{"a", "b"},
		Extras:   map[string]string{"guid": "doi:1"},
	}
	id, err := store.Create(ctx, "harvester", pkg)
	require.NoError(t, err)
	assert.Equal(t, "pkg-1", id)

	shown, err := store.Show(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, dataset.StateActive, shown.State)
	assert.Equal(t, []string{"a", "b"}, shown.Tags)
	assert.Equal(t, "doi:1", shown.Extras["guid"])
	assert.Equal(t, "harvester", shown.CreatorUser)

	t.Run("Duplicate name", func(t *testing.T) {
		_, err := store.Create(ctx, "harvester", &dataset.Package{ID: "pkg-2", Name: "first", Title: "Dup"})
		assert.ErrorIs(t, err, harvesterrors.ErrValidation)
	})

	t.Run("Update keeps name when empty", func(t *testing.T) {
		id, err := store.Update(ctx, "editor", "pkg-1", &dataset.Package{Title: "First v2"})
		require.NoError(t, err)
		assert.Equal(t, "pkg-1", id)

		shown, err := store.Show(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "first", shown.Name)
		assert.Equal(t, "First v2", shown.Title)
		assert.Equal(t, "editor", shown.ModifiedBy)
		assert.Equal(t, "harvester", shown.CreatorUser)
	})

	t.Run("Update validation", func(t *testing.T) {
		_, err := store.Update(ctx, "editor", "pkg-1", &dataset.Package{})
		assert.ErrorIs(t, err, harvesterrors.ErrValidation)
	})

	t.Run("Update missing", func(t *testing.T) {
		_, err := store.Update(ctx, "editor", "nope", &dataset.Package{Title: "x"})
		assert.ErrorIs(t, err, harvesterrors.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "editor", "pkg-1"))
		shown, err := store.Show(ctx, "pkg-1")
		require.NoError(t, err)
		assert.Equal(t, dataset.StateDeleted, shown.State)

		assert.ErrorIs(t, store.Delete(ctx, "editor", "nope"), harvesterrors.ErrNotFound)
	})
}

func TestGormIndexer(t *testing.T) {
	ctx := context.Background()
	_, index := newStore(t)

	pkg := &dataset.Package{ID: "pkg-1", Name: "first", Title: "First", Tags: []string{"x"}}
	pkg.SetExtra(dataset.ExtraHarvestObjectID, "obj-1")
	require.NoError(t, index.Index(ctx, pkg))

	pkg.SetExtra(dataset.ExtraHarvestObjectID, "obj-2")
	require.NoError(t, index.Index(ctx, pkg))

	entry, err := index.Lookup(ctx, "pkg-1")
	require.NoError(t, err)
	assert.Equal(t, "obj-2", entry.HarvestObjectID)
	assert.Equal(t, "First  x", entry.Text)

	require.NoError(t, index.Remove(ctx, "pkg-1"))
	_, err = index.Lookup(ctx, "pkg-1")
	assert.Error(t, err)
}
