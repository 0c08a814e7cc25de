package source_test

import (
	"context"
	"testing"

	harvesterrors "catalog-harvester/core/errors"
	"catalog-harvester/core/reconcile"
	"catalog-harvester/feature/harvest/dataset"
	"catalog-harvester/feature/harvest/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	t.Run("Defaults filter", func(t *testing.T) {
		cfg, err := source.ParseConfig(`{"id_field_name": "global_id"}`)
		require.NoError(t, err)
		assert.Equal(t, "global_id", cfg.IDFieldName)
		assert.Equal(t, "*", cfg.Filter)
	})

	t.Run("Explicit filter", func(t *testing.T) {
		cfg, err := source.ParseConfig(`{"id_field_name": "global_id", "filter": "type:dataset"}`)
		require.NoError(t, err)
		assert.Equal(t, "type:dataset", cfg.Filter)
	})

	errorCases := map[string]string{
		"empty":          ``,
		"not json":       `{`,
		"not object":     `[1,2]`,
		"missing id":     `{"filter": "*"}`,
		"id not string":  `{"id_field_name": 3}`,
		"id empty":       `{"id_field_name": ""}`,
		"filter not str": `{"id_field_name": "x", "filter": ["a"]}`,
	}
	for name, raw := range errorCases {
		t.Run(name, func(t *testing.T) {
			_, err := source.ParseConfig(raw)
			assert.ErrorIs(t, err, harvesterrors.ErrConfig)
		})
	}
}

type stubHarvester struct{ name string }

func (s stubHarvester) Name() string { return s.name }
func (s stubHarvester) Info() source.Info {
	return source.Info{Name: s.name, Title: s.name}
}
func (s stubHarvester) FetchCatalog(context.Context, string, *source.Config) (*source.FetchResult, error) {
	return &source.FetchResult{}, nil
}
func (s stubHarvester) BuildDatasetDict(string, map[string]any) (*dataset.Package, map[string]any, error) {
	return &dataset.Package{}, nil, nil
}
func (s stubHarvester) AttachResources(map[string]any, *dataset.Package) {}

func TestRegistry(t *testing.T) {
	reg := source.NewRegistry(stubHarvester{"zeta"}, stubHarvester{"alpha"})

	h, err := reg.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", h.Name())

	_, err = reg.Get("ckan")
	assert.Error(t, err)

	infos := reg.Infos()
	require.Len(t, infos, 2)
	assert.Equal(t, "alpha", infos[0].Name)
	assert.Equal(t, "zeta", infos[1].Name)
}

func TestFetchResult_Lookup(t *testing.T) {
	res := &source.FetchResult{
		Identifiers: reconcile.NewSet("a", "b"),
		Records: []source.RemoteRecord{
			{Identifier: "a", Name: "A"},
			{Identifier: "b", Name: "B"},
		},
	}

	rec, ok := res.Record("b")
	require.True(t, ok)
	assert.Equal(t, "B", rec.Name)

	_, ok = res.Record("c")
	assert.False(t, ok)

	assert.Len(t, res.ByIdentifier(), 2)
}
