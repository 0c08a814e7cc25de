package harvest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"catalog-harvester/core/database"
	"catalog-harvester/core/storage"
	"catalog-harvester/feature/harvest"
	"catalog-harvester/feature/harvest/dataset"
	"catalog-harvester/feature/harvest/source"
	"catalog-harvester/feature/harvest/source/dataverse"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// catalog is a fake Dataverse search endpoint whose response can be swapped.
type catalog struct {
	mu     sync.Mutex
	status int
	body   string
	srv    *httptest.Server
}

func newCatalog(t *testing.T) *catalog {
	t.Helper()
	c := &catalog{status: http.StatusOK, body: `{"items": []}`}
	c.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		status, body := c.status, c.body
		c.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(c.srv.Close)
	return c
}

func (c *catalog) serve(status int, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status, c.body = status, body
}

type fixture struct {
	db       *gorm.DB
	catalog  *catalog
	service  *harvest.Service
	datasets *dataset.GormStore
	registry *prometheus.Registry
}

func newFixture(t *testing.T, archive *storage.Archive) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(database.Config{
		Driver: "sqlite",
		Name:   "file:" + name + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)

	datasets := dataset.NewGormStore(db)
	require.NoError(t, datasets.Migrate())

	reg := prometheus.NewRegistry()
	metrics := harvest.NewMetrics(reg)

	client := dataverse.NewClient(dataverse.ClientConfig{Timeout: 2 * time.Second, Observer: metrics}, zap.NewNop())
	registry := source.NewRegistry(dataverse.NewHarvester(client))

	svc := harvest.NewService(db, registry, datasets, dataset.NewGormIndexer(db), archive, metrics, zap.NewNop(), harvest.Options{
		Workers:  4,
		SiteUser: "site_user",
	})
	require.NoError(t, svc.Staging().Migrate())

	return &fixture{
		db:       db,
		catalog:  newCatalog(t),
		service:  svc,
		datasets: datasets,
		registry: reg,
	}
}

func (f *fixture) addSource(t *testing.T) string {
	t.Helper()
	src, err := f.service.CreateSource(context.Background(), harvest.CreateSourceInput{
		URL:      f.catalog.srv.URL,
		Title:    "Demo",
		Config:   `{"id_field_name": "global_id"}`,
		OwnerOrg: "org-1",
	})
	require.NoError(t, err)
	return src.ID
}

func items(entries ...string) string {
	return `{"items": [` + strings.Join(entries, ",") + `]}`
}

func item(id, name string) string {
	return `{"global_id": "` + id + `", "name": "` + name + `", "description": "about ` + name + `"}`
}
