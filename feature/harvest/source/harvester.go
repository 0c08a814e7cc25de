package source

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"catalog-harvester/core/reconcile"
	"catalog-harvester/feature/harvest/dataset"
)

// RemoteRecord is one item of a fetched catalog.
type RemoteRecord struct {
	Identifier  string         `json:"identifier"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Subjects    []string       `json:"subjects"`
	Payload     map[string]any `json:"payload"`
}

// FetchResult is what a catalog fetch returns.
type FetchResult struct {
	// Identifiers holds the identifier of every record in Records.
	Identifiers reconcile.Set
	// Records holds the usable items in response order.
	Records []RemoteRecord
	// ItemCount is the number of items in the response, usable or not.
	ItemCount int
	// Dropped holds one error per item that was skipped.
	Dropped []error
	// Raw is the response body as received.
	Raw []byte
}

// Record returns the record with the given identifier.
func (r *FetchResult) Record(id string) (RemoteRecord, bool) {
	for _, rec := range r.Records {
		if rec.Identifier == id {
			return rec, true
		}
	}
	return RemoteRecord{}, false
}

// ByIdentifier indexes the records by identifier.
func (r *FetchResult) ByIdentifier() map[string]RemoteRecord {
	out := make(map[string]RemoteRecord, len(r.Records))
	for _, rec := range r.Records {
		out[rec.Identifier] = rec
	}
	return out
}

// Info describes a harvester variant.
type Info struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Harvester is the capability set of one remote catalog variant.
type Harvester interface {
	Name() string
	Info() Info
	// FetchCatalog fetches every (identifier, metadata) pair matching cfg.
	FetchCatalog(ctx context.Context, baseURL string, cfg *Config) (*FetchResult, error)
	// BuildDatasetDict turns a staged payload into a dataset. The second
	// return value is the metadata AttachResources reads.
	BuildDatasetDict(guid string, payload map[string]any) (*dataset.Package, map[string]any, error)
	// AttachResources adds the resources described by metadata to pkg.
	AttachResources(metadata map[string]any, pkg *dataset.Package)
}

// Registry maps source types to harvesters.
type Registry struct {
	mu         sync.RWMutex
	harvesters map[string]Harvester
}

// NewRegistry creates a registry holding the given harvesters.
func NewRegistry(harvesters ...Harvester) *Registry {
	r := &Registry{harvesters: make(map[string]Harvester)}
	for _, h := range harvesters {
		r.Register(h)
	}
	return r
}

// Register adds or replaces the harvester for h.Name().
func (r *Registry) Register(h Harvester) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.harvesters[h.Name()] = h
}

// Get returns the harvester for a source type.
func (r *Registry) Get(sourceType string) (Harvester, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.harvesters[sourceType]
	if !ok {
		return nil, fmt.Errorf("no harvester registered for source type %q", sourceType)
	}
	return h, nil
}

// Infos lists the registered harvesters ordered by name.
func (r *Registry) Infos() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.harvesters))
	for _, h := range r.harvesters {
		out = append(out, h.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
