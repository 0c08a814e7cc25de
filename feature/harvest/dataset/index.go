package dataset

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Indexer keeps the search index in step with the dataset store.
type Indexer interface {
	Index(ctx context.Context, pkg *Package) error
	Remove(ctx context.Context, id string) error
	WithTx(tx *gorm.DB) Indexer
}

// GormIndexer is the default Indexer backed by the package_index table.
type GormIndexer struct {
	db *gorm.DB
}

// NewGormIndexer creates a new gorm search index.
func NewGormIndexer(db *gorm.DB) *GormIndexer {
	return &GormIndexer{db: db}
}

// WithTx returns an indexer bound to the given transaction.
func (i *GormIndexer) WithTx(tx *gorm.DB) Indexer {
	return &GormIndexer{db: tx}
}

// Index upserts the document of pkg.
func (i *GormIndexer) Index(ctx context.Context, pkg *Package) error {
	entry := IndexEntry{
		PackageID:       pkg.ID,
		Name:            pkg.Name,
		Title:           pkg.Title,
		Text:            strings.Join(append([]string{pkg.Title, pkg.Notes}, pkg.Tags...), " "),
		OwnerOrg:        pkg.OwnerOrg,
		HarvestObjectID: pkg.Extras[ExtraHarvestObjectID],
		IndexedAt:       time.Now().UTC(),
	}
	err := i.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "package_id"}},
		UpdateAll: true,
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to index dataset %s: %w", pkg.ID, err)
	}
	return nil
}

// Remove drops the document of a dataset.
func (i *GormIndexer) Remove(ctx context.Context, id string) error {
	if err := i.db.WithContext(ctx).Delete(&IndexEntry{}, "package_id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to unindex dataset %s: %w", id, err)
	}
	return nil
}

// Lookup returns the indexed document of a dataset.
func (i *GormIndexer) Lookup(ctx context.Context, id string) (*IndexEntry, error) {
	var entry IndexEntry
	if err := i.db.WithContext(ctx).First(&entry, "package_id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to look up index entry %s: %w", id, err)
	}
	return &entry, nil
}
