package dataset

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	harvesterrors "catalog-harvester/core/errors"

	"gorm.io/gorm"
)

// Store is the dataset store the importer writes through.
// Validation failures are returned as *errors.ValidationError.
type Store interface {
	Create(ctx context.Context, actor string, pkg *Package) (string, error)
	Update(ctx context.Context, actor, id string, pkg *Package) (string, error)
	Delete(ctx context.Context, actor, id string) error
	Show(ctx context.Context, id string) (*Package, error)
	NameExists(ctx context.Context, name string) (bool, error)
	WithTx(tx *gorm.DB) Store
}

var nameRe = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Validate applies the default dataset rules.
func Validate(pkg *Package) error {
	verr := &harvesterrors.ValidationError{}
	switch {
	case pkg.Name == "":
		verr.Add("name", "Missing value")
	case len(pkg.Name) < 2 || len(pkg.Name) > MaxNameLength:
		verr.Add("name", fmt.Sprintf("Must be between 2 and %d characters long", MaxNameLength))
	case !nameRe.MatchString(pkg.Name):
		verr.Add("name", "Must be purely lowercase alphanumeric (ascii) characters and these symbols: -_")
	}
	if pkg.Title == "" {
		verr.Add("title", "Missing value")
	}
	for i, r := range pkg.Resources {
		if r.URL == "" {
			verr.Add(fmt.Sprintf("resources[%d].url", i), "Missing value")
		}
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// GormStore is the default Store backed by the packages table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new gorm dataset store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// WithTx returns a store bound to the given transaction.
func (s *GormStore) WithTx(tx *gorm.DB) Store {
	return &GormStore{db: tx}
}

// Migrate creates or updates the dataset tables.
func (s *GormStore) Migrate() error {
	if err := s.db.AutoMigrate(&Package{}, &IndexEntry{}); err != nil {
		return fmt.Errorf("failed to migrate dataset tables: %w", err)
	}
	return nil
}

// Create inserts a dataset and returns its id.
func (s *GormStore) Create(ctx context.Context, actor string, pkg *Package) (string, error) {
	if err := Validate(pkg); err != nil {
		return "", err
	}
	if pkg.ID == "" {
		return "", &harvesterrors.ValidationError{Fields: map[string][]string{"id": {"Missing value"}}}
	}

	exists, err := s.NameExists(ctx, pkg.Name)
	if err != nil {
		return "", err
	}
	if exists {
		return "", &harvesterrors.ValidationError{Fields: map[string][]string{"name": {"That URL is already in use."}}}
	}

	if pkg.State == "" {
		pkg.State = StateActive
	}
	if pkg.MetadataModified.IsZero() {
		pkg.MetadataModified = time.Now().UTC()
	}
	pkg.CreatorUser = actor
	pkg.ModifiedBy = actor

	if err := s.db.WithContext(ctx).Create(pkg).Error; err != nil {
		return "", fmt.Errorf("failed to create dataset %s: %w", pkg.Name, err)
	}
	return pkg.ID, nil
}

// Update replaces the mutable fields of an existing dataset.
func (s *GormStore) Update(ctx context.Context, actor, id string, pkg *Package) (string, error) {
	existing, err := s.Show(ctx, id)
	if err != nil {
		return "", err
	}

	pkg.ID = existing.ID
	if pkg.Name == "" {
		pkg.Name = existing.Name
	}
	if err := Validate(pkg); err != nil {
		return "", err
	}
	if pkg.Name != existing.Name {
		exists, err := s.NameExists(ctx, pkg.Name)
		if err != nil {
			return "", err
		}
		if exists {
			return "", &harvesterrors.ValidationError{Fields: map[string][]string{"name": {"That URL is already in use."}}}
		}
	}

	pkg.State = StateActive
	pkg.CreatorUser = existing.CreatorUser
	pkg.CreatedAt = existing.CreatedAt
	pkg.ModifiedBy = actor
	if pkg.MetadataModified.IsZero() {
		pkg.MetadataModified = time.Now().UTC()
	}

	if err := s.db.WithContext(ctx).Save(pkg).Error; err != nil {
		return "", fmt.Errorf("failed to update dataset %s: %w", id, err)
	}
	return pkg.ID, nil
}

// Delete marks a dataset as deleted.
func (s *GormStore) Delete(ctx context.Context, actor, id string) error {
	res := s.db.WithContext(ctx).Model(&Package{}).Where("id = ?", id).Updates(map[string]any{
		"state":       StateDeleted,
		"modified_by": actor,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to delete dataset %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return harvesterrors.NewNotFoundError("dataset", id)
	}
	return nil
}

// Show loads a dataset by id.
func (s *GormStore) Show(ctx context.Context, id string) (*Package, error) {
	var pkg Package
	if err := s.db.WithContext(ctx).First(&pkg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, harvesterrors.NewNotFoundError("dataset", id)
		}
		return nil, fmt.Errorf("failed to load dataset %s: %w", id, err)
	}
	return &pkg, nil
}

// NameExists reports whether a dataset already uses name.
func (s *GormStore) NameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Package{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check dataset name %s: %w", name, err)
	}
	return count > 0, nil
}
