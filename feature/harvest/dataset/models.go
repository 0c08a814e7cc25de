package dataset

import "time"

// Dataset states.
const (
	StateActive  = "active"
	StateDeleted = "deleted"
)

// Extra keys written by the harvester.
const (
	ExtraHarvestObjectID = "harvest_object_id"
	ExtraHarvestSourceID = "harvest_source_id"
	ExtraGUID            = "guid"
)

// Resource is a file or link attached to a dataset.
type Resource struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Format      string `json:"format,omitempty"`
	Description string `json:"description,omitempty"`
}

// Package is the persisted state of one dataset.
type Package struct {
	ID               string            `gorm:"column:id;primaryKey;size:36" json:"id"`
	Name             string            `gorm:"column:name;size:100;uniqueIndex;not null" json:"name"`
	Title            string            `gorm:"column:title;size:512" json:"title"`
	Notes            string            `gorm:"column:notes;type:text" json:"notes,omitempty"`
	URL              string            `gorm:"column:url;size:1024" json:"url,omitempty"`
	OwnerOrg         string            `gorm:"column:owner_org;size:255" json:"owner_org,omitempty"`
	Tags             []string          `gorm:"column:tags;serializer:json;type:text" json:"tags,omitempty"`
	Extras           map[string]string `gorm:"column:extras;serializer:json;type:text" json:"extras,omitempty"`
	Resources        []Resource        `gorm:"column:resources;serializer:json;type:text" json:"resources,omitempty"`
	ContentHash      string            `gorm:"column:content_hash;size:64" json:"content_hash,omitempty"`
	SourceID         string            `gorm:"column:source_id;size:36;index" json:"source_id,omitempty"`
	State            string            `gorm:"column:state;size:16;not null" json:"state"`
	CreatorUser      string            `gorm:"column:creator_user;size:255" json:"creator_user,omitempty"`
	ModifiedBy       string            `gorm:"column:modified_by;size:255" json:"modified_by,omitempty"`
	MetadataModified time.Time         `gorm:"column:metadata_modified" json:"metadata_modified"`
	CreatedAt        time.Time         `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides the table name.
func (Package) TableName() string {
	return "packages"
}

// SetExtra sets an extra, allocating the map if needed.
func (p *Package) SetExtra(key, value string) {
	if p.Extras == nil {
		p.Extras = make(map[string]string)
	}
	p.Extras[key] = value
}

// IndexEntry is one document of the default search index.
type IndexEntry struct {
	PackageID       string    `gorm:"column:package_id;primaryKey;size:36"`
	Name            string    `gorm:"column:name;size:100;index"`
	Title           string    `gorm:"column:title;size:512"`
	Text            string    `gorm:"column:text;type:text"`
	OwnerOrg        string    `gorm:"column:owner_org;size:255"`
	HarvestObjectID string    `gorm:"column:harvest_object_id;size:36"`
	IndexedAt       time.Time `gorm:"column:indexed_at"`
}

// TableName overrides the table name.
func (IndexEntry) TableName() string {
	return "package_index"
}
