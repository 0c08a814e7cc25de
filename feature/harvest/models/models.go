package models

import (
	"time"

	"catalog-harvester/core/reconcile"
)

// State is the import state of a staging record.
type State string

const (
	// StatePending marks a record waiting for import.
	StatePending State = "pending"
	// StateResolved marks a record whose import committed (or was a no-op).
	StateResolved State = "resolved"
	// StateFailed marks a record whose import was rejected.
	StateFailed State = "failed"
)

// JobStatus is the lifecycle status of a harvest job.
type JobStatus string

const (
	JobRunning  JobStatus = "running"
	JobFinished JobStatus = "finished"
	JobAborted  JobStatus = "aborted"
)

// HarvestSource is a configured remote catalog endpoint.
type HarvestSource struct {
	ID        string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	URL       string    `gorm:"column:url;size:1024;not null" json:"url"`
	Title     string    `gorm:"column:title;size:255" json:"title"`
	Type      string    `gorm:"column:type;size:64;not null" json:"type"`
	Config    string    `gorm:"column:config;type:text" json:"config"`
	OwnerOrg  string    `gorm:"column:owner_org;size:255" json:"owner_org,omitempty"`
	Active    bool      `gorm:"column:active;not null" json:"active"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides the table name.
func (HarvestSource) TableName() string {
	return "harvest_sources"
}

// HarvestJob is one harvest pass for one source.
type HarvestJob struct {
	ID            string     `gorm:"column:id;primaryKey;size:36" json:"id"`
	SourceID      string     `gorm:"column:source_id;size:36;index;not null" json:"source_id"`
	Status        JobStatus  `gorm:"column:status;size:16;not null" json:"status"`
	StagedNew     int        `gorm:"column:staged_new" json:"staged_new"`
	StagedChanged int        `gorm:"column:staged_changed" json:"staged_changed"`
	StagedDeleted int        `gorm:"column:staged_deleted" json:"staged_deleted"`
	Resolved      int        `gorm:"column:resolved" json:"resolved"`
	Unchanged     int        `gorm:"column:unchanged" json:"unchanged"`
	Failed        int        `gorm:"column:failed" json:"failed"`
	Snapshot      string     `gorm:"column:snapshot;size:1024" json:"snapshot,omitempty"`
	StartedAt     time.Time  `gorm:"column:started_at" json:"started_at"`
	FinishedAt    *time.Time `gorm:"column:finished_at" json:"finished_at,omitempty"`
}

// TableName overrides the table name.
func (HarvestJob) TableName() string {
	return "harvest_jobs"
}

// HarvestObject is a staging record: one classified identifier of one pass.
type HarvestObject struct {
	ID               string                   `gorm:"column:id;primaryKey;size:36" json:"id"`
	GUID             string                   `gorm:"column:guid;size:255;index:idx_objects_source_guid" json:"guid"`
	SourceID         string                   `gorm:"column:source_id;size:36;index:idx_objects_source_guid;not null" json:"source_id"`
	JobID            string                   `gorm:"column:job_id;size:36;index;not null" json:"job_id"`
	Classification   reconcile.Classification `gorm:"column:classification;size:16;not null" json:"classification"`
	Payload          string                   `gorm:"column:payload;type:text" json:"payload,omitempty"`
	ContentHash      string                   `gorm:"column:content_hash;size:64" json:"content_hash,omitempty"`
	PackageID        *string                  `gorm:"column:package_id;size:36;index" json:"package_id,omitempty"`
	PriorID          *string                  `gorm:"column:prior_id;size:36" json:"prior_id,omitempty"`
	Current          bool                     `gorm:"column:is_current;not null;default:false;index" json:"current"`
	State            State                    `gorm:"column:state;size:16;not null" json:"state"`
	ErrorDetail      string                   `gorm:"column:error_detail;type:text" json:"error_detail,omitempty"`
	MetadataModified *time.Time               `gorm:"column:metadata_modified" json:"metadata_modified,omitempty"`
	CreatedAt        time.Time                `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time                `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the table name.
func (HarvestObject) TableName() string {
	return "harvest_objects"
}

// LinkedPackage returns the linked dataset id, or "".
func (o *HarvestObject) LinkedPackage() string {
	if o.PackageID == nil {
		return ""
	}
	return *o.PackageID
}

// Prior returns the id of the prior current record, or "".
func (o *HarvestObject) Prior() string {
	if o.PriorID == nil {
		return ""
	}
	return *o.PriorID
}

// HarvestGatherError records a failure of the gather step of a job.
type HarvestGatherError struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	JobID     string    `gorm:"column:job_id;size:36;index;not null" json:"job_id"`
	Message   string    `gorm:"column:message;type:text" json:"message"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides the table name.
func (HarvestGatherError) TableName() string {
	return "harvest_gather_errors"
}

// HarvestObjectError records a failure while staging or importing one object.
type HarvestObjectError struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ObjectID  string    `gorm:"column:object_id;size:36;index;not null" json:"object_id"`
	Stage     string    `gorm:"column:stage;size:16" json:"stage"`
	Message   string    `gorm:"column:message;type:text" json:"message"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides the table name.
func (HarvestObjectError) TableName() string {
	return "harvest_object_errors"
}

// All returns every harvest model, for migrations.
func All() []any {
	return []any{
		&HarvestSource{},
		&HarvestJob{},
		&HarvestObject{},
		&HarvestGatherError{},
		&HarvestObjectError{},
	}
}
