package models

import "catalog-harvester/core/reconcile"

// Failure describes one record that ended a pass in the failed state.
type Failure struct {
	ObjectID       string                   `json:"object_id"`
	Identifier     string                   `json:"identifier"`
	Classification reconcile.Classification `json:"classification"`
	Cause          string                   `json:"cause"`
}

// PassSummary is the user-visible outcome of one harvest pass.
type PassSummary struct {
	JobID         string    `json:"job_id"`
	SourceID      string    `json:"source_id"`
	StagedNew     int       `json:"staged_new"`
	StagedChanged int       `json:"staged_changed"`
	StagedDeleted int       `json:"staged_deleted"`
	Planned       int       `json:"planned"`
	Resolved      int       `json:"resolved"`
	Unchanged     int       `json:"unchanged"`
	Failed        int       `json:"failed"`
	// Recovered counts pending deletes of interrupted jobs resolved by this pass.
	Recovered     int       `json:"recovered"`
	// Superseded counts pending records of interrupted jobs that were failed.
	Superseded    int       `json:"superseded"`
	Failures      []Failure `json:"failures"`
	Warnings      []string  `json:"warnings,omitempty"`
}

// Staged returns the number of staging records written.
func (s *PassSummary) Staged() int {
	return s.StagedNew + s.StagedChanged + s.StagedDeleted
}

// CountStaged increments the counter of the given classification.
func (s *PassSummary) CountStaged(c reconcile.Classification) {
	switch c {
	case reconcile.ClassNew:
		s.StagedNew++
	case reconcile.ClassChanged:
		s.StagedChanged++
	case reconcile.ClassDeleted:
		s.StagedDeleted++
	}
}

// ApplyTo copies the counts onto a job row.
func (s *PassSummary) ApplyTo(job *HarvestJob) {
	job.StagedNew = s.StagedNew
	job.StagedChanged = s.StagedChanged
	job.StagedDeleted = s.StagedDeleted
	job.Resolved = s.Resolved
	job.Unchanged = s.Unchanged
	job.Failed = s.Failed
}
