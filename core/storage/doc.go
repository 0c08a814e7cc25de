// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client so the harvester can archive the raw catalog
// response of every harvest job. The archive is an audit trail: it lets an
// operator see exactly what the remote catalog returned on a given pass.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (see core/storage/mocks).
//
// # Archive
//
//   - Put: uploads a job's raw response to snapshots/<source>/<job>.json.
//   - Get: reads a snapshot back.
//   - Remove / RemoveSource: drop snapshots when job history or a source is cleared.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	archive := storage.NewArchive(client, cfg.Storage.Bucket)
//	err = archive.Put(ctx, sourceID, jobID, raw)
package storage
