package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
)

// Archive stores the raw catalog responses fetched by each harvest job under
// "<prefix>/<source id>/<job id>.json".
type Archive struct {
	client Client
	bucket string
	prefix string
}

// NewArchive creates an archive writing to bucket.
func NewArchive(client Client, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket, prefix: "snapshots"}
}

// Key returns the object key for a job's snapshot.
func (a *Archive) Key(sourceID, jobID string) string {
	return path.Join(a.prefix, sourceID, jobID+".json")
}

// EnsureBucket creates the bucket if it does not exist.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Put uploads a job's raw catalog response.
func (a *Archive) Put(ctx context.Context, sourceID, jobID string, raw []byte) error {
	_, err := a.client.PutObject(
		ctx,
		a.bucket,
		a.Key(sourceID, jobID),
		bytes.NewReader(raw),
		int64(len(raw)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("failed to archive snapshot for job %s: %w", jobID, err)
	}
	return nil
}

// Get downloads a job's raw catalog response.
func (a *Archive) Get(ctx context.Context, sourceID, jobID string) ([]byte, error) {
	reader, err := a.client.GetObject(ctx, a.bucket, a.Key(sourceID, jobID), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot for job %s: %w", jobID, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot for job %s: %w", jobID, err)
	}
	return data, nil
}

// Remove deletes a single job's snapshot.
func (a *Archive) Remove(ctx context.Context, sourceID, jobID string) error {
	if err := a.client.RemoveObject(ctx, a.bucket, a.Key(sourceID, jobID), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove snapshot for job %s: %w", jobID, err)
	}
	return nil
}

// RemoveSource deletes every snapshot of a source using the batch API.
func (a *Archive) RemoveSource(ctx context.Context, sourceID string) (int, error) {
	listed := a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{
		Prefix:    path.Join(a.prefix, sourceID) + "/",
		Recursive: true,
	})

	var keys []minio.ObjectInfo
	for obj := range listed {
		if obj.Err != nil {
			return 0, fmt.Errorf("failed to list snapshots: %w", obj.Err)
		}
		keys = append(keys, obj)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	objectsCh := make(chan minio.ObjectInfo, len(keys))
	for _, obj := range keys {
		objectsCh <- obj
	}
	close(objectsCh)

	var errs []string
	for rmErr := range a.client.RemoveObjects(ctx, a.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rmErr.Err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", rmErr.ObjectName, rmErr.Err))
		}
	}
	if len(errs) > 0 {
		return len(keys) - len(errs), fmt.Errorf("batch delete had %d errors: %v", len(errs), errs)
	}
	return len(keys), nil
}
