package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// File is one file blob queued for upload.
type File struct {
	Name        string
	Content     io.Reader
	ContentType string
}

// UploadError marks a failed file upload. It aborts the whole batch: no URL
// list is returned for a batch that failed partway.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string { return fmt.Sprintf("upload %q: %v", e.Key, e.Err) }
func (e *UploadError) Unwrap() error { return e.Err }

// Uploader uploads file batches to one bucket, sequentially and in order.
//
// Each file gets a timestamp-prefixed key derived from its original name, so
// re-uploads of the same filename do not collide. A batch is all-or-nothing:
// on any failure the URLs of files already uploaded in that batch are
// withheld and the staged objects are removed best-effort.
type Uploader struct {
	store  ObjectStore
	bucket string
	logger *slog.Logger
	now    func() time.Time
}

// NewUploader returns an Uploader writing into bucket.
func NewUploader(store ObjectStore, bucket string, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{store: store, bucket: bucket, logger: logger, now: time.Now}
}

// Upload uploads files one by one and returns their public URLs in input
// order. An empty batch is a no-op returning an empty slice.
func (u *Uploader) Upload(ctx context.Context, files []File) ([]string, error) {
	urls := make([]string, 0, len(files))
	staged := make([]string, 0, len(files))

	for _, f := range files {
		key := fmt.Sprintf("%d_%s", u.now().UnixMilli(), sanitizeName(f.Name))
		if err := u.store.Put(ctx, u.bucket, key, f.Content, f.ContentType); err != nil {
			u.cleanup(ctx, staged)
			return nil, &UploadError{Key: key, Err: err}
		}
		staged = append(staged, key)
		urls = append(urls, u.store.PublicURL(u.bucket, key))
	}

	return urls, nil
}

// cleanup removes objects staged by a failed batch. Failures are logged only:
// a leftover object is an accepted inconsistency, a partial URL list is not.
func (u *Uploader) cleanup(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := u.store.Remove(ctx, u.bucket, key); err != nil {
			u.logger.Warn("staged upload cleanup failed", "bucket", u.bucket, "key", key, "err", err)
		}
	}
}

// sanitizeName strips path separators so a client-supplied filename cannot
// escape the bucket prefix.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "/", "_")
	if name == "" {
		name = "file"
	}
	return name
}
