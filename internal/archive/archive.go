// Package archive stores the scraped ledger text in Cloud Storage so parse
// drift can be replayed offline.
package archive

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Archiver saves a run's page text and returns where it went.
type Archiver interface {
	Save(ctx context.Context, runID string, at time.Time, text string) (string, error)
}

// Noop discards snapshots.
type Noop struct{}

func (Noop) Save(context.Context, string, time.Time, string) (string, error) { return "", nil }

// GCSArchiver writes snapshots to a bucket. Without a credentials file it
// uses Application Default Credentials.
type GCSArchiver struct {
	bucket          string
	credentialsFile string
}

func NewGCSArchiver(bucket, credentialsFile string) *GCSArchiver {
	return &GCSArchiver{bucket: bucket, credentialsFile: credentialsFile}
}

func (a *GCSArchiver) client(ctx context.Context) (*storage.Client, error) {
	opts := []option.ClientOption{option.WithUserAgent("redeban-reporter")}
	if a.credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(a.credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return client, nil
}

// ObjectName is snapshots/YYYY/MM/DD/<runID>.txt, dated in at's location.
func ObjectName(runID string, at time.Time) string {
	return path.Join("snapshots", at.Format("2006/01/02"), runID+".txt")
}

// Save uploads text and returns its gs:// URI.
func (a *GCSArchiver) Save(ctx context.Context, runID string, at time.Time, text string) (string, error) {
	client, err := a.client(ctx)
	if err != nil {
		return "", fmt.Errorf("archive.Save: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	name := ObjectName(runID, at)
	w := client.Bucket(a.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "text/plain; charset=utf-8"

	if _, err := io.Copy(w, strings.NewReader(text)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("archive.Save: copy to writer: %w", err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("archive.Save: finalize upload: %w", err)
	}

	return "gs://" + a.bucket + "/" + name, nil
}

// Fetch downloads a snapshot by its gs:// URI.
func (a *GCSArchiver) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, fmt.Errorf("archive.Fetch: %w", err)
	}

	client, err := a.client(ctx)
	if err != nil {
		return nil, fmt.Errorf("archive.Fetch: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("archive.Fetch: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("archive.Fetch: reading bytes: %w", err)
	}
	return data, nil
}

// ParseURI splits gs://bucket/object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}
