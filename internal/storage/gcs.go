package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"
)

// GCSStore keeps blobs in a Google Cloud Storage bucket.
type GCSStore struct {
	svc    *gcs.Service
	bucket string
}

var _ BlobStore = (*GCSStore)(nil)

// NewGCSStore creates a store for bucket. Without a credentials file the
// application default credentials are used.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string, opts ...option.ClientOption) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("gcs bucket name is required")
	}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := gcs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs service: %w", err)
	}
	return &GCSStore{svc: svc, bucket: bucket}, nil
}

func (s *GCSStore) Save(ctx context.Context, key string, r io.Reader, contentType string) error {
	obj := &gcs.Object{Name: key, ContentType: contentType}
	call := s.svc.Objects.Insert(s.bucket, obj).Context(ctx)
	if contentType != "" {
		call = call.Media(r, googleapi.ContentType(contentType))
	} else {
		call = call.Media(r)
	}
	if _, err := call.Do(); err != nil {
		return fmt.Errorf("upload gs://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.svc.Objects.Delete(s.bucket, key).Context(ctx).Do()
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return ErrObjectNotFound
	}
	return fmt.Errorf("delete gs://%s/%s: %w", s.bucket, key, err)
}

func (s *GCSStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return "https://storage.googleapis.com/" + s.bucket + "/" + (&url.URL{Path: key}).EscapedPath()
}
