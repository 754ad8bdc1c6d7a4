// Package objectstore mirrors enrichment-discovered article/post images
// into durable object storage so the served URLs don't depend on a
// third-party origin staying reachable. It implements dedup.ImageUploader.
package objectstore

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store uploads images to an S3-compatible bucket via minio-go. A zero
// Store (no client configured) is a valid no-op uploader: Upload returns
// the original URL unchanged, matching the "degrade, don't fail the run"
// contract used throughout this pipeline's adapters.
type Store struct {
	client *minio.Client
	bucket string
	http   *http.Client
}

// Config names the endpoint and credentials for the object store.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// New constructs a Store. An empty Endpoint disables uploads: the returned
// Store's Upload always returns the source URL unchanged.
func New(cfg Config) (*Store, error) {
	if cfg.Endpoint == "" {
		return &Store{}, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("constructing object store client: %w", err)
	}

	return &Store{
		client: client,
		bucket: cfg.Bucket,
		http:   &http.Client{Timeout: 20 * time.Second},
	}, nil
}

// EnsureBucket creates the configured bucket if it doesn't already exist.
// Safe to call on every startup.
func (s *Store) EnsureBucket(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("creating bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Upload downloads sourceURL and re-uploads it under folder/<sha1>.<ext>,
// returning the object store's own URL. On any failure it falls back to
// returning sourceURL unchanged — a failed mirror should never block
// enrichment of the rest of a batch.
func (s *Store) Upload(ctx context.Context, folder string, sourceURL string) (string, error) {
	if s.client == nil || sourceURL == "" {
		return sourceURL, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return sourceURL, nil
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return sourceURL, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return sourceURL, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return sourceURL, nil
	}

	objectName := folder + objectKey(sourceURL, resp.Header.Get("Content-Type"))
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return sourceURL, nil
	}

	scheme := "https"
	if !s.secure() {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.client.EndpointURL().Host, s.bucket, objectName), nil
}

func (s *Store) secure() bool {
	return s.client.EndpointURL().Scheme == "https"
}

func objectKey(sourceURL, contentType string) string {
	sum := sha1.Sum([]byte(sourceURL))
	hash := hex.EncodeToString(sum[:])

	ext := path.Ext(strings.SplitN(sourceURL, "?", 2)[0])
	if ext == "" {
		ext = extFromContentType(contentType)
	}
	return hash + ext
}

func extFromContentType(contentType string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return ".png"
	case strings.Contains(contentType, "gif"):
		return ".gif"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	default:
		return ".jpg"
	}
}
