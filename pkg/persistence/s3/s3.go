// Package s3 provides an S3-compatible object store for generated artifacts.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultRegion = "us-east-1"

var errMissingSetting = errors.New("missing s3 setting")

// Config holds the connection settings of the object store.
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ParseURL reads a Config from s3://<access key>:<secret key>@<endpoint>/<bucket>?region=<r>&ssl=<bool>.
func ParseURL(raw string) (Config, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("invalid s3 url: %w", err)
	}

	if parsed.Scheme != "s3" {
		return Config{}, fmt.Errorf("%w: %s", persistence.ErrUnsupportedStore, parsed.Scheme)
	}

	cfg := Config{
		Endpoint: parsed.Host,
		Bucket:   strings.Trim(parsed.Path, "/"),
		Region:   parsed.Query().Get("region"),
		UseSSL:   true,
	}

	if parsed.User != nil {
		cfg.AccessKey = parsed.User.Username()
		cfg.SecretKey, _ = parsed.User.Password()
	}

	if ssl := parsed.Query().Get("ssl"); ssl != "" {
		cfg.UseSSL, err = strconv.ParseBool(ssl)
		if err != nil {
			return Config{}, fmt.Errorf("invalid s3 ssl flag %q: %w", ssl, err)
		}
	}

	return cfg, nil
}

// Store implements persistence.Store on an S3-compatible bucket.
type Store struct {
	client   *minio.Client
	bucket   string
	region   string
	initOnce sync.Once
	initErr  error
}

// NewStore creates a Store. The bucket is created on first use when missing.
func NewStore(cfg Config) (*Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("%w: endpoint", errMissingSetting)
	}

	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)

	if access == "" || secret == "" {
		return nil, fmt.Errorf("%w: access key and secret key", errMissingSetting)
	}

	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("%w: bucket", errMissingSetting)
	}

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	return &Store{client: client, bucket: bucket, region: region}, nil
}

// Save uploads each file as <prefix>/<path>, where prefix is the workflow id or opts.OutputPath,
// and returns s3://<bucket>/<prefix>.
func (s *Store) Save(ctx context.Context, workflowID string, files map[string]string, opts persistence.SaveOptions) (string, error) {
	if err := persistence.CheckWorkflowID(workflowID); err != nil {
		return "", persistence.NewStoreError("Save", workflowID, "", err)
	}

	paths, err := persistence.SortedPaths(workflowID, files)
	if err != nil {
		return "", err
	}

	prefix, err := persistence.OutputLocation(workflowID, opts)
	if err != nil {
		return "", persistence.NewStoreError("Save", workflowID, opts.OutputPath, err)
	}

	if err := s.ensureBucket(ctx); err != nil {
		return "", persistence.NewStoreError("Save", workflowID, "", fmt.Errorf("failed to ensure bucket: %w", err))
	}

	for _, name := range paths {
		content := []byte(files[name])

		_, err := s.client.PutObject(ctx, s.bucket, prefix+"/"+name, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
			ContentType: contentType(name),
		})
		if err != nil {
			return "", persistence.NewStoreError("Save", workflowID, name, err)
		}
	}

	return "s3://" + s.bucket + "/" + prefix, nil
}

// HealthCheck verifies the bucket is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return persistence.NewStoreError("HealthCheck", "", s.bucket, err)
	}

	return nil
}

// Close is a no-op; the client holds no long-lived connections of its own.
func (s *Store) Close(_ context.Context) error {
	return nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err

			return
		}

		if exists {
			return
		}

		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})

	return s.initErr
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}

	return "text/plain; charset=utf-8"
}
