package export

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	errs "github.com/matzehuels/menuboard/pkg/errors"
	"github.com/matzehuels/menuboard/pkg/observability"
)

// Uploader publishes an artifact and returns a URL it can be fetched from.
type Uploader interface {
	Upload(ctx context.Context, a Artifact) (string, error)
}

// MinIOConfig configures a [MinIOUploader].
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// URLExpiry is the lifetime of the returned presigned URL.
	URLExpiry time.Duration
}

// MinIOUploader uploads artifacts to an S3-compatible bucket.
type MinIOUploader struct {
	client *minio.Client
	cfg    MinIOConfig

	mu    sync.Mutex
	ready bool
}

// NewMinIOUploader creates an uploader. The bucket is created on first upload.
func NewMinIOUploader(cfg MinIOConfig) (*MinIOUploader, error) {
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = 24 * time.Hour
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "create minio client for %s", cfg.Endpoint)
	}
	return &MinIOUploader{client: client, cfg: cfg}, nil
}

// Upload implements Uploader.
func (u *MinIOUploader) Upload(ctx context.Context, a Artifact) (string, error) {
	url, err := u.upload(ctx, a)
	observability.Store().OnUpload(ctx, "minio", len(a.Data), err)
	return url, err
}

func (u *MinIOUploader) upload(ctx context.Context, a Artifact) (string, error) {
	if err := u.ensureBucket(ctx); err != nil {
		return "", err
	}

	_, err := u.client.PutObject(ctx, u.cfg.Bucket, a.Name, bytes.NewReader(a.Data), int64(len(a.Data)),
		minio.PutObjectOptions{ContentType: a.ContentType})
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeUpstream, err, "upload %s", a.Name)
	}

	signed, err := u.client.PresignedGetObject(ctx, u.cfg.Bucket, a.Name, u.cfg.URLExpiry, nil)
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeUpstream, err, "presign %s", a.Name)
	}
	return signed.String(), nil
}

// ensureBucket creates the bucket once. Failures are not remembered, so the
// next upload tries again.
func (u *MinIOUploader) ensureBucket(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.ready {
		return nil
	}

	exists, err := u.client.BucketExists(ctx, u.cfg.Bucket)
	if err != nil {
		return errs.Wrap(errs.ErrCodeUpstream, err, "check bucket %s", u.cfg.Bucket)
	}
	if !exists {
		err = u.client.MakeBucket(ctx, u.cfg.Bucket, minio.MakeBucketOptions{Region: u.cfg.Region})
		if err != nil {
			return errs.Wrap(errs.ErrCodeUpstream, err, "create bucket %s", u.cfg.Bucket)
		}
	}
	u.ready = true
	return nil
}
