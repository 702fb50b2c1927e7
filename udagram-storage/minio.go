package udagramstorage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig contains the information required to talk to an S3-compatible
// endpoint.
type MinioConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// MinioStore stores objects through the MinIO client, for local and
// S3-compatible deployments.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinio(cfg MinioConfig, bucket string) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

func (m *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	object, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, &ReadError{Bucket: m.bucket, Key: key, Err: m.classify(err)}
	}
	defer object.Close()

	// GetObject is lazy; errors such as a missing key surface on the first read
	data, err := io.ReadAll(object)
	if err != nil {
		return nil, &ReadError{Bucket: m.bucket, Key: key, Err: m.classify(err)}
	}
	return data, nil
}

func (m *MinioStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return &WriteError{Bucket: m.bucket, Key: key, Err: err}
	}
	return nil
}

func (m *MinioStore) classify(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
