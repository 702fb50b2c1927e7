package udagramstorage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Store stores objects in an S3 bucket.
type S3Store struct {
	api    s3iface.S3API
	bucket string
}

func NewS3(api s3iface.S3API, bucket string) *S3Store {
	return &S3Store{
		api:    api,
		bucket: bucket,
	}
}

func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	output, err := s.api.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			err = fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, &ReadError{Bucket: s.bucket, Key: key, Err: err}
	}
	defer output.Body.Close()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, &ReadError{Bucket: s.bucket, Key: key, Err: fmt.Errorf("failed to read s3 response: %w", err)}
	}
	return data, nil
}

func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.api.PutObjectWithContext(ctx, input); err != nil {
		return &WriteError{Bucket: s.bucket, Key: key, Err: err}
	}
	return nil
}

// PresignPut returns a URL a client can PUT the object body to directly,
// valid for expiry.
func (s *S3Store) PresignPut(key string, expiry time.Duration) (string, error) {
	req, _ := s.api.PutObjectRequest(&s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	url, err := req.Presign(expiry)
	if err != nil {
		return "", &WriteError{Bucket: s.bucket, Key: key, Err: fmt.Errorf("presigning put: %w", err)}
	}
	return url, nil
}

func isNoSuchKey(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code() == s3.ErrCodeNoSuchKey
	}
	return false
}
