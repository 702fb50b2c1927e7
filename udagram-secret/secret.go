// Package udagramsecret loads credentials kept in AWS Secrets Manager.
package udagramsecret

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/savaki/secrets"
)

var ErrIncompleteCredentials = errors.New("incomplete credentials")

// StorageCredentials holds the access key pair for an S3-compatible object
// store, stored as {"accessKey": ..., "secretKey": ...}.
type StorageCredentials struct {
	AccessKey string `json:"accessKey"`
	SecretKey string `json:"secretKey"`
}

func (c StorageCredentials) Validate() error {
	switch {
	case c.AccessKey == "":
		return fmt.Errorf("%w: missing accessKey", ErrIncompleteCredentials)
	case c.SecretKey == "":
		return fmt.Errorf("%w: missing secretKey", ErrIncompleteCredentials)
	}
	return nil
}

// LoadStorageCredentials reads and validates the object store credentials
// named secretName.
func LoadStorageCredentials(s *session.Session, secretName string) (StorageCredentials, error) {
	var creds StorageCredentials
	if err := decode(s, secretName, &creds); err != nil {
		return StorageCredentials{}, err
	}
	if err := creds.Validate(); err != nil {
		return StorageCredentials{}, fmt.Errorf("secret %v: %w", secretName, err)
	}
	return creds, nil
}

func decode(s *session.Session, secretName string, v interface{}) error {
	manager, err := secrets.NewManager(secrets.WithSecretsManager(secretsmanager.New(s)))
	if err != nil {
		return fmt.Errorf("unable to initialize secrets manager: %w", err)
	}
	if err := manager.Decode(secretName, v); err != nil {
		return fmt.Errorf("unable to load secret %v: %w", secretName, err)
	}
	return nil
}
