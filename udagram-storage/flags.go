package udagramstorage

import (
	"errors"
	"fmt"
	"time"

	udagramcli "github.com/AmbienceDigitals/udagram-go/udagram-cli"
	udagramsecret "github.com/AmbienceDigitals/udagram-go/udagram-secret"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/urfave/cli/v2"
)

// ErrProcessLocal is returned by OpenShared for a provider whose objects are
// invisible to other processes.
var ErrProcessLocal = errors.New("memory provider is process-local")

var StorageOpts struct {
	Provider         string
	ImagesBucket     string
	ThumbnailsBucket string
	Endpoint         string
	Region           string
	AccessKey        string
	SecretKey        string
	Secret           string
	UseSSL           bool
	Timeout          time.Duration
}

var ProviderFlag = udagramcli.StringFlag("storage-provider", "Object store provider: s3, minio or memory (memory is process-local and only usable by upload-api)", &StorageOpts.Provider, "s3")
var ImagesBucketFlag = udagramcli.StringFlag("images-bucket", "The bucket original images are uploaded to", &StorageOpts.ImagesBucket)
var ThumbnailsBucketFlag = udagramcli.StringFlag("thumbnails-bucket", "The bucket thumbnails are written to", &StorageOpts.ThumbnailsBucket)
var EndpointFlag = udagramcli.StringFlag("storage-endpoint", "The S3-compatible endpoint, when using the minio provider", &StorageOpts.Endpoint, "localhost:9000")
var RegionFlag = udagramcli.StringFlag("storage-region", "The region of the S3-compatible endpoint", &StorageOpts.Region, "us-east-1")
var AccessKeyFlag = udagramcli.StringFlag("storage-access-key", "Access key for the minio provider", &StorageOpts.AccessKey)
var SecretKeyFlag = udagramcli.StringFlag("storage-secret-key", "Secret key for the minio provider", &StorageOpts.SecretKey)
var SecretFlag = udagramcli.StringFlag("storage-secret", "Secrets Manager secret holding {\"accessKey\",\"secretKey\"} for the minio provider", &StorageOpts.Secret)
var UseSSLFlag = udagramcli.BoolFlag("storage-use-ssl", "Use TLS for the minio provider", &StorageOpts.UseSSL)
var TimeoutFlag = udagramcli.DurationFlag("storage-timeout", "Timeout for a single object store call", &StorageOpts.Timeout, 30*time.Second)

var StorageFlags = []cli.Flag{
	ProviderFlag,
	ImagesBucketFlag,
	ThumbnailsBucketFlag,
	EndpointFlag,
	RegionFlag,
	AccessKeyFlag,
	SecretKeyFlag,
	SecretFlag,
	UseSSLFlag,
	TimeoutFlag,
}

// Open returns a Store for bucket using the provider selected by StorageOpts.
func Open(s *session.Session, bucket string) (Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("no bucket configured for %v provider", StorageOpts.Provider)
	}

	switch StorageOpts.Provider {
	case "", "s3":
		return NewS3(s3.New(s), bucket), nil

	case "minio":
		cfg := MinioConfig{
			Endpoint:  StorageOpts.Endpoint,
			Region:    StorageOpts.Region,
			AccessKey: StorageOpts.AccessKey,
			SecretKey: StorageOpts.SecretKey,
			UseSSL:    StorageOpts.UseSSL,
		}
		if StorageOpts.Secret != "" {
			creds, err := udagramsecret.LoadStorageCredentials(s, StorageOpts.Secret)
			if err != nil {
				return nil, err
			}
			cfg.AccessKey, cfg.SecretKey = creds.AccessKey, creds.SecretKey
		}
		return NewMinio(cfg, bucket)

	case "memory":
		return NewMemory(bucket), nil

	default:
		return nil, fmt.Errorf("unsupported object store provider: %v", StorageOpts.Provider)
	}
}

// OpenShared is Open for binaries that read objects written by another
// process. The memory provider is rejected since its store starts empty.
func OpenShared(s *session.Session, bucket string) (Store, error) {
	if StorageOpts.Provider == "memory" {
		return nil, fmt.Errorf("%w: use s3 or minio, or run the pipeline in-process with upload-api", ErrProcessLocal)
	}
	return Open(s, bucket)
}
