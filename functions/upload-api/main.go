package main

import (
	"log"
	"os"
	"time"

	udagramcli "github.com/AmbienceDigitals/udagram-go/udagram-cli"
	udagramevents "github.com/AmbienceDigitals/udagram-go/udagram-events"
	"github.com/AmbienceDigitals/udagram-go/udagram-events/publish"
	udagramrest "github.com/AmbienceDigitals/udagram-go/udagram-rest"
	udagramstorage "github.com/AmbienceDigitals/udagram-go/udagram-storage"
	udagramthumbnail "github.com/AmbienceDigitals/udagram-go/udagram-thumbnail"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/go-chi/chi/v5"
	"github.com/urfave/cli/v2"
)

var opts struct {
	NoPublish           bool
	MaxUploadSize       int
	SignedURLExpiration time.Duration
}

var service = udagramcli.NewService("upload-api")

func main() {
	app := udagramcli.App(
		service,
		action,
		udagramcli.Flags(
			udagramcli.CommonFlags,
			[]cli.Flag{
				udagramcli.PortFlag(3000),
				udagramevents.TopicArnFlag,
				udagramcli.BoolFlag("no-publish", "do not announce uploads, the bucket notifies on its own", &opts.NoPublish),
				udagramcli.IntFlag("max-upload-size", "largest accepted image, in bytes", &opts.MaxUploadSize, udagramrest.DefaultMaxUploadSize),
				udagramcli.DurationFlag("signed-url-expiration", "how long a presigned upload url stays valid", &opts.SignedURLExpiration, udagramrest.DefaultSignedURLExpiration),
			},
			udagramstorage.StorageFlags,
			udagramthumbnail.ThumbnailFlags,
		)...,
	)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatalln(err)
	}
}

func action(_ *cli.Context) error {
	sess := session.Must(session.NewSession(aws.NewConfig()))

	images, err := udagramstorage.Open(sess, udagramstorage.StorageOpts.ImagesBucket)
	if err != nil {
		return err
	}

	publisher, err := newPublisher(sess, images)
	if err != nil {
		return err
	}

	uploads := &udagramrest.Uploads{
		Images:        images,
		Bucket:        udagramstorage.StorageOpts.ImagesBucket,
		Publisher:     publisher,
		MaxUploadSize: int64(opts.MaxUploadSize),

		SignedURLExpiration: opts.SignedURLExpiration,
	}
	// presigned uploads need a bucket that signs urls, i.e. the s3 provider
	if signer, ok := images.(udagramrest.URLSigner); ok {
		uploads.Signer = signer
	}

	routes := udagramrest.Middlewares(service, chi.NewRouter())
	uploads.Routes(routes)

	return udagramrest.Webserver(service, routes)
}

// newPublisher announces uploads on the SNS topic when one is configured.
// Otherwise uploads run through an in-process router that builds thumbnails.
func newPublisher(sess *session.Session, images udagramstorage.Store) (udagramrest.Publisher, error) {
	switch {
	case opts.NoPublish:
		return nil, nil

	case udagramevents.EventOpts.TopicArn != "":
		return publish.New(sns.New(sess), udagramevents.EventOpts.TopicArn), nil

	default:
		thumbnails, err := udagramstorage.Open(sess, udagramstorage.StorageOpts.ThumbnailsBucket)
		if err != nil {
			return nil, err
		}
		router := udagramevents.NewRouter(service)
		router.Subscribe("thumbnail", &udagramthumbnail.Transformer{
			Images:     images,
			Thumbnails: thumbnails,
			Logger:     router.Logger,
			Quality:    udagramthumbnail.ThumbnailOpts.Quality,
			MaxPixels:  int64(udagramthumbnail.ThumbnailOpts.MaxPixels),
			Timeout:    udagramstorage.StorageOpts.Timeout,
			Dry:        udagramcli.CommonOpts.Dry,
		})
		return router, nil
	}
}
