package main

import (
	"log"
	"os"

	udagramcli "github.com/AmbienceDigitals/udagram-go/udagram-cli"
	udagramevents "github.com/AmbienceDigitals/udagram-go/udagram-events"
	udagramstorage "github.com/AmbienceDigitals/udagram-go/udagram-storage"
	udagramthumbnail "github.com/AmbienceDigitals/udagram-go/udagram-thumbnail"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/urfave/cli/v2"
)

var service = udagramcli.NewService("resize-image")

func main() {
	app := udagramcli.App(
		service,
		action,
		udagramcli.Flags(
			udagramcli.CommonFlags,
			udagramstorage.StorageFlags,
			udagramthumbnail.ThumbnailFlags,
			udagramevents.EventFlags,
		)...,
	)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatalln(err)
	}
}

func action(_ *cli.Context) error {
	sess := session.Must(session.NewSession(aws.NewConfig()))

	images, err := udagramstorage.OpenShared(sess, udagramstorage.StorageOpts.ImagesBucket)
	if err != nil {
		return err
	}
	thumbnails, err := udagramstorage.OpenShared(sess, udagramstorage.StorageOpts.ThumbnailsBucket)
	if err != nil {
		return err
	}

	router := udagramevents.NewRouter(service)
	transformer := &udagramthumbnail.Transformer{
		Images:     images,
		Thumbnails: thumbnails,
		Logger:     router.Logger,
		Metrics:    udagramcli.NewMetrics(service, cloudwatch.New(sess)),
		Quality:    udagramthumbnail.ThumbnailOpts.Quality,
		MaxPixels:  int64(udagramthumbnail.ThumbnailOpts.MaxPixels),
		Timeout:    udagramstorage.StorageOpts.Timeout,
		Dry:        udagramcli.CommonOpts.Dry,
	}

	return router.Subscribe("thumbnail", transformer).Start()
}
