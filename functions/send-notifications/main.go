package main

import (
	"log"
	"os"

	udagramcli "github.com/AmbienceDigitals/udagram-go/udagram-cli"
	udagramddb "github.com/AmbienceDigitals/udagram-go/udagram-ddb"
	udagramevents "github.com/AmbienceDigitals/udagram-go/udagram-events"
	udagramws "github.com/AmbienceDigitals/udagram-go/udagram-ws"
	"github.com/AmbienceDigitals/udagram-go/udagram-ws/connectiondao"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/urfave/cli/v2"
)

var service = udagramcli.NewService("send-notifications")

func main() {
	app := udagramcli.App(
		service,
		action,
		udagramcli.Flags(
			udagramcli.CommonFlags,
			udagramddb.DDBFlags,
			udagramws.WSFlags,
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
	api, err := udagramddb.DynamoDBAPI(sess)
	if err != nil {
		return err
	}

	metrics := udagramcli.NewMetrics(service, cloudwatch.New(sess))
	router := udagramevents.NewRouter(service)
	connections := connectiondao.New(api, udagramws.ConnectionsTable())
	router.Logger.Info().Str("table", connections.TableName()).Msg("using connections table")

	notifier := &udagramws.Notifier{
		Connections:     connections,
		Poster:          udagramws.NewGateway(sess, udagramws.WSOpts.Endpoint),
		Logger:          router.Logger,
		Metrics:         metrics,
		Concurrency:     udagramws.WSOpts.Concurrency,
		Timeout:         udagramws.WSOpts.DeliveryTimeout,
		RegistryTimeout: udagramws.WSOpts.RegistryTimeout,
	}

	return router.Subscribe("notifier", notifier).Start()
}
