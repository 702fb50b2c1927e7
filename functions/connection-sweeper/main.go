package main

import (
	"log"
	"os"

	udagramcli "github.com/AmbienceDigitals/udagram-go/udagram-cli"
	udagramcron "github.com/AmbienceDigitals/udagram-go/udagram-cron"
	udagramddb "github.com/AmbienceDigitals/udagram-go/udagram-ddb"
	udagramws "github.com/AmbienceDigitals/udagram-go/udagram-ws"
	"github.com/AmbienceDigitals/udagram-go/udagram-ws/connectiondao"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/urfave/cli/v2"
)

var service = udagramcli.NewService("connection-sweeper")

func main() {
	app := udagramcli.App(
		service,
		action,
		udagramcli.Flags(
			udagramcli.CommonFlags,
			udagramddb.DDBFlags,
			udagramws.WSFlags,
			udagramcron.CronFlags,
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

	connections := connectiondao.New(api, udagramws.ConnectionsTable())
	logger := udagramcli.Logger(service)
	logger.Info().Str("table", connections.TableName()).Msg("using connections table")

	sweeper := &udagramws.Sweeper{
		Connections:     connections,
		Prober:          udagramws.NewGateway(sess, udagramws.WSOpts.Endpoint),
		Logger:          logger,
		Metrics:         udagramcli.NewMetrics(service, cloudwatch.New(sess)),
		Concurrency:     udagramws.WSOpts.Concurrency,
		Timeout:         udagramws.WSOpts.DeliveryTimeout,
		RegistryTimeout: udagramws.WSOpts.RegistryTimeout,
	}

	return udagramcron.NewHandler(service, sweeper.RunOnce).Start()
}
