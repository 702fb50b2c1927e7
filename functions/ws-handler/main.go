package main

import (
	"fmt"
	"log"
	"os"

	udagramcli "github.com/AmbienceDigitals/udagram-go/udagram-cli"
	udagramddb "github.com/AmbienceDigitals/udagram-go/udagram-ddb"
	udagramws "github.com/AmbienceDigitals/udagram-go/udagram-ws"
	"github.com/AmbienceDigitals/udagram-go/udagram-ws/connectiondao"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/urfave/cli/v2"
)

var service = udagramcli.NewService("ws-handler")

func main() {
	app := udagramcli.App(
		service,
		action,
		udagramcli.Flags(
			udagramcli.CommonFlags,
			udagramddb.DDBFlags,
			udagramws.WSFlags,
		)...,
	)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatalln(err)
	}
}

func action(_ *cli.Context) error {
	if udagramcli.CommonOpts.Console {
		return fmt.Errorf("%v only runs behind an API Gateway websocket api", service.Name)
	}

	sess := session.Must(session.NewSession(aws.NewConfig()))
	api, err := udagramddb.DynamoDBAPI(sess)
	if err != nil {
		return err
	}

	connections := connectiondao.New(api, udagramws.ConnectionsTable())
	logger := udagramcli.Logger(service)
	logger.Info().Str("table", connections.TableName()).Msg("using connections table")

	handler := &udagramws.Handler{
		Connections:     connections,
		Poster:          udagramws.NewGateway(sess, udagramws.WSOpts.Endpoint),
		Logger:          logger,
		ConnTTL:         udagramws.WSOpts.ConnTTL,
		RegistryTimeout: udagramws.WSOpts.RegistryTimeout,
	}

	lambda.Start(handler.HandleEvent)
	return nil
}
