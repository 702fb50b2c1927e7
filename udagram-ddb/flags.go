package udagramddb

import (
	udagramcli "github.com/AmbienceDigitals/udagram-go/udagram-cli"
	"github.com/urfave/cli/v2"
)

var DDBOpts struct {
	DAXCluster string
	Endpoint   string
}

var DAXClusterFlag = udagramcli.StringFlag("dax-cluster", "The DAX cluster to connect to", &DDBOpts.DAXCluster)
var EndpointFlag = udagramcli.StringFlag("dynamodb-endpoint", "Override the DynamoDB endpoint, e.g. http://localhost:8000 for DynamoDB local", &DDBOpts.Endpoint)

var DDBFlags = []cli.Flag{
	DAXClusterFlag,
	EndpointFlag,
}
