package udagramws

import (
	"time"

	udagramcli "github.com/AmbienceDigitals/udagram-go/udagram-cli"
	"github.com/AmbienceDigitals/udagram-go/udagram-ws/connectiondao"
	"github.com/urfave/cli/v2"
)

var WSOpts struct {
	ConnectionsTable string
	Endpoint         string
	Concurrency      int
	DeliveryTimeout  time.Duration
	RegistryTimeout  time.Duration
	ConnTTL          time.Duration
}

var (
	ConnectionsTableFlag = udagramcli.StringFlag("connections-table", "dynamodb table holding realtime connections, defaults to {env}-udagram--ws-connections", &WSOpts.ConnectionsTable)
	EndpointFlag         = udagramcli.StringFlag("ws-endpoint", "management api endpoint for connections stored without one", &WSOpts.Endpoint)
	ConcurrencyFlag      = udagramcli.IntFlag("concurrency", "max concurrent deliveries", &WSOpts.Concurrency, DefaultConcurrency)
	DeliveryTimeoutFlag  = udagramcli.DurationFlag("delivery-timeout", "timeout for a single delivery", &WSOpts.DeliveryTimeout, DefaultDeliveryTimeout)
	RegistryTimeoutFlag  = udagramcli.DurationFlag("registry-timeout", "timeout for a single registry call", &WSOpts.RegistryTimeout, DefaultRegistryTimeout)
	ConnTTLFlag          = udagramcli.DurationFlag("connection-ttl", "how long a connection record lives without a disconnect", &WSOpts.ConnTTL, 2*time.Hour)
)

var WSFlags = []cli.Flag{
	ConnectionsTableFlag,
	EndpointFlag,
	ConcurrencyFlag,
	DeliveryTimeoutFlag,
	RegistryTimeoutFlag,
	ConnTTLFlag,
}

// ConnectionsTable returns the configured table name, or the one derived from env.
func ConnectionsTable() string {
	if WSOpts.ConnectionsTable != "" {
		return WSOpts.ConnectionsTable
	}
	return connectiondao.TableName(udagramcli.CommonOpts.Env)
}
