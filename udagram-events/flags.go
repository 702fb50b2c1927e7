package udagramevents

import (
	udagramcli "github.com/AmbienceDigitals/udagram-go/udagram-cli"
	"github.com/urfave/cli/v2"
)

var EventOpts struct {
	ObjectKeys cli.StringSlice
	TopicArn   string
}

var ObjectKeyFlag = udagramcli.StringSliceFlag("object-key", "In console mode, the object keys to run through the pipeline", &EventOpts.ObjectKeys)
var TopicArnFlag = udagramcli.StringFlag("topic-arn", "The SNS topic upload notifications are published to", &EventOpts.TopicArn)

var EventFlags = []cli.Flag{
	ObjectKeyFlag,
}
