package udagramws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi/apigatewaymanagementapiiface"
)

// Poster delivers a payload to one realtime connection.
type Poster interface {
	PostToConnection(ctx context.Context, endpoint, connectionID string, data []byte) error
}

// Prober checks whether a realtime connection still exists.
type Prober interface {
	GetConnection(ctx context.Context, endpoint, connectionID string) error
}

// Gateway talks to the API Gateway Management API. Connections recorded
// without an endpoint are reached through the default endpoint.
type Gateway struct {
	session         *session.Session
	defaultEndpoint string

	// clients caches API Gateway Management API clients by endpoint
	mu      sync.RWMutex
	clients map[string]apigatewaymanagementapiiface.ApiGatewayManagementApiAPI
}

func NewGateway(s *session.Session, defaultEndpoint string) *Gateway {
	return &Gateway{
		session:         s,
		defaultEndpoint: defaultEndpoint,
		clients:         map[string]apigatewaymanagementapiiface.ApiGatewayManagementApiAPI{},
	}
}

func (g *Gateway) PostToConnection(ctx context.Context, endpoint, connectionID string, data []byte) error {
	client, err := g.client(endpoint)
	if err != nil {
		return err
	}
	_, err = client.PostToConnectionWithContext(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         data,
	})
	return err
}

func (g *Gateway) GetConnection(ctx context.Context, endpoint, connectionID string) error {
	client, err := g.client(endpoint)
	if err != nil {
		return err
	}
	_, err = client.GetConnectionWithContext(ctx, &apigatewaymanagementapi.GetConnectionInput{
		ConnectionId: aws.String(connectionID),
	})
	return err
}

func (g *Gateway) client(endpoint string) (apigatewaymanagementapiiface.ApiGatewayManagementApiAPI, error) {
	if endpoint == "" {
		endpoint = g.defaultEndpoint
	}
	if endpoint == "" {
		return nil, fmt.Errorf("no management api endpoint for connection")
	}

	g.mu.RLock()
	if client, ok := g.clients[endpoint]; ok {
		g.mu.RUnlock()
		return client, nil
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	// Double-check after acquiring write lock
	if client, ok := g.clients[endpoint]; ok {
		return client, nil
	}

	client := apigatewaymanagementapi.New(g.session, aws.NewConfig().WithEndpoint(endpoint))
	g.clients[endpoint] = client
	return client, nil
}

// IsRecipientGone reports whether err means the target connection no longer
// exists (GoneException, HTTP 410). It is the only transport-specific part of
// stale connection detection.
func IsRecipientGone(err error) bool {
	if err == nil {
		return false
	}

	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusGone {
		return true
	}

	var aerr awserr.Error
	if errors.As(err, &aerr) && aerr.Code() == apigatewaymanagementapi.ErrCodeGoneException {
		return true
	}
	return false
}
