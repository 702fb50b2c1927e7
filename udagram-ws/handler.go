package udagramws

import (
	"context"
	"fmt"
	"time"

	"github.com/AmbienceDigitals/udagram-go/udagram-ws/connectiondao"
	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
)

// Handler handles WebSocket API Gateway events. It keeps the connection
// registry in step with session open and close.
type Handler struct {
	Connections     Registry
	Poster          Poster
	Logger          zerolog.Logger
	ConnTTL         time.Duration // TTL for connection records (default 2 hours)
	RegistryTimeout time.Duration // per registry call (default 5s)
	Now             func() time.Time
}

// HandleEvent routes an API Gateway WebSocket event to the appropriate handler.
func (h *Handler) HandleEvent(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := h.Logger.With().
		Str("connection_id", req.RequestContext.ConnectionID).
		Str("route", req.RequestContext.RouteKey).
		Logger()

	switch req.RequestContext.RouteKey {
	case "$connect":
		return h.handleConnect(ctx, logger, req)
	case "$disconnect":
		return h.handleDisconnect(ctx, logger, req)
	case "$default":
		return h.handleMessage(ctx, logger, req)
	default:
		logger.Warn().Msg("unknown route")
		return events.APIGatewayProxyResponse{StatusCode: 400}, nil
	}
}

func (h *Handler) handleConnect(ctx context.Context, logger zerolog.Logger, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	ttl := h.ConnTTL
	if ttl == 0 {
		ttl = 2 * time.Hour
	}

	conn := connectiondao.NewConnection(req.RequestContext.ConnectionID, callbackEndpoint(req), h.now(), ttl)

	ctx, cancel := context.WithTimeout(ctx, orDefault(h.RegistryTimeout, DefaultRegistryTimeout))
	defer cancel()

	if err := h.Connections.Add(ctx, conn); err != nil {
		logger.Error().Err(err).Msg("failed to store connection")
		return events.APIGatewayProxyResponse{StatusCode: 500}, nil
	}

	logger.Info().Msg("connection established")
	return events.APIGatewayProxyResponse{StatusCode: 200}, nil
}

func (h *Handler) handleDisconnect(ctx context.Context, logger zerolog.Logger, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, orDefault(h.RegistryTimeout, DefaultRegistryTimeout))
	defer cancel()

	if err := h.Connections.Remove(ctx, req.RequestContext.ConnectionID); err != nil {
		logger.Error().Err(err).Msg("failed to delete connection")
	}

	logger.Info().Msg("connection closed")
	return events.APIGatewayProxyResponse{StatusCode: 200}, nil
}

func (h *Handler) handleMessage(ctx context.Context, logger zerolog.Logger, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	msg, err := ParseMessage(req.Body)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid message")
		return events.APIGatewayProxyResponse{StatusCode: 400}, nil
	}

	switch msg.Type {
	case MsgPing:
		if err := h.Poster.PostToConnection(ctx, callbackEndpoint(req), req.RequestContext.ConnectionID, PongMessage()); err != nil {
			logger.Error().Err(err).Msg("failed to send pong")
		}
	default:
		logger.Debug().Str("type", msg.Type).Msg("ignoring message")
	}
	return events.APIGatewayProxyResponse{StatusCode: 200}, nil
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// callbackEndpoint returns the management API url for the connection's stage,
// or "" when the request carries no domain.
func callbackEndpoint(req events.APIGatewayWebsocketProxyRequest) string {
	if req.RequestContext.DomainName == "" {
		return ""
	}
	return fmt.Sprintf("https://%s/%s", req.RequestContext.DomainName, req.RequestContext.Stage)
}
