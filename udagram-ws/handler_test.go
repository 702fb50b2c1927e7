package udagramws

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
	"github.com/tj/assert"
)

func wsRequest(route, connectionID, body string) events.APIGatewayWebsocketProxyRequest {
	return events.APIGatewayWebsocketProxyRequest{
		Body: body,
		RequestContext: events.APIGatewayWebsocketProxyRequestContext{
			RouteKey:     route,
			ConnectionID: connectionID,
			DomainName:   "abc123.execute-api.us-east-1.amazonaws.com",
			Stage:        "dev",
		},
	}
}

func TestHandler(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	newHandler := func() (*Handler, *fakeRegistry, *fakePoster) {
		registry := newFakeRegistry()
		poster := newFakePoster()
		return &Handler{
			Connections: registry,
			Poster:      poster,
			Logger:      zerolog.Nop(),
			Now:         func() time.Time { return now },
		}, registry, poster
	}

	t.Run("connect", func(t *testing.T) {
		h, registry, _ := newHandler()

		resp, err := h.HandleEvent(ctx, wsRequest("$connect", "A", ""))
		assert.Nil(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		conn, ok := registry.connections["A"]
		assert.True(t, ok)
		assert.Equal(t, "https://abc123.execute-api.us-east-1.amazonaws.com/dev", conn.Endpoint)
		assert.Equal(t, now.Add(2*time.Hour).Unix(), conn.TTL)

		established, err := conn.Established()
		assert.Nil(t, err)
		assert.True(t, now.Equal(established))
	})

	t.Run("connect registry failure", func(t *testing.T) {
		h, registry, _ := newHandler()
		registry.addErr = fmt.Errorf("boom")

		resp, err := h.HandleEvent(ctx, wsRequest("$connect", "A", ""))
		assert.Nil(t, err)
		assert.Equal(t, 500, resp.StatusCode)
	})

	t.Run("disconnect", func(t *testing.T) {
		h, registry, _ := newHandler()
		_, _ = h.HandleEvent(ctx, wsRequest("$connect", "A", ""))
		_, _ = h.HandleEvent(ctx, wsRequest("$connect", "B", ""))

		resp, err := h.HandleEvent(ctx, wsRequest("$disconnect", "A", ""))
		assert.Nil(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, []string{"B"}, registry.IDs())

		// unknown id
		resp, err = h.HandleEvent(ctx, wsRequest("$disconnect", "Z", ""))
		assert.Nil(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, []string{"B"}, registry.IDs())
	})

	t.Run("disconnect registry failure", func(t *testing.T) {
		h, registry, _ := newHandler()
		registry.removeErr = fmt.Errorf("boom")

		resp, err := h.HandleEvent(ctx, wsRequest("$disconnect", "A", ""))
		assert.Nil(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("ping", func(t *testing.T) {
		h, _, poster := newHandler()

		resp, err := h.HandleEvent(ctx, wsRequest("$default", "A", `{"type":"ping"}`))
		assert.Nil(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, []string{`{"type":"pong"}`}, poster.received["A"])
	})

	t.Run("other message ignored", func(t *testing.T) {
		h, _, poster := newHandler()

		resp, err := h.HandleEvent(ctx, wsRequest("$default", "A", `{"type":"hello"}`))
		assert.Nil(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Empty(t, poster.attempts)
	})

	t.Run("invalid message", func(t *testing.T) {
		h, _, _ := newHandler()

		resp, err := h.HandleEvent(ctx, wsRequest("$default", "A", `not json`))
		assert.Nil(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})

	t.Run("unknown route", func(t *testing.T) {
		h, _, _ := newHandler()

		resp, err := h.HandleEvent(ctx, wsRequest("upload", "A", ""))
		assert.Nil(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})
}
