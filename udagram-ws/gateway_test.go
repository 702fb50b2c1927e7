package udagramws

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi/apigatewaymanagementapiiface"
	"github.com/tj/assert"
)

type fakeManagementAPI struct {
	apigatewaymanagementapiiface.ApiGatewayManagementApiAPI
	posted map[string][]byte
	gone   map[string]bool
}

func (f *fakeManagementAPI) PostToConnectionWithContext(_ aws.Context, input *apigatewaymanagementapi.PostToConnectionInput, _ ...request.Option) (*apigatewaymanagementapi.PostToConnectionOutput, error) {
	id := aws.StringValue(input.ConnectionId)
	if f.gone[id] {
		return nil, goneErr()
	}
	f.posted[id] = input.Data
	return &apigatewaymanagementapi.PostToConnectionOutput{}, nil
}

func (f *fakeManagementAPI) GetConnectionWithContext(_ aws.Context, input *apigatewaymanagementapi.GetConnectionInput, _ ...request.Option) (*apigatewaymanagementapi.GetConnectionOutput, error) {
	if f.gone[aws.StringValue(input.ConnectionId)] {
		return nil, goneErr()
	}
	return &apigatewaymanagementapi.GetConnectionOutput{}, nil
}

func TestGateway(t *testing.T) {
	ctx := context.Background()
	api := &fakeManagementAPI{
		posted: map[string][]byte{},
		gone:   map[string]bool{"B": true},
	}

	g := NewGateway(nil, "https://default.example.com/dev")
	g.clients["https://default.example.com/dev"] = api

	t.Run("empty endpoint uses default", func(t *testing.T) {
		err := g.PostToConnection(ctx, "", "A", []byte("hello"))
		assert.Nil(t, err)
		assert.Equal(t, []byte("hello"), api.posted["A"])
	})

	t.Run("gone", func(t *testing.T) {
		err := g.PostToConnection(ctx, "https://default.example.com/dev", "B", []byte("hello"))
		assert.True(t, IsRecipientGone(err))

		err = g.GetConnection(ctx, "", "B")
		assert.True(t, IsRecipientGone(err))
	})

	t.Run("get connection", func(t *testing.T) {
		assert.Nil(t, g.GetConnection(ctx, "", "A"))
	})

	t.Run("no endpoint", func(t *testing.T) {
		err := NewGateway(nil, "").PostToConnection(ctx, "", "A", nil)
		assert.NotNil(t, err)
		assert.False(t, IsRecipientGone(err))
	})
}

func TestIsRecipientGone(t *testing.T) {
	testCases := map[string]struct {
		err  error
		want bool
	}{
		"nil": {
			err: nil,
		},
		"gone request failure": {
			err:  goneErr(),
			want: true,
		},
		"gone code": {
			err:  awserr.New(apigatewaymanagementapi.ErrCodeGoneException, "gone", nil),
			want: true,
		},
		"410 status": {
			err:  awserr.NewRequestFailure(awserr.New("UnknownError", "", nil), 410, "id"),
			want: true,
		},
		"wrapped": {
			err:  fmt.Errorf("posting: %w", goneErr()),
			want: true,
		},
		"throttled": {
			err: throttledErr(),
		},
		"forbidden": {
			err: awserr.NewRequestFailure(awserr.New(apigatewaymanagementapi.ErrCodeForbiddenException, "", nil), 403, "id"),
		},
		"deadline": {
			err: context.DeadlineExceeded,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRecipientGone(tc.err))
		})
	}
}
