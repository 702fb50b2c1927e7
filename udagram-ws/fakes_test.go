package udagramws

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/AmbienceDigitals/udagram-go/udagram-ws/connectiondao"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi"
)

type fakeRegistry struct {
	mu          sync.Mutex
	connections map[string]connectiondao.Connection
	listErr     error
	addErr      error
	removeErr   error
	removed     []string
}

func newFakeRegistry(ids ...string) *fakeRegistry {
	r := &fakeRegistry{connections: map[string]connectiondao.Connection{}}
	for _, id := range ids {
		r.connections[id] = connectiondao.Connection{ID: id, Endpoint: "https://example.com/dev"}
	}
	return r
}

func (r *fakeRegistry) Add(_ context.Context, conn connectiondao.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.addErr != nil {
		return r.addErr
	}
	r.connections[conn.ID] = conn
	return nil
}

func (r *fakeRegistry) Remove(_ context.Context, connectionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, connectionID)
	if r.removeErr != nil {
		return r.removeErr
	}
	delete(r.connections, connectionID)
	return nil
}

func (r *fakeRegistry) ListAll(_ context.Context) ([]connectiondao.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, &connectiondao.RegistryError{Op: "list", Err: r.listErr}
	}
	var conns []connectiondao.Connection
	for _, conn := range r.connections {
		conns = append(conns, conn)
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].ID < conns[j].ID })
	return conns, nil
}

func (r *fakeRegistry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id := range r.connections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// fakePoster records every payload and fails the connections listed in errs.
type fakePoster struct {
	mu       sync.Mutex
	errs     map[string]error
	received map[string][]string
	attempts map[string]int
}

func newFakePoster() *fakePoster {
	return &fakePoster{
		errs:     map[string]error{},
		received: map[string][]string{},
		attempts: map[string]int{},
	}
}

func (p *fakePoster) PostToConnection(_ context.Context, _, connectionID string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts[connectionID]++
	if err := p.errs[connectionID]; err != nil {
		return err
	}
	p.received[connectionID] = append(p.received[connectionID], string(data))
	return nil
}

func (p *fakePoster) GetConnection(_ context.Context, _, connectionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts[connectionID]++
	return p.errs[connectionID]
}

func (p *fakePoster) setErr(connectionID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.errs, connectionID)
		return
	}
	p.errs[connectionID] = err
}

func goneErr() error {
	return awserr.NewRequestFailure(
		awserr.New(apigatewaymanagementapi.ErrCodeGoneException, "connection gone", nil),
		410,
		"request-id",
	)
}

func throttledErr() error {
	return awserr.NewRequestFailure(
		awserr.New(apigatewaymanagementapi.ErrCodeLimitExceededException, "slow down", nil),
		429,
		"request-id",
	)
}

func imageKeyOf(payload string) (string, error) {
	var n Notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return "", fmt.Errorf("bad payload %q: %w", payload, err)
	}
	return n.ImageKey, nil
}
