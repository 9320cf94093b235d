package biz

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zhenzou/executors"

	"github.com/looplj/cellhub/internal/acl"
	"github.com/looplj/cellhub/internal/graph"
	"github.com/looplj/cellhub/internal/message"
	"github.com/looplj/cellhub/internal/pkg/xcache"
	"github.com/looplj/cellhub/internal/server/delivery"
	"github.com/looplj/cellhub/internal/storage"
	"github.com/looplj/cellhub/internal/storage/memstore"
	"github.com/looplj/cellhub/internal/token"
)

const testUnitBase = "https://unit.example"

type testEnv struct {
	store    storage.Store
	cells    *CellService
	graph    *GraphService
	accounts *AccountService
	acls     *AclService
	messages *MessageService
	approval *ApprovalService
}

var errDeliverRefused = errors.New("recipient refused")

// recordingDeliverer collects deliveries instead of calling out.
type recordingDeliverer struct {
	mu        sync.Mutex
	delivered []string
	failFor   map[string]bool
}

func (d *recordingDeliverer) Deliver(_ context.Context, recipientURL string, _ *message.Received) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.failFor[recipientURL] {
		return "503", errDeliverRefused
	}

	d.delivered = append(d.delivered, recipientURL)

	return "201", nil
}

func (d *recordingDeliverer) recipients() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return append([]string(nil), d.delivered...)
}

func newTestExecutor(t *testing.T) executors.ScheduledExecutor {
	t.Helper()

	executor := executors.NewPoolScheduleExecutor()
	t.Cleanup(func() { _ = executor.Shutdown(context.Background()) })

	return executor
}

func newTestVerifier() token.Verifier {
	return token.NewJWTVerifier("test-secret")
}

func newTestEnv(t *testing.T) (*testEnv, *recordingDeliverer) {
	t.Helper()

	store := memstore.New()
	config := Config{
		Unit: UnitConfig{BaseURL: testUnitBase},
		Auth: AuthConfig{JWTSecret: "test-secret"},
	}

	deliverer := &recordingDeliverer{failFor: map[string]bool{}}
	dispatcher := delivery.NewDispatcher(newTestExecutor(t), deliverer)

	auth := NewAuthService(AuthServiceParams{
		Verifier: newTestVerifier(),
		Config:   config,
	})
	graphSvc := NewGraphService(GraphServiceParams{
		Store:    store,
		BoxCache: xcache.NewNoop[graph.Box](),
		Config:   config,
	})

	env := &testEnv{
		store: store,
		cells: NewCellService(CellServiceParams{Store: store, Config: config}),
		graph: graphSvc,
		accounts: NewAccountService(AccountServiceParams{
			Store:  store,
			Auth:   auth,
			Config: config,
		}),
		acls: NewAclService(AclServiceParams{
			Store:  store,
			Cache:  xcache.NewNoop[acl.Acl](),
			Config: config,
		}),
		messages: NewMessageService(MessageServiceParams{
			Store:      store,
			Graph:      graphSvc,
			Dispatcher: dispatcher,
			Config:     config,
		}),
		approval: NewApprovalService(ApprovalServiceParams{Store: store, Config: config}),
	}

	return env, deliverer
}

func (e *testEnv) mustCell(t *testing.T, name string) *graph.Cell {
	t.Helper()

	cell, err := e.cells.CreateCell(context.Background(), name, "")
	require.NoError(t, err)

	return cell
}

func (e *testEnv) mustReceive(t *testing.T, cell *graph.Cell, m *message.Received) *message.Received {
	t.Helper()

	stored, err := e.messages.Receive(context.Background(), cell, m)
	require.NoError(t, err)

	return stored
}
