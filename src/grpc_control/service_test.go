package grpc_control

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"series-explorer/src/logger"
	"series-explorer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type pingStore struct {
	err error
}

func (p *pingStore) Initialize() error { return nil }
func (p *pingStore) Ping(context.Context) error { return p.err }
func (p *pingStore) HasSeries(string) (bool, error) { return false, nil }
func (p *pingStore) SaveSeries(string, string, []models.MObservation) error { return nil }
func (p *pingStore) ListSeries() ([]string, error) { return nil, nil }
func (p *pingStore) GetObservations(string, string, string) ([]models.MObservation, error) {
	return nil, nil
}
func (p *pingStore) Close() error { return nil }

func newClient(t *testing.T, svc *ControlService) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go svc.Serve(lis)
	t.Cleanup(svc.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestControlService_ReportsStoreHealth(t *testing.T) {
	store := &pingStore{}
	svc := NewControlService(store, logger.NewLogger("test"))
	client := newClient(t, svc)

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client), "not serving before the first refresh")

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, svc.Refresh(context.Background()))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client))

	store.err = errors.New("database is locked")
	svc.Refresh(context.Background())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client))
}
