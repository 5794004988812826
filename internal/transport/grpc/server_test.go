package grpc_server

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
)

var (
	serving    = &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}
	notServing = &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}
)

func TestHealthOverGRPC(t *testing.T) {
	var failing error
	hs := NewHealthServer(map[string]Check{
		"database": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return failing },
	}, time.Hour)
	require.True(t, hs.Probe(context.Background()))

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(hs)
	go srv.Serve(lis)
	defer srv.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.True(t, proto.Equal(serving, res), res.String())

	failing = errors.New("connection refused")
	assert.False(t, hs.Probe(context.Background()))

	res, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.True(t, proto.Equal(notServing, res), res.String())
}

func TestRunStopsOnCancel(t *testing.T) {
	hs := NewHealthServer(map[string]Check{}, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hs.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}

	res, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.True(t, proto.Equal(notServing, res), res.String())
}
