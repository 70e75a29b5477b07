package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection/grpc_reflection_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"gearrent-backend/internal/security"
)

type stubVerifier map[string]*security.Identity

func (s stubVerifier) Verify(_ context.Context, token string) (*security.Identity, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return nil, security.ErrInvalidToken
}

func dial(t *testing.T) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s, _ := NewServer(stubVerifier{
		"admin":    {UserID: "admin-1", Admin: true},
		"customer": {UserID: "user-1"},
	})
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHealthIsPublic(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client := grpc_health_v1.NewHealthClient(dial(t))

	resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())

	resp, err = client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: InventoryService})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())
}

func reflectionCode(t *testing.T, ctx context.Context, conn *grpc.ClientConn) codes.Code {
	t.Helper()
	stream, err := grpc_reflection_v1.NewServerReflectionClient(conn).ServerReflectionInfo(ctx)
	require.NoError(t, err)
	require.NoError(t, stream.Send(&grpc_reflection_v1.ServerReflectionRequest{
		MessageRequest: &grpc_reflection_v1.ServerReflectionRequest_ListServices{},
	}))
	_, err = stream.Recv()
	return status.Code(err)
}

func TestReflectionRequiresAdmin(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dial(t)

	assert.Equal(t, codes.Unauthenticated, reflectionCode(t, ctx, conn))

	customer := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer customer")
	assert.Equal(t, codes.PermissionDenied, reflectionCode(t, customer, conn))

	admin := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer admin")
	assert.Equal(t, codes.OK, reflectionCode(t, admin, conn))
}
