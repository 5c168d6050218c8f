package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ggrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func dial(t *testing.T, s *Server) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s.Serve(context.Background(), lis)
	t.Cleanup(s.GracefulStop)

	conn, err := ggrpc.NewClient("passthrough:///bufnet",
		ggrpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		ggrpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func TestHealthFollowsConnectivity(t *testing.T) {
	s := New()
	client := dial(t, s)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: GatewayService})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	s.SetOnline(true)
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: GatewayService})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	_, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: "unknown"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want codes.Code
	}{
		{code.ValidationErr.WithMsg("bad"), codes.InvalidArgument},
		{code.ParamErr, codes.InvalidArgument},
		{code.InvalidToken, codes.Unauthenticated},
		{code.NotFoundErr, codes.NotFound},
		{code.SyncInProgressErr, codes.Aborted},
		{code.NetworkErr.WithErr(errors.New("dial")), codes.Unavailable},
		{code.StorageErr, codes.Internal},
		{errors.New("plain"), codes.Unknown},
		{status.Error(codes.DeadlineExceeded, "slow"), codes.DeadlineExceeded},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, status.Code(ToStatus(c.err)), "%v", c.err)
	}
	assert.NoError(t, ToStatus(nil))
}

func TestUnaryInterceptorRecoversPanic(t *testing.T) {
	icpt := UnaryLogInterceptor()
	_, err := icpt(context.Background(), nil, &ggrpc.UnaryServerInfo{FullMethod: "/x.Y/Z"},
		func(context.Context, any) (any, error) { panic("boom") })
	assert.Equal(t, codes.Internal, status.Code(err))

	resp, err := icpt(context.Background(), nil, &ggrpc.UnaryServerInfo{FullMethod: "/x.Y/Z"},
		func(context.Context, any) (any, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}
