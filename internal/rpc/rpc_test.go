package rpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/shardcost/internal/dashboard"
	"github.com/xtding233/shardcost/internal/game"
	"github.com/xtding233/shardcost/internal/pricing"
)

func dial(t *testing.T) *grpc.ClientConn {
	t.Helper()
	store := dashboard.NewStore(game.NewLoader(""), dashboard.Options{}, nil)
	require.NoError(t, store.Load(context.Background(), "hsr"))

	lis := bufconn.Listen(1 << 20)
	srv := NewServer(store, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeListener(ctx, lis, srv, nil) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		assert.NoError(t, <-done)
	})
	return conn
}

func TestOptimalCost(t *testing.T) {
	c := NewClient(dial(t))

	plan, err := c.OptimalCost(context.Background(), "hsr", 1, pricing.RegimeNormal, "")
	require.NoError(t, err)
	assert.Equal(t, "hsr", plan.Game)
	assert.Equal(t, "greedy", plan.Strategy)
	assert.InDelta(t, 2.97, plan.Cost, 1e-9)
	require.Len(t, plan.Purchases, 2)

	plan, err = c.OptimalCost(context.Background(), "hsr", 180, pricing.RegimeFirstTimeBonus, pricing.StrategyGreedy)
	require.NoError(t, err)
	assert.InDelta(t, 218.84, plan.Cost, 1e-9)
	assert.Equal(t, "first_time_bonus", plan.Regime)
}

func TestOptimalCostErrors(t *testing.T) {
	c := NewClient(dial(t))
	ctx := context.Background()

	_, err := c.OptimalCost(ctx, "genshin", 1, pricing.RegimeNormal, "")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.OptimalCost(ctx, "hsr", 0, pricing.RegimeNormal, "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.OptimalCost(ctx, "hsr", 10, "vip", "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.OptimalCost(ctx, "", 10, pricing.RegimeNormal, "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestOptimalCostBeyondTable(t *testing.T) {
	c := NewClient(dial(t))
	ctx := context.Background()

	plan, err := c.OptimalCost(ctx, "hsr", 200, pricing.RegimeNormal, pricing.StrategyExact)
	require.NoError(t, err)
	assert.Equal(t, 200*160, plan.Required)
	assert.GreaterOrEqual(t, plan.TotalYield, plan.Required)

	plan, err = c.OptimalCost(ctx, "hsr", 5000, pricing.RegimeFirstTimeBonus, pricing.StrategyGreedy)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, plan.TotalYield, plan.Required)

	tests := []struct {
		name     string
		pulls    int
		strategy pricing.Strategy
	}{
		{"exact above cap", pricing.MaxExactPulls + 1, pricing.StrategyExact},
		{"exact huge", 1_000_000_000_000, pricing.StrategyExact},
		{"greedy above cap", pricing.MaxTargetPulls + 1, pricing.StrategyGreedy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.OptimalCost(ctx, "hsr", tt.pulls, pricing.RegimeNormal, tt.strategy)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}

	// the server is still up
	_, err = c.OptimalCost(ctx, "hsr", 1, pricing.RegimeNormal, "")
	assert.NoError(t, err)
}

type panickingServer struct{ PricingServer }

func (panickingServer) OptimalCost(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	panic("boom")
}

func TestPanicBecomesInternal(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := newServer(panickingServer{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeListener(ctx, lis, srv, nil) }()
	defer func() {
		cancel()
		assert.NoError(t, <-done)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	c := NewClient(conn)
	for range 2 {
		_, err = c.OptimalCost(context.Background(), "hsr", 1, pricing.RegimeNormal, "")
		assert.Equal(t, codes.Internal, status.Code(err))
	}
}

func TestRawRequestValidation(t *testing.T) {
	conn := dial(t)
	tests := []struct {
		name string
		req  map[string]any
	}{
		{"missing pulls", map[string]any{"game": "hsr"}},
		{"fractional pulls", map[string]any{"game": "hsr", "pulls": 2.5}},
		{"string pulls", map[string]any{"game": "hsr", "pulls": "ten"}},
		{"pulls past int range", map[string]any{"game": "hsr", "pulls": 1e19}},
		{"exact pulls past cap", map[string]any{"game": "hsr", "pulls": 1e12, "strategy": "exact"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := structpb.NewStruct(tt.req)
			require.NoError(t, err)
			err = conn.Invoke(context.Background(), "/"+ServiceName+"/OptimalCost", in, new(structpb.Struct))
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestCostTable(t *testing.T) {
	c := NewClient(dial(t))
	tbl, err := c.CostTable(context.Background(), "hsr", pricing.RegimeNormal, pricing.StrategyExact)
	require.NoError(t, err)
	assert.Equal(t, "exact", tbl.Strategy)
	require.Len(t, tbl.Rows, pricing.DefaultMaxPulls)
	assert.LessOrEqual(t, tbl.Rows[179].Cost, 360.93)
}

func TestCompare(t *testing.T) {
	c := NewClient(dial(t))
	cmp, err := c.Compare(context.Background(), "hsr", 180)
	require.NoError(t, err)
	assert.InDelta(t, 142.09, cmp.Savings, 1e-9)

	_, err = c.Compare(context.Background(), "hsr", 500)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHealth(t *testing.T) {
	conn := dial(t)
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
