package rpc

import (
	"context"
	"errors"
	"math"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/shardcost/internal/api"
	"github.com/xtding233/shardcost/internal/dashboard"
	"github.com/xtding233/shardcost/internal/game"
	"github.com/xtding233/shardcost/internal/pricing"
)

const ServiceName = "shardcost.v1.PricingService"

// PricingServer is the server API. Requests and responses are google.protobuf.Struct
// carrying the same fields as the HTTP JSON.
type PricingServer interface {
	OptimalCost(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CostTable(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Compare(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type pricingServer struct {
	store *dashboard.Store
}

var _ PricingServer = pricingServer{}

func NewPricingServer(store *dashboard.Store) PricingServer {
	return pricingServer{store: store}
}

// OptimalCost takes {game, pulls, regime?, strategy?} and returns a plan.
func (s pricingServer) OptimalCost(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	snap, err := s.snapshot(req)
	if err != nil {
		return nil, err
	}
	pulls, err := intField(req, "pulls")
	if err != nil {
		return nil, err
	}
	regime, err := pricing.ParseRegime(stringField(req, "regime"))
	if err != nil {
		return nil, toStatus(err)
	}
	strategy := pricing.Strategy(stringField(req, "strategy"))
	plan, err := snap.Plan(regime, strategy, pulls)
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(api.Plan(snap.Game.ID, regime, strategy, plan))
}

// CostTable takes {game, regime?, strategy?} and returns the precomputed table.
func (s pricingServer) CostTable(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	snap, err := s.snapshot(req)
	if err != nil {
		return nil, err
	}
	regime, err := pricing.ParseRegime(stringField(req, "regime"))
	if err != nil {
		return nil, toStatus(err)
	}
	tbl, err := snap.Table(regime, pricing.Strategy(stringField(req, "strategy")))
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(api.Table(snap.Game.ID, tbl))
}

// Compare takes {game, pulls} and returns both regimes side by side.
func (s pricingServer) Compare(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	snap, err := s.snapshot(req)
	if err != nil {
		return nil, err
	}
	pulls, err := intField(req, "pulls")
	if err != nil {
		return nil, err
	}
	c, err := snap.Compare(pulls)
	if err != nil {
		return nil, toStatus(err)
	}
	return respond(api.Comparison(c))
}

func (s pricingServer) snapshot(req *structpb.Struct) (*dashboard.Snapshot, error) {
	id := strings.TrimSpace(stringField(req, "game"))
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "game required")
	}
	snap, err := s.store.Get(id)
	if err != nil {
		return nil, toStatus(err)
	}
	return snap, nil
}

func stringField(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

func intField(req *structpb.Struct, key string) (int, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s required", key)
	}
	n, isNum := v.GetKind().(*structpb.Value_NumberValue)
	if !isNum || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", key)
	}
	// float64(math.MaxInt) rounds up to 2^63
	if n.NumberValue < math.MinInt || n.NumberValue >= math.MaxInt {
		return 0, status.Errorf(codes.InvalidArgument, "%s out of range", key)
	}
	return int(n.NumberValue), nil
}

func respond(v any) (*structpb.Struct, error) {
	out, err := api.Struct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, game.ErrUnknownGame):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, pricing.ErrInvalidArgument), errors.Is(err, pricing.ErrUnknownRegime):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, dashboard.ErrNoComparison):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func unaryHandler(call func(PricingServer, context.Context, *structpb.Struct) (*structpb.Struct, error), method string) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PricingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(PricingServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes PricingService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PricingServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(PricingServer.OptimalCost, "OptimalCost"),
		unaryHandler(PricingServer.CostTable, "CostTable"),
		unaryHandler(PricingServer.Compare, "Compare"),
	},
	Metadata: "shardcost/v1/pricing.proto",
}

func RegisterPricingServer(s grpc.ServiceRegistrar, srv PricingServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls PricingService over any connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

func (c *Client) invoke(ctx context.Context, method string, req map[string]any, out any) error {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, resp); err != nil {
		return err
	}
	return api.Decode(resp, out)
}

func (c *Client) OptimalCost(ctx context.Context, gameID string, pulls int, regime pricing.Regime, strategy pricing.Strategy) (api.PlanView, error) {
	var out api.PlanView
	err := c.invoke(ctx, "OptimalCost", map[string]any{
		"game": gameID, "pulls": pulls, "regime": string(regime), "strategy": string(strategy),
	}, &out)
	return out, err
}

func (c *Client) CostTable(ctx context.Context, gameID string, regime pricing.Regime, strategy pricing.Strategy) (api.TableView, error) {
	var out api.TableView
	err := c.invoke(ctx, "CostTable", map[string]any{
		"game": gameID, "regime": string(regime), "strategy": string(strategy),
	}, &out)
	return out, err
}

func (c *Client) Compare(ctx context.Context, gameID string, pulls int) (api.ComparisonView, error) {
	var out api.ComparisonView
	err := c.invoke(ctx, "Compare", map[string]any{"game": gameID, "pulls": pulls}, &out)
	return out, err
}
