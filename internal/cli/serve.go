package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xtding233/shardcost/internal/config"
	"github.com/xtding233/shardcost/internal/dashboard"
	"github.com/xtding233/shardcost/internal/rpc"
	"github.com/xtding233/shardcost/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve every game over HTTP and gRPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	f := cmd.Flags()
	f.String("http-addr", config.DefaultHTTPAddr, "HTTP listen address, empty disables it")
	f.String("grpc-addr", config.DefaultGRPCAddr, "gRPC listen address, empty disables it")
	_ = a.v.BindPFlag("http_addr", f.Lookup("http-addr"))
	_ = a.v.BindPFlag("grpc_addr", f.Lookup("grpc-addr"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	store := dashboard.NewStore(a.loader(), a.options(), a.log)
	if err := store.Load(ctx); err != nil {
		return err
	}
	stopWatch := store.Watch(ctx, a.cfg.WatchInterval)
	defer stopWatch()

	a.log.Info("serving",
		zap.Strings("games", store.Games()),
		zap.String("catalog_dir", a.cfg.CatalogDir),
		zap.Int("max_pulls", a.cfg.MaxPulls))

	eg, ctx := errgroup.WithContext(ctx)
	if a.cfg.HTTPAddr != "" {
		eg.Go(func() error {
			return server.New(store, a.log).ListenAndServe(ctx, a.cfg.HTTPAddr)
		})
	}
	if a.cfg.GRPCAddr != "" {
		eg.Go(func() error {
			return rpc.Serve(ctx, a.cfg.GRPCAddr, rpc.NewServer(store, a.log), a.log)
		})
	}
	return eg.Wait()
}
