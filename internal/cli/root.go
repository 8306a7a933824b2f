package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xtding233/shardcost/internal/config"
	"github.com/xtding233/shardcost/internal/dashboard"
	"github.com/xtding233/shardcost/internal/game"
	"github.com/xtding233/shardcost/internal/logging"
	"github.com/xtding233/shardcost/internal/tui"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     *zap.Logger
}

// NewRootCmd builds the shardcost command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "shardcost",
		Short:         "Cheapest bundle purchases for gacha pulls",
		Long:          "shardcost prices a number of gacha pulls against a game's top-up catalog,\ncomparing normal prices with first-time purchase bonuses.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (yaml, json or toml)")
	pf.String("catalog-dir", "", "directory with games/*.yaml (default: built-in games)")
	pf.StringP("game", "g", config.DefaultGame, "game id")
	pf.Int("max-pulls", config.DefaultMaxPulls, "upper end of the precomputed range")
	pf.String("log-level", config.DefaultLogLevel, "debug, info, warn or error")
	pf.Bool("log-dev", false, "human readable logs")
	for key, flag := range map[string]string{
		"catalog_dir": "catalog-dir",
		"game":        "game",
		"max_pulls":   "max-pulls",
		"log_level":   "log-level",
		"log_dev":     "log-dev",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newServeCmd(a),
		newCostCmd(a),
		newTableCmd(a),
		newCompareCmd(a),
		newCatalogCmd(a),
		newProjectCmd(a),
		newTUICmd(a),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, tui.RenderError(err))
		return 1
	}
	return 0
}

func (a *app) init() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	return nil
}

func (a *app) loader() *game.Loader {
	return game.NewLoader(a.cfg.CatalogDir)
}

func (a *app) options() dashboard.Options {
	return dashboard.Options{MaxPulls: a.cfg.MaxPulls}
}

// snapshot builds the snapshot for the configured game.
func (a *app) snapshot(ctx context.Context) (*dashboard.Snapshot, error) {
	g, err := a.loader().Load(a.cfg.Game)
	if err != nil {
		return nil, err
	}
	return dashboard.Build(ctx, g, a.options(), a.log)
}

func writeln(w io.Writer, s string) {
	fmt.Fprintln(w, s)
}
