package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xtding233/shardcost/internal/api"
	"github.com/xtding233/shardcost/internal/dashboard"
	"github.com/xtding233/shardcost/internal/gacha"
	"github.com/xtding233/shardcost/internal/pricing"
	"github.com/xtding233/shardcost/internal/tui"
)

func parsePulls(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: pulls must be a positive integer, got %q", pricing.ErrInvalidArgument, arg)
	}
	return n, nil
}

func newCostCmd(a *app) *cobra.Command {
	var regime, strategy string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "cost <pulls>",
		Short: "Cheapest purchase plan for a number of pulls",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pulls, err := parsePulls(args[0])
			if err != nil {
				return err
			}
			r, err := pricing.ParseRegime(regime)
			if err != nil {
				return err
			}
			snap, err := a.snapshot(cmd.Context())
			if err != nil {
				return err
			}
			s := pricing.Strategy(strategy)
			plan, err := snap.Plan(r, s, pulls)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(api.Plan(snap.Game.ID, r, s, plan))
			}
			title := fmt.Sprintf("%s · %s · %s", snap.Game.Name, tui.RegimeLabel(r), tui.FormatPrice(plan.Cost()))
			writeln(cmd.OutOrStdout(), tui.RenderPlan(title, plan))
			return nil
		},
	}
	cmd.Flags().StringVarP(&regime, "regime", "r", string(pricing.RegimeNormal), "normal or first_time_bonus")
	cmd.Flags().StringVarP(&strategy, "strategy", "s", string(pricing.StrategyGreedy), "greedy or exact")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as JSON")
	return cmd
}

func newTableCmd(a *app) *cobra.Command {
	var strategy string
	var step int
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Cost of every pull count from 1 to max-pulls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.snapshot(cmd.Context())
			if err != nil {
				return err
			}
			out, err := tui.RenderTable(snap, pricing.Strategy(strategy), step)
			if err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&strategy, "strategy", "s", string(pricing.StrategyGreedy), "greedy or exact")
	cmd.Flags().IntVar(&step, "step", 10, "print every n-th pull count")
	return cmd
}

func newCompareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compare [pulls]",
		Short: "Normal against first-time bonus prices; the summary without pulls",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 0 {
				writeln(cmd.OutOrStdout(), tui.RenderSummary(snap))
				return nil
			}
			pulls, err := parsePulls(args[0])
			if err != nil {
				return err
			}
			c, err := snap.Compare(pulls)
			if err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), tui.RenderComparison(c))
			return nil
		},
	}
}

func newCatalogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the bundles of the game with per-bundle figures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.snapshot(cmd.Context())
			if err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), tui.RenderCatalog(snap))
			return nil
		},
	}
}

func newProjectCmd(a *app) *cobra.Command {
	var copies, trials, sinceLast int
	var seed uint64
	var guaranteed bool
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Simulate the banner and price the pulls it takes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := a.snapshot(cmd.Context())
			if err != nil {
				return err
			}
			opts := dashboard.ProjectOptions{
				Copies: a.cfg.SimCopies,
				Trials: a.cfg.SimTrials,
				Seed:   a.cfg.SimSeed,
				Start:  gacha.State{SinceLast: sinceLast, Guaranteed: guaranteed},
			}
			if cmd.Flags().Changed("copies") {
				opts.Copies = copies
			}
			if cmd.Flags().Changed("trials") {
				opts.Trials = trials
			}
			if cmd.Flags().Changed("seed") {
				opts.Seed = seed
			}
			p, err := dashboard.Project(cmd.Context(), snap, opts)
			if err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), tui.RenderProjection(snap, p))
			return nil
		},
	}
	cmd.Flags().IntVarP(&copies, "copies", "c", 1, "featured copies wanted")
	cmd.Flags().IntVarP(&trials, "trials", "n", 20000, "simulated players")
	cmd.Flags().Uint64Var(&seed, "seed", 42, "simulation seed")
	cmd.Flags().IntVar(&sinceLast, "pity", 0, "pulls already made since the last hit")
	cmd.Flags().BoolVar(&guaranteed, "guaranteed", false, "the next hit is the featured one")
	return cmd
}

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui [pulls]",
		Short: "Interactive pull calculator",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := tui.DefaultPulls
			if len(args) == 1 {
				n, err := parsePulls(args[0])
				if err != nil {
					return err
				}
				start = n
			}
			snap, err := a.snapshot(cmd.Context())
			if err != nil {
				return err
			}
			return tui.RunCalculator(snap, start)
		},
	}
}
