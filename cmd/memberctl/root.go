package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fatflowers/memberlink/internal/app/service/statistics"
	"github.com/fatflowers/memberlink/internal/platform/db"
	"github.com/fatflowers/memberlink/internal/platform/identity"
	"github.com/fatflowers/memberlink/pkg/config"
	"github.com/fatflowers/memberlink/pkg/logger"
	"github.com/fatflowers/memberlink/pkg/types"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "memberctl",
		Short:         "Inspect memberlink memberships",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newStatsCmd(), newUnlinkedCmd(), newPlansCmd(), newTokenCmd())
	return root
}

// withStats loads config from the usual APP_ environment and runs fn against
// the configured database.
func withStats(ctx context.Context, fn func(ctx context.Context, svc *statistics.Service) error) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	gdb, err := db.Open(log, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(log, gdb) }()

	return fn(ctx, statistics.New(gdb, cfg, log))
}

func newStatsCmd() *cobra.Command {
	var items []string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print membership statistics as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := &statistics.MembershipStatisticRequest{}
			for _, id := range items {
				req.DataItems = append(req.DataItems, &statistics.MembershipStatisticDataItem{ID: statistics.StatisticType(id)})
			}
			return withStats(cmd.Context(), func(ctx context.Context, svc *statistics.Service) error {
				res, err := svc.MembershipStatistic(ctx, req)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			})
		},
	}
	cmd.Flags().StringSliceVar(&items, "item", nil, "statistic ids to compute (default: all)")
	return cmd
}

func newUnlinkedCmd() *cobra.Command {
	var (
		olderThan time.Duration
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "unlinked",
		Short: "List memberships no internal user has claimed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStats(cmd.Context(), func(ctx context.Context, svc *statistics.Service) error {
				age := olderThan
				if !cmd.Flags().Changed("older-than") {
					age = svc.StaleAfter()
				}
				items, err := svc.ListUnlinked(ctx, age, limit)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "PROVIDER_MEMBERSHIP_ID\tEMAIL\tSTATUS\tPLAN\tCREATED_AT")
				for _, m := range items {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
						m.ProviderMembershipID, m.ProviderUserEmail, m.Status, m.PlanName, m.CreatedAt.UTC().Format(time.RFC3339))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "minimum record age (default: statistics.unlinked_stale_after)")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum rows")
	return cmd
}

func newPlansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "Print the effective plan catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			plans := cfg.Plans
			if len(plans) == 0 {
				plans = types.DefaultPlans()
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PLAN_ID\tNAME\tPRICE_CENTS\tINTERVAL")
			for _, p := range plans {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.ID, p.Name, p.PriceCents, p.Interval)
			}
			return w.Flush()
		},
	}
}

func newTokenCmd() *cobra.Command {
	var (
		email string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint an HS256 bearer token for the jwt identity driver",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return err
			}
			if cfg.Identity.Driver != config.IdentityDriverJWT {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: identity driver is %q; the server will not accept this token\n", cfg.Identity.Driver)
			}
			j, err := identity.NewJWT(cfg.Identity.JWTSecret)
			if err != nil {
				return err
			}
			token, err := j.Issue(args[0], email, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
