package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/config"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/storage"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect and maintain the local database",
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show row counts and today's counters",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		ds, err := st.DatabaseStats(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		names := make([]string, 0, len(ds.Tables))
		for n := range ds.Tables {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(out, "%-20s %10s\n", n, humanize.Comma(ds.Tables[n]))
		}
		fmt.Fprintf(out, "\npublished: %s  unpublished: %s  active subscriptions: %s\n",
			humanize.Comma(ds.Published), humanize.Comma(ds.Unpublished), humanize.Comma(ds.ActiveSubs))

		day := storage.Day(time.Now())
		counters, err := st.StatsForDay(cmd.Context(), day)
		if err != nil {
			return err
		}
		if len(counters) > 0 {
			fmt.Fprintf(out, "\ntoday (%s):\n", day)
			keys := make([]string, 0, len(counters))
			for k := range counters {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "  %-22s %s\n", k, humanize.Comma(counters[k]))
			}
		}
		return nil
	},
}

var dbSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired API cache entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.CacheSweep(cmd.Context())
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to sweep.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s expired cache %s.\n", humanize.Comma(n), plural(n, "entry", "entries"))
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbStatsCmd, dbSweepCmd)
}

func openStore(ctx context.Context) (*storage.Store, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 5*time.Second)
	if err != nil {
		return nil, err
	}
	return storage.Open(ctx, storage.Config{Path: cfg.Storage.Path, BusyTimeout: busy},
		logx.NewConsole("warn").With(logx.String("comp", "storage")))
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
