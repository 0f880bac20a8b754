package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/app"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/config"

	"github.com/spf13/cobra"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:           "bot",
	Short:         "Saudi football news bot for Telegram",
	Long:          "bot generates Saudi Pro League posts on a schedule, publishes them to a Telegram channel and notifies subscribers.",
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runBot,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot until SIGINT or SIGTERM",
	RunE:  runBot,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "./config.json", "path to config file (json, yaml or toml)")
	rootCmd.AddCommand(runCmd, dbCmd, previewCmd)
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		_ = a.Stop(context.Background(), app.StopFatalError)
		return fmt.Errorf("start: %w", err)
	}

	reason := app.StopSignal
	select {
	case <-ctx.Done():
	case <-a.Done():
		if a.Err() != nil {
			reason = app.StopFatalError
		}
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer stopCancel()
	_ = a.Stop(stopCtx, reason)

	if err := a.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
