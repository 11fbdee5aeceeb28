package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aionanalytics/Aion-sub001/internal/di"
	"github.com/aionanalytics/Aion-sub001/pkg/config"
	"github.com/aionanalytics/Aion-sub001/pkg/server"
)

var (
	configPath string
	timeout    time.Duration
)

// rootCmd is the base command for the aion CLI
var rootCmd = &cobra.Command{
	Use:   "aion",
	Short: "Aion decision-fusion passes",
	Long: `aion fuses news, social, macro and model predictions into per-symbol context
blocks, classifies the market regime and writes bounded exposure directives back
into the rolling store. Each command runs a single batch pass.`,
	SilenceUsage: true,
}

func passCmd(mode server.Mode, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(mode),
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPass(cmd.Context(), mode)
		},
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "abort the pass after this long (0 disables)")

	rootCmd.AddCommand(
		passCmd(server.ModeRun, "Fuse contexts, classify the regime and apply policy in one pass"),
		passCmd(server.ModeFuse, "Refresh per-symbol context blocks and the global state"),
		passCmd(server.ModePolicy, "Refresh policy blocks from current contexts"),
		passCmd(server.ModeRegime, "Print the current regime classification"),
	)
}

func runPass(ctx context.Context, mode server.Mode) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	defer app.Close()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return app.Run(ctx, mode)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
