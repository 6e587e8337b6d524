package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/locvowork/task_manager/internal/bootstrap"
	"github.com/locvowork/task_manager/internal/logger"
)

var Version = "dev"

var envFiles []string

func main() {
	rootCmd := &cobra.Command{
		Use:     "task-manager",
		Short:   "Task manager REST API",
		Version: Version,
		// Running without a subcommand serves the API.
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the SQL schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app := bootstrap.NewApp()
			if err := app.LoadConfig(ctx, envFiles...); err != nil {
				return err
			}
			if err := app.OpenStore(ctx); err != nil {
				return err
			}
			defer app.Close()
			return app.Migrate(ctx)
		},
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := bootstrap.NewApp()
	if err := app.Initialize(ctx, envFiles...); err != nil {
		logger.ErrorLog(ctx, "failed to initialize application: %v", err)
		return err
	}

	if err := app.Run(ctx); err != nil {
		logger.ErrorLog(ctx, "application failed: %v", err)
		return err
	}
	return nil
}
