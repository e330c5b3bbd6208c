package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docbridge/docbridge/internal/config"
	"github.com/docbridge/docbridge/internal/db"
	"github.com/docbridge/docbridge/internal/rating"
)

func newAuditCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Re-derive doctor rating summaries",
		Long: `Recomputes every doctor's average score and rating count from the
stored ratings and repairs any drifted summary. The serve command runs
this on a schedule; this command runs it once.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "docbridge.yaml", "path to DocBridge config file")
	return cmd
}

func runAudit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	gormDB, err := db.Connect(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	repaired, err := rating.Audit(gormDB, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Audit complete: %d summaries repaired\n", repaired)
	return nil
}
