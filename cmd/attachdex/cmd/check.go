package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	logpkg "github.com/kailas-cloud/attachdex/internal/logger"
	"github.com/kailas-cloud/attachdex/internal/usecase/health"
)

// checkOutput is the JSON shape printed by 'check --json'.
type checkOutput struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	var (
		jsonOutput bool
		refresh    bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the search cluster, database and ingest capability",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd.Context(), cmd.OutOrStdout(), root, refresh, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Re-query the ingest capability instead of using the stored flag")

	return cmd
}

func runCheck(ctx context.Context, out io.Writer, root *rootOptions, refresh, jsonOutput bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, env, err := root.load()
	if err != nil {
		return err
	}
	logger, err := logpkg.NewLogger(env, logpkg.Options{Level: cfg.Logging.Level, File: cfg.Logging.File})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if refresh {
		if _, err := a.provision.RefreshCapability(ctx); err != nil {
			return fmt.Errorf("refresh capability: %w", err)
		}
	}

	report := a.health.Check(ctx)
	if err := printHealth(out, report, jsonOutput); err != nil {
		return err
	}
	if report.Status == health.Unhealthy {
		return fmt.Errorf("search cluster unreachable")
	}
	return nil
}

func printHealth(out io.Writer, r health.Report, jsonOutput bool) error {
	checks := make(map[string]string, len(r.Checks))
	for name, res := range r.Checks {
		checks[name] = string(res)
	}
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(checkOutput{Status: string(r.Status), Checks: checks})
	}

	_, _ = fmt.Fprintf(out, "Status: %s\n", r.Status)
	for _, name := range []string{"search", "database", "ingest_attachment"} {
		if res, ok := checks[name]; ok {
			_, _ = fmt.Fprintf(out, "  %-18s %s\n", name, res)
		}
	}
	return nil
}
