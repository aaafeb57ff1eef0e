package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/attachdex/internal/logger"
	"github.com/kailas-cloud/attachdex/internal/usecase/configsync"
)

// errSyncFailed is returned when at least one sync step failed.
var errSyncFailed = errors.New("sync incomplete")

// syncOutput is the JSON shape printed by 'sync --json'.
type syncOutput struct {
	RunID               string `json:"run_id"`
	OK                  bool   `json:"ok"`
	Pipeline            string `json:"pipeline"`
	Index               string `json:"index"`
	PipelineError       string `json:"pipeline_error,omitempty"`
	MappingError        string `json:"mapping_error,omitempty"`
	CapabilityAvailable bool   `json:"capability_available"`
	CapabilityError     string `json:"capability_error,omitempty"`
	DurationMs          int64  `json:"duration_ms"`
}

func newSyncCmd(root *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Provision the ingest pipeline and index mapping",
		Long: `Put the attachment ingest pipeline, declare the attachment object in the
index mapping and refresh the shared ingest capability flag.

Every step runs even when an earlier one fails. The command exits non-zero
when any step failed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), cmd.OutOrStdout(), root, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runSync(ctx context.Context, out io.Writer, root *rootOptions, jsonOutput bool) error {
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
		logger.Error("Failed to initialise", zap.Error(err))
		return err
	}
	defer a.Close()

	report := a.sync.Sync(ctx)
	if err := printReport(out, report, jsonOutput); err != nil {
		return err
	}
	if !report.OK() {
		return errSyncFailed
	}
	return nil
}

func printReport(out io.Writer, r configsync.Report, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(syncOutput{
			RunID:               r.RunID,
			OK:                  r.OK(),
			Pipeline:            r.Pipeline,
			Index:               r.Index,
			PipelineError:       errString(r.PipelineErr),
			MappingError:        errString(r.MappingErr),
			CapabilityAvailable: r.CapabilityAvailable,
			CapabilityError:     errString(r.CapabilityErr),
			DurationMs:          r.Duration.Milliseconds(),
		})
	}

	_, _ = fmt.Fprintf(out, "Sync %s (%s)\n", r.RunID, r.Duration.Round(time.Millisecond))
	_, _ = fmt.Fprintf(out, "  pipeline %-20s %s\n", r.Pipeline, stepStatus(r.PipelineErr))
	_, _ = fmt.Fprintf(out, "  mapping  %-20s %s\n", r.Index, stepStatus(r.MappingErr))
	capability := "unavailable"
	if r.CapabilityAvailable {
		capability = "available"
	}
	if r.CapabilityErr != nil {
		capability = stepStatus(r.CapabilityErr)
	}
	_, _ = fmt.Fprintf(out, "  ingest-attachment %s\n", capability)
	return nil
}

func stepStatus(err error) string {
	if err != nil {
		return "FAILED: " + err.Error()
	}
	return "ok"
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
