// Package cmd implements the attachdex command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/attachdex/internal/config"
	"github.com/kailas-cloud/attachdex/internal/version"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	env        string
}

// load reads the configuration from --config, or from config/{env}.yaml otherwise.
func (o *rootOptions) load() (config.Config, string, error) {
	env := o.env
	if env == "" {
		env = config.GetEnv()
	}
	var (
		cfg config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, env, fmt.Errorf("load config: %w", err)
	}
	return cfg, env, nil
}

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "attachdex",
		Short: "Attachment enrichment for Elasticsearch",
		Long: `attachdex embeds the content of attached files into documents before they
are indexed, and routes them through an ingest pipeline that extracts the text.

Run 'attachdex serve' to start the HTTP API, or 'attachdex sync' to provision
the pipeline and index mapping once.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.SetVersionTemplate(version.String() + "\n")

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file (overrides --env)")
	cmd.PersistentFlags().StringVar(&opts.env, "env", "", "Config environment: local, dev, docker, prod (default $ENV or local)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newSyncCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
