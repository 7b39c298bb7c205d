// Command trainlog-report reads training logs, annotates their events and
// writes the selected columns as CSV.
//
//	trainlog-report 'runs/**/*.jsonl*' --recursive --header lr --kind valid --columns lr,loss
//
// Flags override config.yml, which is searched for in the working
// directory and cmd/trainlog-report, and TRAINLOG_* environment variables.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/trainlog/bootstrap"
	"github.com/kbukum/trainlog/config"
	"github.com/kbukum/trainlog/version"
)

const commandName = "trainlog-report"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

type flagValues struct {
	configFile string
	envFile    string
	recursive  bool
	header     []string
	count      []string
	sum        []string
	duck       bool
	kind       string
	columns    []string
	output     string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var fv flagValues
	cmd := &cobra.Command{
		Use:   commandName + " [pattern]",
		Short: "summarise training logs as CSV",
		Long: `
Loads every log matching pattern, applies the configured operations to each
log, keeps the events of one kind and writes the chosen columns as CSV.
`,
		Args:         cobra.MaximumNArgs(1),
		Version:      version.Get().String(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args, fv)
			if err != nil {
				return err
			}
			app, err := bootstrap.NewApp(cfg,
				bootstrap.WithVersion(version.Get().Short()),
				bootstrap.WithSummaryWriter(cmd.ErrOrStderr()),
			)
			if err != nil {
				return err
			}
			return app.RunTask(cmd.Context(), func(ctx context.Context) error {
				return report(ctx, app, cmd.OutOrStdout())
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&fv.configFile, "config", "", "path to config.yml")
	f.StringVar(&fv.envFile, "env-file", "", "path to a .env file")
	f.BoolVarP(&fv.recursive, "recursive", "r", false, "let ** in the pattern match any number of directories")
	f.StringSliceVar(&fv.header, "header", nil, "header keys to copy onto every event")
	f.StringSliceVar(&fv.count, "count", nil, "kinds to count, as count_<kind>")
	f.StringSliceVar(&fv.sum, "sum", nil, "fields to accumulate, as sum_<field>")
	f.BoolVar(&fv.duck, "duck", false, "skip sums and windows on events missing their field")
	f.StringVarP(&fv.kind, "kind", "k", "", "only write events of this kind")
	f.StringSliceVarP(&fv.columns, "columns", "c", nil, "columns to write, in order (default: all)")
	f.StringVarP(&fv.output, "output", "o", "", "CSV file to write (default: stdout)")
	f.StringVar(&fv.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	return cmd
}

// loadConfig reads the configuration files and applies flags the user set.
func loadConfig(cmd *cobra.Command, args []string, fv flagValues) (*config.ReportConfig, error) {
	var opts []config.LoaderOption
	if fv.configFile != "" {
		opts = append(opts, config.WithConfigFile(fv.configFile))
	}
	if fv.envFile != "" {
		opts = append(opts, config.WithEnvFile(fv.envFile))
	}
	var cfg config.ReportConfig
	if err := config.LoadConfig(commandName, &cfg, opts...); err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	if len(args) == 1 {
		cfg.Input.Pattern = args[0]
	}
	changed := cmd.Flags().Changed
	if changed("recursive") {
		cfg.Input.Recursive = fv.recursive
	}
	if changed("header") {
		cfg.Ops.Header = fv.header
	}
	if changed("count") {
		cfg.Ops.Count = fv.count
	}
	if changed("sum") {
		cfg.Ops.Sum = fv.sum
	}
	if changed("duck") {
		cfg.Ops.Duck = fv.duck
	}
	if changed("kind") {
		cfg.Output.Kind = fv.kind
	}
	if changed("columns") {
		cfg.Output.Columns = fv.columns
	}
	if changed("output") {
		cfg.Output.Path = fv.output
	}
	if changed("log-level") {
		cfg.Logging.Level = fv.logLevel
	}
	return &cfg, nil
}
