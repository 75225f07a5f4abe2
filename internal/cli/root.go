package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/storecheck/internal/config"
	"github.com/hamed0406/storecheck/internal/logging"
	"github.com/hamed0406/storecheck/internal/postgrest"
	"github.com/hamed0406/storecheck/internal/probe"
	"github.com/hamed0406/storecheck/internal/schema"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

type options struct {
	cfgFile string
	debug   bool
	noDNS   bool
}

// Execute runs the storecheck command tree against the process arguments.
func Execute() error {
	return NewRootCmd(os.Stdout).Execute()
}

// NewRootCmd builds the command tree. Probe output goes to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "storecheck",
		Short: "Data store connectivity check",
		Long: `Checks that the hosted data store is reachable and that the probe table
accepts a write, a read and a delete. Probe failures are reported on stdout
and do not change the exit code; only invalid configuration does.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), opts, out)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (yaml/json/toml, keys named like the env vars)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "log every probe step")
	rootCmd.Flags().BoolVar(&opts.noDNS, "no-dns", false, "skip DNS diagnosis on connection errors")

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the SQL that creates the probe table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.cfgFile)
			if err != nil {
				return err
			}
			fmt.Fprint(out, schema.DDL(cfg.Table))
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(out, "storecheck", Version)
		},
	}

	rootCmd.AddCommand(schemaCmd, versionCmd)
	return rootCmd
}

func runCheck(ctx context.Context, opts *options, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	newLogger := logging.NewLogger
	if opts.debug {
		newLogger = logging.NewDebugLogger
	}
	logger, err := newLogger(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	client := postgrest.NewClient(cfg.SupabaseURL, cfg.AnonKey, cfg.HTTPTimeout)
	checker := probe.NewStoreChecker(client, cfg.Table, out, logger)
	checker.DiagnoseDNS = !opts.noDNS

	if cfg.DatabaseURL != "" {
		insp, err := schema.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Warn("schema_inspector_unavailable", zap.Error(err))
		} else {
			defer insp.Close()
			checker.Inspector = insp
		}
	}

	rep := checker.Run(ctx)
	logger.Info("check_finished",
		zap.String("report_id", rep.ID),
		zap.Bool("healthy", rep.Healthy),
		zap.String("failure", rep.Failure),
	)
	return nil
}
