// Command gridcalc evaluates, inspects, exports and serves formula grids.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vogtb/gridcalc/internal/config"
	"github.com/vogtb/gridcalc/internal/ctxlog"
	"github.com/vogtb/gridcalc/internal/loader"
	"github.com/vogtb/gridcalc/internal/render"
	"github.com/vogtb/gridcalc/internal/server"
	"github.com/vogtb/gridcalc/packages/spreadsheet"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// run encapsulates the command tree for easier testing. Results go to
// outW, logs to errW.
func run(ctx context.Context, outW, errW io.Writer, args []string) error {
	rootCmd := newRootCmd(outW, errW)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// options holds the persistent flags and the configuration they resolve to
type options struct {
	configPath string
	logLevel   string
	logFormat  string
	rows       int
	columns    int
	addr       string
	strict     bool

	cfg *config.Config
}

func newRootCmd(outW, errW io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "gridcalc",
		Short:         "Evaluate grids of arithmetic cell expressions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			cmd.SetContext(ctxlog.WithLogger(cmd.Context(), cfg.Logger(errW)))
			return nil
		},
	}
	rootCmd.SetOut(outW)
	rootCmd.SetErr(errW)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "TOML configuration file")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: text, json")
	flags.IntVar(&opts.rows, "rows", 0, "Grid rows (1-26)")
	flags.IntVar(&opts.columns, "columns", 0, "Grid columns")

	rootCmd.AddCommand(
		newEvalCmd(opts, outW),
		newGetCmd(opts, outW),
		newExportCmd(opts, outW),
		newServeCmd(opts),
	)
	return rootCmd
}

// resolve loads the config file and applies flags the user set explicitly.
func (o *options) resolve(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	if flags.Changed("rows") {
		cfg.Grid.Rows = o.rows
	}
	if flags.Changed("columns") {
		cfg.Grid.Columns = o.columns
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = o.addr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// open loads the grid at path into a new spreadsheet
func (o *options) open(ctx context.Context, path string) (*spreadsheet.Spreadsheet, error) {
	shape, err := o.cfg.Shape()
	if err != nil {
		return nil, err
	}

	raw, err := loader.Load(path, shape)
	if err != nil {
		return nil, err
	}

	logger := ctxlog.FromContext(ctx)
	sheet, err := spreadsheet.NewWithShape(raw, shape, spreadsheet.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("grid loaded", "path", path, "rows", shape.Rows, "columns", shape.Columns)
	return sheet, nil
}

func newEvalCmd(opts *options, outW io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval FILE",
		Short: "Evaluate every cell and print the grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, err := opts.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			results := sheet.Calculate()
			if err := render.Table(outW, results, render.IsTerminal(outW)); err != nil {
				return err
			}

			if failed := render.Failures(results); opts.strict && failed > 0 {
				return fmt.Errorf("%d cells failed to evaluate", failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit non-zero if any cell fails")
	return cmd
}

func newGetCmd(opts *options, outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "get FILE CELL",
		Short: "Print the value of one cell",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, err := opts.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			value, err := sheet.GetValueAt(args[1])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(outW, render.FormatValue(value))
			return err
		},
	}
}

func newExportCmd(opts *options, outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE OUT.xlsx",
		Short: "Evaluate every cell and save values and expressions to a workbook",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, err := opts.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			results := sheet.Calculate()
			if err := render.WriteXLSX(args[1], results); err != nil {
				return err
			}
			_, err = fmt.Fprintf(outW, "wrote %s (%d cells failed)\n", args[1], render.Failures(results))
			return err
		},
	}
}

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve FILE",
		Short: "Serve the grid over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sheet, err := opts.open(ctx, args[0])
			if err != nil {
				return err
			}

			srv := server.New(spreadsheet.NewLocked(sheet), ctxlog.FromContext(ctx))
			return srv.Run(ctx, opts.cfg.Server.Addr, opts.cfg.Server.ShutdownTimeout.Duration)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}
