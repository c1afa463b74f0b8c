package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/coolbeans/lvparse/pkg/abbrev"
	"github.com/coolbeans/lvparse/pkg/config"
	"github.com/coolbeans/lvparse/pkg/diag"
	"github.com/coolbeans/lvparse/pkg/export"
	"github.com/coolbeans/lvparse/pkg/extract"
	"github.com/coolbeans/lvparse/pkg/lv"
	"github.com/coolbeans/lvparse/pkg/record"
	"github.com/coolbeans/lvparse/pkg/watch"
)

var version = "0.1.0"

var (
	verbose bool
	logger  = zap.NewNop()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lvparse",
		Short: "Cadastral ownership list parser",
		Long: `lvparse extracts apartment ownership records from Slovak cadastral
ownership lists (list vlastníctva).

Each apartment unit yields one record per co-owner with the unit's entrance
address, floor, unit number, space share, registration number and the
owner's name, share and acquisition title. Units that cannot be decoded
yield a placeholder record and a line in the daily errors log.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zapConfig := zap.NewProductionConfig()
			if verbose {
				zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = zapConfig.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(fieldsCmd())
	return rootCmd
}

// pipeline holds what every command needs to parse and persist documents.
type pipeline struct {
	cfg        *config.Config
	registry   *abbrev.Registry
	dispatcher *diag.Dispatcher
	store      *export.Store
}

// openPipeline loads the configuration and applies command-line overrides.
func openPipeline(cmd *cobra.Command) (*pipeline, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("store") {
		cfg.Store, _ = cmd.Flags().GetString("store")
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers, _ = cmd.Flags().GetInt("workers")
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	base, err := cfg.Table()
	if err != nil {
		return nil, err
	}
	p := &pipeline{
		cfg:      cfg,
		registry: abbrev.NewRegistry(base, logger),
	}
	p.registry.SetOnChange(func(t abbrev.Table) {
		logger.Info("Abbreviation table updated",
			zap.String("path", cfg.AbbreviationsFile),
			zap.Int("rules", t.Len()))
	})
	if cfg.AbbreviationsFile != "" {
		if err := p.registry.LoadFile(cfg.AbbreviationsFile); err != nil {
			return nil, err
		}
	}

	if cfg.Store != "" {
		p.store, err = export.OpenStore(cfg.Store, export.WithStoreLogger(logger))
		if err != nil {
			return nil, err
		}
	}

	p.dispatcher = diag.NewDispatcher(diag.NewFileSink(cfg.LogDir), diag.WithLogger(logger))
	return p, nil
}

// parser builds a parser over the current abbreviation table, so reloaded
// rules apply to the next document.
func (p *pipeline) parser() *lv.Parser {
	return lv.NewParser(
		lv.WithAbbreviations(p.registry.Table()),
		lv.WithWorkers(p.cfg.Workers),
		lv.WithLogger(logger),
		lv.WithReporter(p.dispatcher),
	)
}

// run extracts, parses and, when a store is configured, records one
// document.
func (p *pipeline) run(ctx context.Context, source string) (*lv.Result, error) {
	text, err := extract.File(source)
	if err != nil {
		return nil, err
	}

	result, err := p.parser().Parse(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	if p.store != nil {
		run, err := p.store.Save(ctx, filepath.Base(source), result.Records)
		if err != nil {
			return nil, err
		}
		logger.Info("Run stored", zap.String("run", run.ID), zap.String("source", source))
	}
	return result, nil
}

// close flushes pending diagnostics and releases the store.
func (p *pipeline) close() {
	p.registry.StopWatch()
	p.dispatcher.Close()
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			logger.Warn("Failed to close store", zap.Error(err))
		}
	}
}

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "YAML configuration file")
	cmd.Flags().String("store", "", "SQLite database recording each run (overrides config)")
	cmd.Flags().Int("workers", 1, "Unit blocks parsed concurrently (overrides config)")
	cmd.Flags().StringP("format", "f", "csv", "Output format: csv, json")
}

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse an ownership list",
		Long: `Parse an ownership list and write one record per unit and co-owner.

The source may be a PDF or an already extracted text file.

Example:
  lvparse parse --source lv-1234.pdf
  lvparse parse --source lv-1234.pdf --format json --output lv-1234.json --stats`,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, _ := cmd.Flags().GetString("source")
			output, _ := cmd.Flags().GetString("output")
			formatName, _ := cmd.Flags().GetString("format")
			showStats, _ := cmd.Flags().GetBool("stats")

			if source == "" {
				return fmt.Errorf("--source flag is required")
			}
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}

			p, err := openPipeline(cmd)
			if err != nil {
				return err
			}
			defer p.close()

			startTime := time.Now()
			result, err := p.run(cmd.Context(), source)
			if err != nil {
				return err
			}

			if err := writeOutput(cmd.OutOrStdout(), output, format, result.Records); err != nil {
				return err
			}

			if showStats {
				printStats(cmd.ErrOrStderr(), result, time.Since(startTime))
			}
			return nil
		},
	}

	cmd.Flags().StringP("source", "s", "", "Ownership list to parse (.pdf or .txt)")
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	cmd.Flags().Bool("stats", false, "Print parse statistics to stderr")
	addPipelineFlags(cmd)
	return cmd
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Parse every ownership list dropped into a directory",
		Long: `Watch a directory and parse each .pdf or .txt file once it stops
changing. Results are written to the output directory under the source's
base name. The abbreviations file from the configuration is reloaded
whenever it changes.

Example:
  lvparse watch --dir inbox --out results --config lvparse.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			out, _ := cmd.Flags().GetString("out")
			formatName, _ := cmd.Flags().GetString("format")
			debounce, _ := cmd.Flags().GetDuration("debounce")

			if dir == "" {
				return fmt.Errorf("--dir flag is required")
			}
			if out == "" {
				out = filepath.Join(dir, "out")
			}
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(out, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			p, err := openPipeline(cmd)
			if err != nil {
				return err
			}
			defer p.close()

			if p.cfg.AbbreviationsFile != "" {
				if err := p.registry.Watch(); err != nil {
					return err
				}
			}

			handler := func(ctx context.Context, path string) error {
				result, err := p.run(ctx, path)
				if err != nil {
					return err
				}
				target := filepath.Join(out, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+format.Ext())
				if err := writeOutput(nil, target, format, result.Records); err != nil {
					return err
				}
				logger.Info("Ownership list exported",
					zap.String("source", path),
					zap.String("output", target),
					zap.Int("records", len(result.Records)),
					zap.Int("failed_units", result.FailedUnits))
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			inbox := watch.NewInbox(watch.InboxConfig{Dir: dir, Debounce: debounce}, handler, logger)
			return inbox.Run(ctx)
		},
	}

	cmd.Flags().StringP("dir", "d", "", "Directory to watch")
	cmd.Flags().String("out", "", "Output directory (default: <dir>/out)")
	cmd.Flags().Duration("debounce", 500*time.Millisecond, "Time a file must stay unchanged before it is parsed")
	addPipelineFlags(cmd)
	return cmd
}

func fieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the record fields in export order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range record.Fields {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// writeOutput encodes records to path, or to stdout when path is empty.
func writeOutput(stdout io.Writer, path string, format export.Format, records []record.Record) error {
	if path == "" {
		return export.Write(stdout, format, records)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := export.Write(file, format, records); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

func printStats(w io.Writer, result *lv.Result, elapsed time.Duration) {
	fmt.Fprintf(w, "Units:        %d\n", result.Units)
	fmt.Fprintf(w, "Records:      %d\n", len(result.Records))
	fmt.Fprintf(w, "Failed units: %d\n", result.FailedUnits)
	fmt.Fprintf(w, "Diagnostics:  %d\n", len(result.Diagnostics))
	for _, d := range result.Diagnostics {
		fmt.Fprintf(w, "  - %s\n", d)
	}
	fmt.Fprintf(w, "Elapsed:      %v\n", elapsed.Round(time.Millisecond))
}
