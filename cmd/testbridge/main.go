package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gnana997/testbridge/pkg/ir"
	"github.com/gnana997/testbridge/pkg/ir/irwriter"
	mcpserver "github.com/gnana997/testbridge/pkg/mcp"
	"github.com/gnana997/testbridge/pkg/parser"
	"github.com/gnana997/testbridge/pkg/pipeline"
	"github.com/gnana997/testbridge/pkg/util"
)

// newLogger builds the process logger from the --log-level flag.
func newLogger() *slog.Logger {
	cfg := util.DefaultLoggerConfig()
	cfg.Level = util.LogLevel(logLevelFlag)
	return util.NewLogger(cfg)
}

const version = "0.1.0-dev"

var (
	configFlag   string
	outFlag      string
	bundleFlag   string
	workersFlag  int
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "testbridge",
	Short: "testbridge — reverse-engineer QA automation code into framework-agnostic IR",
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the analysis pipeline and write the IR bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, cfg, err := setupPipeline()
		if err != nil {
			return err
		}
		bundle, err := p.RunAndWrite(cfg, outFlag)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d targets, %d suites, %d tests to %s (%d warnings)\n",
			len(bundle.Targets), len(bundle.Suites), len(bundle.Tests), outFlag, len(bundle.Diagnostics))
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch source files and regenerate the IR bundle on change",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, cfg, err := setupPipeline()
		if err != nil {
			return err
		}

		logger := newLogger()
		writer := irwriter.New(logger)
		onResult := func(bundle *ir.Bundle, err error) {
			if err != nil {
				return
			}
			if werr := writer.Write(outFlag, bundle); werr != nil {
				logger.Error("writing bundle failed", "error", werr)
			}
		}

		w, err := pipeline.NewWatcher(p, cfg, pipeline.DefaultWatchOptions(), onResult, logger)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a written IR bundle over MCP stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, err := irwriter.Read(bundleFlag)
		if err != nil {
			return fmt.Errorf("loading bundle from %q: %w", bundleFlag, err)
		}
		return mcpserver.NewServer(bundle).ServeStdio()
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize a written IR bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle, err := irwriter.Read(bundleFlag)
		if err != nil {
			return fmt.Errorf("loading bundle from %q: %w", bundleFlag, err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "project:  %s (%s → %s)\n",
			bundle.Project.ProjectName, bundle.Project.SourceFramework, bundle.Project.TargetFramework)
		fmt.Fprintf(out, "targets:  %d\n", len(bundle.Targets))
		fmt.Fprintf(out, "suites:   %d\n", len(bundle.Suites))
		fmt.Fprintf(out, "tests:    %d\n", len(bundle.Tests))
		fmt.Fprintf(out, "data:     %d\n", len(bundle.Data))
		for _, t := range bundle.Tests {
			fmt.Fprintf(out, "  %s  %-30s steps=%d assertions=%d\n",
				t.TestID, t.Name, len(t.Steps), len(t.Assertions))
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "testbridge %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "Log level (debug, info, warn, error)")

	generateCmd.Flags().StringVar(&configFlag, "config", "testbridge.yaml", "Project config file")
	generateCmd.Flags().StringVar(&outFlag, "out", "ir", "Output directory for the IR bundle")
	generateCmd.Flags().IntVar(&workersFlag, "workers", 0, "Extraction workers (0 = auto)")

	watchCmd.Flags().StringVar(&configFlag, "config", "testbridge.yaml", "Project config file")
	watchCmd.Flags().StringVar(&outFlag, "out", "ir", "Output directory for the IR bundle")
	watchCmd.Flags().IntVar(&workersFlag, "workers", 0, "Extraction workers (0 = auto)")

	serveCmd.Flags().StringVar(&bundleFlag, "bundle", "ir", "Directory of a written IR bundle")
	inspectCmd.Flags().StringVar(&bundleFlag, "bundle", "ir", "Directory of a written IR bundle")

	rootCmd.AddCommand(generateCmd, watchCmd, serveCmd, inspectCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// setupPipeline loads the config and constructs the pipeline with the
// canonical-AST loader as its upstream provider.
func setupPipeline() (*pipeline.Pipeline, pipeline.Config, error) {
	cfg, err := loadConfig(configFlag)
	if err != nil {
		return nil, pipeline.Config{}, err
	}

	logger := newLogger()
	loader, err := parser.NewCanonicalLoader(logger)
	if err != nil {
		return nil, pipeline.Config{}, err
	}

	p, err := pipeline.New(loader, logger, pipeline.WithWorkers(workersFlag))
	if err != nil {
		return nil, pipeline.Config{}, err
	}
	return p, cfg, nil
}
