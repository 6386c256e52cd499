package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/quickjump/internal/app"
	"github.com/dshills/quickjump/internal/tui"
)

// globalFlags are shared by every command.
type globalFlags struct {
	config    string
	workspace string
	logLevel  string
	logFile   string
}

func (g *globalFlags) options() app.Options {
	return app.Options{
		ConfigPath:    g.config,
		WorkspacePath: g.workspace,
		LogLevel:      g.logLevel,
		LogFile:       g.logFile,
		Version:       appVersion(),
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}
	var metricsAddr string

	root := &cobra.Command{
		Use:   "quickjump [files...]",
		Short: "Jump to files, lines, text and symbols from one prompt",
		Long: `quickjump opens the given files and a palette that searches them.

Type a file name to narrow the project files, then refine it:
  name:42      go to line 42
  name#text    find text
  name@symbol  find a symbol
Ctrl-P searches commands instead.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, files []string) error {
			return runTUI(cmd.Context(), g, metricsAddr, files)
		},
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&g.config, "config", "c", "", "Path to configuration file (TOML or YAML)")
	pf.StringVarP(&g.workspace, "workspace", "w", "", "Workspace/project directory")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&g.logFile, "log-file", "", "Write JSON logs to this file")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	root.AddCommand(newQueryCmd(g, stdout))
	root.AddCommand(newVersionCmd(stdout))
	return root
}

// runTUI runs the interactive palette until the user quits or a signal
// arrives.
func runTUI(ctx context.Context, g *globalFlags, metricsAddr string, files []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create terminal: %w", err)
	}
	ui := tui.New(screen)

	opts := g.options()
	opts.Files = files
	opts.Scheduler = ui.Scheduler()
	opts.Notifier = ui

	var reg *prometheus.Registry
	if metricsAddr != "" {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts.Registerer = reg
	}

	application, err := app.New(opts)
	if err != nil {
		return err
	}
	defer application.Shutdown()
	ui.SetLogger(application.Logger())

	if reg != nil {
		srv := serveMetrics(metricsAddr, reg, application.Logger())
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := application.Start(ctx); err != nil {
		return err
	}

	err = ui.Run(ctx, application.Palette(), application.Documents())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return srv
}
