package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/upb/hybrid-rag/app"
	"github.com/upb/hybrid-rag/config"
	"github.com/upb/hybrid-rag/internal/observability"
	"github.com/upb/hybrid-rag/routes"
	"github.com/upb/hybrid-rag/services/hybrid"
)

// DefaultQuery is asked when no question is given on the command line
const DefaultQuery = "What are the differences between neptune databases and Neptune analytics"

// dependencyBuilder wires the application; tests replace it
var dependencyBuilder = app.NewDependencies

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hybrid-rag",
		Short:         "Answer questions from a vector and a graph knowledge base",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.AddCommand(newQueryCommand())
	cmd.AddCommand(newServeCommand())
	return cmd
}

func newQueryCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Run one hybrid query and print the unified response",
		Long: "Retrieves from the vector and graph knowledge bases, asks the model for a unified\n" +
			"answer and prints it. Without a question the built-in example is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			question := DefaultQuery
			if len(args) > 0 {
				question = strings.Join(args, " ")
			}
			return runQuery(cmd.Context(), cmd.OutOrStdout(), question, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full outcome as JSON instead of the report")
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve hybrid queries over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx)
		},
	}
}

// setup loads configuration and builds the logger
func setup(ctx context.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.New(ctx)
	if err != nil {
		return nil, nil, err
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.With(zap.String("environment", cfg.Environment)), nil
}

func runQuery(ctx context.Context, out io.Writer, question string, asJSON bool) error {
	cfg, logger, err := setup(ctx)
	if err != nil {
		return err
	}

	var opts []hybrid.Option
	if !asJSON {
		opts = append(opts, hybrid.WithProgress(newReporter(out).onProgress))
	}

	deps, err := dependencyBuilder(ctx, cfg, logger, opts...)
	if err != nil {
		return err
	}
	defer deps.Close(context.Background())

	if !asJSON {
		printHeader(out, question)
	}

	outcome := deps.Hybrid.RunQuery(ctx, question)

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	}

	printReport(out, outcome)
	return nil
}

func runServer(ctx context.Context) error {
	cfg, logger, err := setup(ctx)
	if err != nil {
		return err
	}

	deps, err := dependencyBuilder(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      routes.SetupRoutes(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			_ = deps.Close(context.Background())
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}
	return deps.Close(shutdownCtx)
}
