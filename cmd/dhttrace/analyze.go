package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	dhttrace "go-dhttrace"
	"go-dhttrace/tracefile"
)

func newAnalyzeCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "analyze <log>",
		Short: "Reconstruct the interval trace of an operation log",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}

	cmd.Flags().String("model", "", "Path of the logical system model (required)")
	cmd.Flags().String("pointers", "", "Successor-pointer log")
	cmd.Flags().StringP("output", "o", "trace.json", "Trace artifact path")
	cmd.Flags().String("format", tracefile.FormatJSON, "Trace artifact format: json or alloy")
	cmd.Flags().String("detector", "chord", "Ring detector")
	cmd.Flags().String("seeds", "", "Comma-separated nodes that are members before the first event")
	cmd.Flags().Int("max-lines", 0, "Read at most this many log lines (0 reads all)")
	cmd.Flags().String("db", "", "PostgreSQL connection URL to export the trace to")
	cmd.Flags().String("table", "dhttrace", "Table name prefix for the export")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := conf.requireModel(); err != nil {
		return err
	}

	var logger = conf.newLogger()
	opts, err := conf.analyzerOptions(logger)
	if err != nil {
		return err
	}

	trace, report, err := dhttrace.NewAnalyzer(opts...).Analyze(args[0], conf.Pointers)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), report.Summary())
		return err
	}

	if err := tracefile.Write(conf.Output, conf.Format, trace, conf.Model); err != nil {
		return fmt.Errorf("failed to write trace: %w", err)
	}
	logger.Info("trace written", "path", conf.Output, "format", conf.Format, "trace_id", trace.ID)

	if conf.DB != "" {
		if err := exportTrace(cmd.Context(), conf, trace); err != nil {
			return err
		}
		logger.Info("trace exported", "table", conf.Table, "trace_id", trace.ID)
	}

	fmt.Fprint(cmd.OutOrStdout(), report.Summary())
	return nil
}

func exportTrace(ctx context.Context, conf *Config, trace *dhttrace.Trace) error {
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := sql.Open("postgres", conf.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return dhttrace.ExportTrace(ctx, db, conf.Table, trace)
}
