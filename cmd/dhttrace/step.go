package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/eiannone/keyboard"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	dhttrace "go-dhttrace"
	"go-dhttrace/tracefile"
)

func newStepCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "step [log]",
		Short: "Step through the snapshots of a trace interactively",
		Long: `Step shows one snapshot at a time. The snapshots come from a JSON trace written
by analyze (--trace-file), from a trace previously exported to PostgreSQL
(--db), or from analyzing the given log.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runStep,
	}

	cmd.Flags().String("pointers", "", "Successor-pointer log")
	cmd.Flags().String("detector", "chord", "Ring detector")
	cmd.Flags().String("seeds", "", "Comma-separated nodes that are members before the first event")
	cmd.Flags().Int("max-lines", 0, "Read at most this many log lines (0 reads all)")
	cmd.Flags().String("db", "", "PostgreSQL connection URL to load the trace from")
	cmd.Flags().String("table", "dhttrace", "Table name prefix of the export")
	cmd.Flags().String("trace", "", "Stored trace id (default: most recent)")
	cmd.Flags().String("trace-file", "", "JSON trace written by analyze")

	return cmd
}

func runStep(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	traceID, snapshots, err := loadStepSnapshots(cmd.Context(), conf, args)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "trace has no snapshots")
		return nil
	}

	var sigCh = make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if err := keyboard.Open(); err != nil {
		return fmt.Errorf("failed to initialize keyboard: %w", err)
	}
	defer keyboard.Close()

	var keyCh = make(chan keyboard.Key)
	var runeCh = make(chan rune)
	go func() {
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			if char != 0 {
				runeCh <- char
			} else {
				keyCh <- key
			}
		}
	}()

	var (
		out     = cmd.OutOrStdout()
		current = 0
	)
	for {
		fmt.Fprint(out, "\033[2J\033[H") // Clear screen and move cursor to top
		renderSnapshot(out, traceID, snapshots, current)

		select {
		case key := <-keyCh:
			switch key {
			case keyboard.KeyArrowRight, keyboard.KeySpace:
				current = min(current+1, len(snapshots)-1)
			case keyboard.KeyArrowLeft:
				current = max(current-1, 0)
			case keyboard.KeyEsc, keyboard.KeyCtrlC:
				return nil
			}
		case char := <-runeCh:
			switch char {
			case 'n', 'N':
				current = min(current+1, len(snapshots)-1)
			case 'p', 'P':
				current = max(current-1, 0)
			case 'g':
				current = 0
			case 'G', 'b', 'B':
				current = len(snapshots) - 1
			case 'q', 'Q':
				return nil
			}
		case <-sigCh:
			return nil
		}
	}
}

// loadStepSnapshots reads a written JSON trace, loads a stored trace when a
// database is configured, or analyzes the log argument.
func loadStepSnapshots(ctx context.Context, conf *Config, args []string) (string, []dhttrace.Snapshot, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if conf.TraceFile != "" {
		doc, err := tracefile.ReadJSON(afero.NewOsFs(), conf.TraceFile)
		if err != nil {
			return "", nil, err
		}
		return doc.TraceID, doc.TraceSnapshots(), nil
	}

	if conf.DB == "" {
		if len(args) == 0 {
			return "", nil, fmt.Errorf("a log argument, --trace-file or --db is required")
		}

		var logger = conf.newLogger()
		opts, err := conf.analyzerOptions(logger)
		if err != nil {
			return "", nil, err
		}
		trace, _, err := dhttrace.NewAnalyzer(opts...).Analyze(args[0], conf.Pointers)
		if err != nil {
			return "", nil, err
		}
		return trace.ID.String(), trace.Snapshots, nil
	}

	var traceID = uuid.Nil
	if conf.Trace != "" {
		var err error
		if traceID, err = uuid.Parse(conf.Trace); err != nil {
			return "", nil, fmt.Errorf("invalid trace id: %w", err)
		}
	}

	db, err := sql.Open("postgres", conf.DB)
	if err != nil {
		return "", nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return "", nil, fmt.Errorf("failed to ping database: %w", err)
	}

	traceID, snapshots, err := dhttrace.LoadSnapshots(ctx, db, conf.Table, traceID)
	if err != nil {
		return "", nil, err
	}
	return traceID.String(), snapshots, nil
}

// renderSnapshot prints snapshot i of a trace with the controls.
func renderSnapshot(w io.Writer, traceID string, snapshots []dhttrace.Snapshot, i int) {
	var snap = snapshots[i]

	var label = string(snap.Time)
	if snap.Backloop {
		label += " (backloop)"
	}
	fmt.Fprintf(w, "Trace %s | Snapshot %d/%d | %s\n\n", traceID, i+1, len(snapshots), label)

	writeNames(w, "Starting", snap.Starting)
	writeNames(w, "Ending", snap.Ending)
	writeNames(w, "Ongoing", snap.Ongoing)

	fmt.Fprintf(w, "\nControls:\n")
	fmt.Fprintf(w, "  [n/→/space] Next snapshot\n")
	fmt.Fprintf(w, "  [p/←] Previous snapshot\n")
	fmt.Fprintf(w, "  [g/G] First / backloop snapshot\n")
	fmt.Fprintf(w, "  [q] Quit\n")
}

func writeNames(w io.Writer, title string, names []string) {
	if len(names) == 0 {
		fmt.Fprintf(w, "%s: -\n", title)
		return
	}
	fmt.Fprintf(w, "%s (%d):\n  %s\n", title, len(names), strings.Join(names, "\n  "))
}
