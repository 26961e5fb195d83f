package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	dhttrace "go-dhttrace"
)

func newSortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sort <log> [output]",
		Short: "Normalise timestamps and sort a raw log by time",
		Long: `Sort zero-pads the clock part of every timestamp and stable-sorts the lines
by time. Without an output path the sorted log is written to stdout; an
output path equal to the input sorts the log in place.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runSort,
	}
}

func runSort(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	var logger = conf.newLogger()

	in, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer in.Close()

	var sorted bytes.Buffer
	n, err := dhttrace.SortLog(in, &sorted)
	if err != nil {
		return fmt.Errorf("failed to sort %s: %w", args[0], err)
	}

	if len(args) == 1 {
		_, err := sorted.WriteTo(cmd.OutOrStdout())
		return err
	}

	if err := atomic.WriteFile(args[1], &sorted); err != nil {
		return fmt.Errorf("failed to write %s: %w", args[1], err)
	}
	logger.Info("log sorted", "lines", n, "output", args[1])
	return nil
}
