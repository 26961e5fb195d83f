package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"go-dhttrace/checker"
)

func newCheckCmd() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "check <trace>",
		Short: "Run an external model checker on a written trace",
		Long: `Check runs the configured checker command with the model path and the trace
path appended as its last two arguments and prints the property verdicts
it reports.`,
		Args: cobra.ExactArgs(1),
		RunE: runCheck,
	}

	cmd.Flags().String("model", "", "Path of the logical system model (required)")
	cmd.Flags().String("checker", "", "Checker command line, e.g. \"java -cp alloy.jar Evaluator\"")
	cmd.Flags().Duration("timeout", 10*time.Minute, "Abort the checker after this long")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := conf.requireModel(); err != nil {
		return err
	}

	var ctx = cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, conf.Timeout)
	defer cancel()

	var c = checker.New(strings.Fields(conf.Checker),
		checker.WithStderr(cmd.ErrOrStderr()),
		checker.WithLogger(conf.newLogger()))

	result, err := c.Check(ctx, conf.Model, args[0])
	if err != nil && !errors.Is(err, checker.ErrCheckFailed) {
		return err
	}

	var out = cmd.OutOrStdout()
	for _, v := range result.Verdicts {
		fmt.Fprintf(out, "%-28s %-6s %s\n", v.Property, v.Result, v.Elapsed)
	}
	fmt.Fprintf(out, "checker finished in %s\n", result.Duration.Round(time.Millisecond))

	return err
}
