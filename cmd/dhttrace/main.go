package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "dhttrace",
		Short: "Reconstruct interval traces from DHT execution logs",
		Long: `Dhttrace turns the flat event log of a DHT deployment into interval facts
(operations in flight, membership, stable and read-only regimens, ideal ring
state, key responsibility) and a sequence of global snapshots that a
temporal-logic checker can verify.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (yaml, toml or json)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newSortCmd(),
		newCheckCmd(),
		newStepCmd(),
	)

	return rootCmd
}
