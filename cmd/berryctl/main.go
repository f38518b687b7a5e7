// Package main provides the berryctl CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "berryctl",
		Short: "Crop advisory scoring for strawberry farms",
		Long: `Berryctl scores greenhouse sensor readings against per-stage growing
profiles, tracks growth stages, and queries score history from a berryfarmd
server.`,
		Version: version,
	}

	rootCmd.AddCommand(
		newScoreCmd(),
		newStageCmd(),
		newHistoryCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
