package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Command line flags
var (
	configFile string

	// subs and seed flags
	chatID    int64
	inputFile string
)

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:     "pricealert",
		Short:   "Telegram bot that alerts when prices cross subscribed levels",
		Version: "1.0.0",
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")

	// Add commands
	rootCmd.AddCommand(buildRunCmd())
	rootCmd.AddCommand(buildParseCmd())
	rootCmd.AddCommand(buildSubsCmd())
	rootCmd.AddCommand(buildSeedCmd())

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
