// Package cmd holds the autocalc command line: the bot server, database
// migrations and an offline calculator.
package cmd

import (
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "autocalc",
	Short: "Turnkey import cost calculator bot for cars delivered to Vladivostok",
	Long: `autocalc runs a Telegram bot that walks a user through country, price,
age and engine displacement and replies with the landed cost of the car:
price and transport, customs duty and fixed fees.

Examples:
  autocalc serve
  autocalc migrate up
  autocalc calc --country Китай --price 150000 --age "До 3 лет" --engine 1800 --rate-rub 11.05 --rate-eur 0.13`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(calcCmd)
}

func logLevel(configured string) string {
	if verbose {
		return "debug"
	}
	return configured
}
