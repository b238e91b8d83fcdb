package cmd

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "golang-portfolio",
	Short: "Portfolio accounting and backtest engine",
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
