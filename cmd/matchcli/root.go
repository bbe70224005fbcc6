package main

import (
	"github.com/spf13/cobra"
)

const app = "matchcli"

var rootCmd = &cobra.Command{
	Use:   app,
	Short: "matchcli analyzes edital requirements against product datasheets",
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
}

func main() {
	if err := Execute(); err != nil {
		cobra.CheckErr(err)
	}
}
