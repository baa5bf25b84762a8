package main

import (
	"fmt"
	"os"

	"github.com/benvon/taskdeck/cmd/taskdeck/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "taskdeck",
		Short: "Recurring-task core for the taskdeck to-do app",
		Long:  "CLI for expanding, completing and managing recurring task series over the local store",
	}

	rootCmd.PersistentFlags().String("config", "", "path to the config file")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(commands.NewAddCmd())
	rootCmd.AddCommand(commands.NewAgendaCmd())
	rootCmd.AddCommand(commands.NewCompleteCmd())
	rootCmd.AddCommand(commands.NewUpdateCmd())
	rootCmd.AddCommand(commands.NewDeleteOccurrenceCmd())
	rootCmd.AddCommand(commands.NewDeleteSeriesCmd())
	rootCmd.AddCommand(commands.NewAdvanceCmd())
	rootCmd.AddCommand(commands.NewDescribeCmd())
	rootCmd.AddCommand(commands.NewRemindCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
