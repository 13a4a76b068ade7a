package main

import (
	"github.com/spf13/cobra"

	"donna/internal/logging"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:     "donna",
		Short:   "Donna is a personal assistant for mail, calendar, tasks and news",
		Long:    "Donna plans each request with a language model, asks before taking guarded actions, and keeps every conversation resumable on disk.",
		Version: version,
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				logging.SetGlobalLevel(logging.LevelDebug)
			} else {
				logging.SetGlobalLevel(logging.LevelInfo)
			}
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(newChatCommand())
	root.AddCommand(newServeCommand())
	root.AddCommand(newSessionsCommand())
	return root
}
