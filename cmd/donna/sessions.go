package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"donna/internal/agent/ports"
	"donna/internal/config"
	"donna/internal/logging"
	"donna/internal/session/filestore"
)

func newSessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored conversations",
	}
	cmd.AddCommand(newSessionsListCommand())
	cmd.AddCommand(newSessionsDeleteCommand())
	return cmd
}

// openStore opens the session store directly, without the full container, so
// session management works with no planner API key configured.
func openStore() (ports.SessionStore, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return filestore.New(cfg.SessionDir, logging.NewComponentLogger("SessionStore"))
}

func newSessionsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			ids, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Println("No stored sessions.")
				return nil
			}
			for _, id := range ids {
				session, err := store.Get(cmd.Context(), id)
				if err != nil {
					fmt.Printf("%s  (unreadable: %v)\n", id, err)
					continue
				}
				line := fmt.Sprintf("%s  %d messages  updated %s",
					id, len(session.Messages), session.UpdatedAt.Format("2006-01-02 15:04"))
				if session.AwaitingApproval {
					line += "  " + color.YellowString("[awaiting approval]")
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}

func newSessionsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}
