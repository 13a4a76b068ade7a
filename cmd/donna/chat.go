package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"donna/internal/agent"
	"donna/internal/agent/ports"
)

func newChatCommand() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := buildContainer(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close(context.Background()) }()
			return runChat(ctx, c, sessionID)
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "resume an existing session by id")
	return cmd
}

func runChat(ctx context.Context, c *container, sessionID string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          color.CyanString("you> "),
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
	})
	if err != nil {
		return err
	}
	defer func() { _ = rl.Close() }()

	color.New(color.FgMagenta, color.Bold).Println("Donna")
	fmt.Println("Type a request, or \"exit\" to leave.")
	if sessionID != "" {
		fmt.Printf("Resuming session %s\n", sessionID)
	}
	fmt.Println()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit", "/quit":
			return nil
		}

		stop := c.Timer.Track("turn")
		outcome, err := c.Engine.Submit(ctx, sessionID, line)
		stop()
		if err != nil {
			color.Red("Error: %v", err)
			continue
		}
		sessionID = outcome.SessionID

		outcome, err = resolvePending(ctx, c, outcome)
		if err != nil {
			color.Red("Error: %v", err)
			continue
		}
		printReply(outcome.Reply)
		fmt.Println()
	}
}

// resolvePending walks the approval loop until the turn produces a reply. A
// resumed turn can suspend again when the next plan is also guarded.
func resolvePending(ctx context.Context, c *container, outcome *agent.TurnOutcome) (*agent.TurnOutcome, error) {
	for outcome.Pending != nil {
		approved := askApproval(c, outcome.Pending)
		stop := c.Timer.Track("approval")
		next, err := c.Engine.ResolveApproval(ctx, outcome.SessionID, approved)
		stop()
		if err != nil {
			return nil, err
		}
		outcome = next
	}
	return outcome, nil
}

func askApproval(c *container, pending *ports.PendingApproval) bool {
	printPendingAction(pending)

	if c.Config.AutoApprove {
		color.Yellow("Auto-approve is on; running without asking.")
		return true
	}

	result := make(chan bool, 1)
	go func() {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Run %s", pending.Action),
			IsConfirm: true,
			Default:   "n",
		}
		_, err := prompt.Run()
		result <- err == nil
	}()

	timeout := time.Duration(c.Config.ApprovalTimeout) * time.Second
	if timeout <= 0 {
		return <-result
	}
	select {
	case approved := <-result:
		return approved
	case <-time.After(timeout):
		color.Yellow("\nNo decision after %s; not running the action.", timeout)
		return false
	}
}

func printPendingAction(pending *ports.PendingApproval) {
	color.New(color.FgYellow, color.Bold).Println("Approval needed")
	calls := pending.Calls
	if len(calls) == 0 {
		calls = []ports.ToolCall{{Name: pending.Action, Arguments: pending.Args}}
	}
	for _, call := range calls {
		args, err := json.MarshalIndent(call.Arguments, "  ", "  ")
		if err != nil || string(args) == "{}" || string(args) == "null" {
			fmt.Printf("  %s\n", color.HiWhiteString(call.Name))
			continue
		}
		fmt.Printf("  %s %s\n", color.HiWhiteString(call.Name), args)
	}
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".donna", "history")
}
