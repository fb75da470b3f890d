package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	routerx "github.com/techflow-labs/careflow/agent/agents/router"
)

func newChatCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the retention agents from the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			router, err := buildRouter(cmd.Context())
			if err != nil {
				return err
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			fmt.Printf("session %s, type 'exit' to quit\n", sessionID)
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				text := strings.TrimSpace(scanner.Text())
				if text == "" {
					continue
				}
				if text == "exit" || text == "quit" {
					return nil
				}

				conv, err := router.HandleMessage(cmd.Context(), sessionID, text)
				if err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
					continue
				}
				fmt.Printf("[%s] %s\n", conv.CurrentAgent, routerx.Reply(conv))
				if conv.Finalized() {
					fmt.Printf("(outcome recorded: %s)\n", conv.FinalAction)
				}
			}
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "resume an existing session id")
	return cmd
}
