/*-------------------------------------------------------------------------
 *
 * chat.go
 *    Chat commands for neuronchat-cli
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/cli/cmd/chat.go
 *
 *-------------------------------------------------------------------------
 */

package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/neurondb/NeuronChat/cli/pkg/client"
)

var (
	chatSessionID string
	chatUserID    string
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the NeuronChat server",
	Long: `Send a single message, or start an interactive chat when no message is given.

The session id is kept across messages so workflows and follow-ups work
as they do in production. Omit --session to start a fresh session.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "Session id (generated when empty)")
	chatCmd.Flags().StringVar(&chatUserID, "user", "", "User id attached to the session")
}

func runChat(cmd *cobra.Command, args []string) error {
	c := client.NewClient(apiURL)

	sessionID := chatSessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
		fmt.Printf("Session: %s\n", sessionID)
	}

	if len(args) > 0 {
		return sendMessage(c, sessionID, strings.Join(args, " "))
	}

	fmt.Println("Interactive chat. Type 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "exit" || message == "quit" {
			break
		}
		if err := sendMessage(c, sessionID, message); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	return scanner.Err()
}

func sendMessage(c *client.Client, sessionID, message string) error {
	turn, err := c.Chat(sessionID, chatUserID, message)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		data, err := json.MarshalIndent(turn, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(turn.Message)
	if turn.Workflow != "" {
		fmt.Printf("  [workflow: %s]\n", turn.Workflow)
	}
	return nil
}
