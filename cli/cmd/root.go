/*-------------------------------------------------------------------------
 *
 * root.go
 *    Root command and global flags for neuronchat-cli
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/cli/cmd/root.go
 *
 *-------------------------------------------------------------------------
 */

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neurondb/NeuronChat/cli/pkg/config"
)

var (
	apiURL       string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "neuronchat-cli",
	Short: "NeuronChat CLI - chat sessions, workflows, and federation management",
	Long: `NeuronChat CLI provides commands for talking to a NeuronChat server and
managing its sessions and federation nodes.

Examples:
  # Start an interactive chat
  neuronchat-cli chat

  # Send a single message
  neuronchat-cli chat --session my-session "Create invoice for John Smith"

  # List sessions
  neuronchat-cli session list

  # Inspect a session's stored context
  neuronchat-cli session show my-session

  # List federation nodes
  neuronchat-cli node list

  # List registered workflows
  neuronchat-cli workflow list
`,
}

func init() {
	settings, err := config.Load(config.DefaultPath())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		settings = &config.Settings{}
	}

	defaultURL := firstNonEmpty(os.Getenv("NEURONCHAT_URL"), settings.URL, "http://localhost:8090")
	defaultFormat := firstNonEmpty(settings.Format, "text")

	rootCmd.PersistentFlags().StringVar(&apiURL, "url", defaultURL, "NeuronChat API URL")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", defaultFormat, "Output format (text, json)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(workflowCmd)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

/* Execute runs the root command */
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
