/*-------------------------------------------------------------------------
 *
 * workflow.go
 *    Workflow commands for neuronchat-cli
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/cli/cmd/workflow.go
 *
 *-------------------------------------------------------------------------
 */

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neurondb/NeuronChat/cli/pkg/client"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Inspect server workflows",
}

var workflowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered workflows",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(apiURL)
		workflows, err := c.ListWorkflows()
		if err != nil {
			return err
		}

		if outputFormat == "json" {
			data, err := json.MarshalIndent(workflows, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		if len(workflows) == 0 {
			fmt.Println("No workflows registered.")
			return nil
		}
		for _, wf := range workflows {
			fmt.Printf("%-24s %s\n", wf.ID, wf.Goal)
		}
		return nil
	},
}

func init() {
	workflowCmd.AddCommand(workflowListCmd)
}
