/*-------------------------------------------------------------------------
 *
 * node.go
 *    Federation node commands for neuronchat-cli
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/cli/cmd/node.go
 *
 *-------------------------------------------------------------------------
 */

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neurondb/NeuronChat/cli/pkg/client"
)

var (
	nodeName        string
	nodeEndpoint    string
	nodeCollections []string
	nodeDataTypes   []string
	nodeKeywords    []string
	nodeCollectors  []string
	nodeWorkflows   []string
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Manage federation nodes",
}

var nodeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered nodes",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(apiURL)
		nodes, err := c.ListNodes()
		if err != nil {
			return err
		}

		if outputFormat == "json" {
			data, err := json.MarshalIndent(nodes, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		if len(nodes) == 0 {
			fmt.Println("No nodes registered.")
			return nil
		}
		for _, n := range nodes {
			fmt.Printf("%-20s %-30s keywords=[%s]\n", n.Slug, n.Endpoint, strings.Join(n.Keywords, ", "))
		}
		return nil
	},
}

var nodeRegisterCmd = &cobra.Command{
	Use:   "register <slug>",
	Short: "Register a node and its capabilities",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if nodeEndpoint == "" {
			return fmt.Errorf("--endpoint is required")
		}
		c := client.NewClient(apiURL)
		node := &client.Node{
			Slug:        args[0],
			Name:        nodeName,
			Endpoint:    nodeEndpoint,
			Collections: nodeCollections,
			DataTypes:   nodeDataTypes,
			Keywords:    nodeKeywords,
			Collectors:  nodeCollectors,
			Workflows:   nodeWorkflows,
		}
		if node.Name == "" {
			node.Name = args[0]
		}
		if err := c.RegisterNode(node); err != nil {
			return err
		}
		fmt.Printf("Node %s registered.\n", args[0])
		return nil
	},
}

var nodeDeregisterCmd = &cobra.Command{
	Use:   "deregister <slug>",
	Short: "Remove a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(apiURL)
		if err := c.DeregisterNode(args[0]); err != nil {
			return err
		}
		fmt.Printf("Node %s deregistered.\n", args[0])
		return nil
	},
}

func init() {
	nodeRegisterCmd.Flags().StringVar(&nodeName, "name", "", "Display name")
	nodeRegisterCmd.Flags().StringVar(&nodeEndpoint, "endpoint", "", "Base URL of the node's API")
	nodeRegisterCmd.Flags().StringSliceVar(&nodeCollections, "collections", nil, "Owned knowledge collections")
	nodeRegisterCmd.Flags().StringSliceVar(&nodeDataTypes, "data-types", nil, "Owned data types")
	nodeRegisterCmd.Flags().StringSliceVar(&nodeKeywords, "keywords", nil, "Domain keywords")
	nodeRegisterCmd.Flags().StringSliceVar(&nodeCollectors, "collectors", nil, "Autonomous collector names")
	nodeRegisterCmd.Flags().StringSliceVar(&nodeWorkflows, "workflows", nil, "Workflow entity names")

	nodeCmd.AddCommand(nodeListCmd)
	nodeCmd.AddCommand(nodeRegisterCmd)
	nodeCmd.AddCommand(nodeDeregisterCmd)
}
