/*-------------------------------------------------------------------------
 *
 * main.go
 *    Main entry point for neuronchat-cli
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/cli/main.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"github.com/neurondb/NeuronChat/cli/cmd"
)

func main() {
	cmd.Execute()
}
