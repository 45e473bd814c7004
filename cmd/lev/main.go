// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package main

import (
	"os"

	"github.com/driverlev/lev/tool"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lev [command] (flags)",
	Short: "level file introspection tool",
	Long: `
Inspect, verify and rewrite level files. Block kinds are named as printed by
"lev kinds"; masks accept kind names joined by "|", "all", "traffic" or a
number such as 0x30300.
`,
}

func main() {
	cobra.EnableCommandSorting = false

	t := tool.New()
	rootCmd.AddCommand(t.Commands...)

	if err := rootCmd.Execute(); err != nil {
		// Cobra has already printed the error message.
		os.Exit(1)
	}
}
