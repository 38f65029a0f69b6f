package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the tool version, overridable at link time.
var Version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the cykgen version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("cykgen", Version)
	},
}
