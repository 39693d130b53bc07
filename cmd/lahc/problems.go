package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/copyleftdev/LAHC/internal/optimization/problems"
)

var problemsCmd = &cobra.Command{
	Use:   "problems",
	Short: "List the built-in benchmark problems",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range problems.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(problemsCmd)
}
