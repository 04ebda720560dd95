// Package main provides the entry point for the discovery CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/angangwa/migration-agent/cmd/discovery/commands"
	"github.com/angangwa/migration-agent/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "discovery",
		Short: "Repository discovery for legacy application migration",
		Long: `Discovery scans a directory of repositories, classifies their technology
stacks, and maintains a durable working memory of investigation findings,
logical components, and inter-repository dependencies.

Commands:
  scan      Scan the repositories directory and print the inventory
  report    Generate discovery and deep analysis reports
  graph     Build the inter-repository dependency graph
  mcp       Start the MCP server for AI agent integration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewScanCommand())
	rootCmd.AddCommand(commands.NewReportCommand())
	rootCmd.AddCommand(commands.NewGraphCommand())
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "discovery %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
