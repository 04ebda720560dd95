package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/angangwa/migration-agent/pkg/discovery/model"
)

const maxFrameworksShown = 3

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	var (
		configPath string
		reposPath  string
		workers    int
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the repositories directory and print the inventory",
		Long: `Scan every repository under the configured repositories directory in
parallel, classify technology stacks, and persist the results. Subsequent
runs reuse the cached state.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(runtimeOptions{
				configPath: configPath,
				reposPath:  reposPath,
				workers:    workers,
				progress:   !jsonOut,
			})
			if err != nil {
				return err
			}

			ctx := cobraCmd.Context()
			defer rt.Close(ctx)

			resp := rt.service.Repositories(ctx)
			if !resp.Success {
				return fmt.Errorf("scan failed: %s", resp.Error)
			}

			state := rt.service.State()
			rt.metrics.RecordReposScanned(ctx, int64(len(state.Repositories)))

			if jsonOut {
				return writeJSON(os.Stdout, resp)
			}

			printInventoryTable(state)
			printScanSummary(state)

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	cmd.Flags().StringVar(&reposPath, "repos-path", "", "repositories directory (overrides config)")
	cmd.Flags().IntVar(&workers, "workers", 0, "scan worker count (overrides config)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the full response as JSON")

	return cmd
}

// printInventoryTable renders the repository inventory as a table.
func printInventoryTable(state *model.AnalysisState) {
	names := make([]string, 0, len(state.Repositories))
	for name := range state.Repositories {
		names = append(names, name)
	}

	sort.Strings(names)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(os.Stdout)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Repository", "Files", "Lines", "Frameworks", "Components"})

	for _, name := range names {
		repo := state.Repositories[name]

		frameworks := repo.TechnologyStack.Frameworks
		if len(frameworks) > maxFrameworksShown {
			frameworks = frameworks[:maxFrameworksShown]
		}

		components := strings.Join(repo.AssignedComponents, ", ")
		if components == "" {
			components = "-"
		}

		tbl.AppendRow(table.Row{
			name,
			repo.TotalFiles,
			repo.TotalLines,
			strings.Join(frameworks, ", "),
			components,
		})
	}

	tbl.Render()
}

// printScanSummary prints aggregate progress counters.
func printScanSummary(state *model.AnalysisState) {
	progress := state.Progress()

	fmt.Fprintln(os.Stdout)
	color.New(color.FgGreen).Fprintf(os.Stdout, "Scanned %d repositories\n", progress.TotalRepositories)
	fmt.Fprintf(os.Stdout, "  Investigated: %d (%.1f%%)\n", progress.RepositoriesWithInsights, progress.InvestigationProgress)
	fmt.Fprintf(os.Stdout, "  Assigned:     %d (%.1f%%)\n", progress.RepositoriesAssigned, progress.AssignmentProgress)
	fmt.Fprintf(os.Stdout, "  Components:   %d\n", progress.ComponentsCreated)
}

// writeJSON encodes a value as indented JSON.
func writeJSON(w *os.File, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	encodeErr := enc.Encode(value)
	if encodeErr != nil {
		return fmt.Errorf("encode output: %w", encodeErr)
	}

	return nil
}
