package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const reportFileMode = 0o644

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	var (
		configPath string
		outputPath string
		deep       bool
		repoFilter []string
		noBasics   bool
		noDeps     bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate discovery and deep analysis reports",
		Long: `Generate the markdown discovery report from the persisted analysis state.
With --deep, generate the deep analysis report instead, optionally filtered
to specific repositories.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(runtimeOptions{configPath: configPath})
			if err != nil {
				return err
			}

			ctx := cobraCmd.Context()
			defer rt.Close(ctx)

			resp := rt.service.DiscoveryReport(ctx)
			if deep {
				resp = rt.service.DeepAnalysisReport(ctx, !noBasics, !noDeps, repoFilter)
			}

			if !resp.Success {
				return fmt.Errorf("report failed: %s", resp.Error)
			}

			data, ok := resp.Data.(map[string]any)
			if !ok {
				return fmt.Errorf("report failed: unexpected response shape")
			}

			content, _ := data["report_markdown"].(string)

			if outputPath != "" {
				writeErr := os.WriteFile(outputPath, []byte(content), reportFileMode)
				if writeErr != nil {
					return fmt.Errorf("write report: %w", writeErr)
				}

				fmt.Fprintf(os.Stderr, "Report written to %s\n", outputPath)

				return nil
			}

			fmt.Fprintln(os.Stdout, content)

			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&deep, "deep", false, "generate the deep analysis report")
	cmd.Flags().StringSliceVar(&repoFilter, "repos", nil, "limit the deep report to these repositories")
	cmd.Flags().BoolVar(&noBasics, "no-basics", false, "omit basic scan statistics from the deep report")
	cmd.Flags().BoolVar(&noDeps, "no-dependencies", false, "omit the dependency analysis section from the deep report")

	return cmd
}
