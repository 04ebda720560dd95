package commands

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/spf13/cobra"

	"github.com/angangwa/migration-agent/pkg/discovery/service"
	"github.com/angangwa/migration-agent/pkg/discovery/validate"
)

const fullZoomPct = 100

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	var (
		configPath string
		format     string
		evidence   bool
		htmlPath   string
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Build the inter-repository dependency graph",
		Long: `Build the dependency graph from recorded dependencies. The structured
format emits JSON; mermaid emits a diagram for markdown embedding. With
--html, an interactive dependency matrix is written as an HTML page.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(runtimeOptions{configPath: configPath})
			if err != nil {
				return err
			}

			ctx := cobraCmd.Context()
			defer rt.Close(ctx)

			resp := rt.service.DependencyGraph(ctx, format, evidence)
			if !resp.Success {
				return fmt.Errorf("graph failed: %s", resp.Error)
			}

			if htmlPath != "" {
				graph, ok := resp.Data.(*validate.Graph)
				if !ok {
					// The mermaid format returns a map; rebuild for rendering.
					graph, ok = rt.service.DependencyGraph(ctx, service.GraphFormatStructured, evidence).Data.(*validate.Graph)
					if !ok {
						return fmt.Errorf("graph failed: unexpected response shape")
					}
				}

				return renderGraphHTML(graph, htmlPath)
			}

			if format == service.GraphFormatMermaid {
				data, ok := resp.Data.(map[string]any)
				if !ok {
					return fmt.Errorf("graph failed: unexpected response shape")
				}

				fmt.Fprintln(os.Stdout, data["mermaid"])

				return nil
			}

			return writeJSON(os.Stdout, resp.Data)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	cmd.Flags().StringVarP(&format, "format", "f", service.GraphFormatStructured, "output format: structured, mermaid, or both")
	cmd.Flags().BoolVar(&evidence, "evidence", false, "include evidence lists on edges")
	cmd.Flags().StringVar(&htmlPath, "html", "", "write an interactive HTML graph to this path")

	return cmd
}

// renderGraphHTML writes the dependency graph as an adjacency heatmap page:
// one cell per (source, target) pair, valued by the number of recorded
// dependency types between them.
func renderGraphHTML(graph *validate.Graph, path string) error {
	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Repository Dependency Matrix",
			Subtitle: fmt.Sprintf("%d repositories, %d dependencies", len(graph.Nodes), len(graph.Edges)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: fullZoomPct}, opts.DataZoom{Type: "inside"}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			Data:      graph.Nodes,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:      "category",
			Data:      graph.Nodes,
			SplitArea: &opts.SplitArea{Show: opts.Bool(true)},
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        maxEdgeWeight(graph),
			InRange:    &opts.VisualMapInRange{Color: []string{"#f6efa6", "#d88273", "#bf444c"}},
		}),
	)

	index := make(map[string]int, len(graph.Nodes))
	for i, name := range graph.Nodes {
		index[name] = i
	}

	weights := map[[2]int]int{}
	for _, edge := range graph.Edges {
		weights[[2]int{index[edge.Source], index[edge.Target]}]++
	}

	data := make([]opts.HeatMapData, 0, len(weights))
	for cell, count := range weights {
		data = append(data, opts.HeatMapData{Value: []any{cell[0], cell[1], count}})
	}

	hm.AddSeries("dependencies", data)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create graph file: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	renderErr := hm.Render(f)
	if renderErr != nil {
		return fmt.Errorf("render graph: %w", renderErr)
	}

	fmt.Fprintf(os.Stderr, "Graph written to %s\n", path)

	return nil
}

// maxEdgeWeight is the highest dependency count between any ordered pair.
func maxEdgeWeight(graph *validate.Graph) float32 {
	counts := map[[2]string]int{}
	maxVal := 1

	for _, edge := range graph.Edges {
		key := [2]string{edge.Source, edge.Target}
		counts[key]++

		if counts[key] > maxVal {
			maxVal = counts[key]
		}
	}

	return float32(maxVal)
}
