package commands

import (
	"github.com/spf13/cobra"

	"github.com/angangwa/migration-agent/pkg/mcp"
	"github.com/angangwa/migration-agent/pkg/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var (
		configPath string
		reposPath  string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes repository discovery as tools that AI agents can
discover and invoke: scanning, insight storage, component management,
dependency recording, and report generation. Logs go to stderr as JSON so
stdout stays clean for the protocol.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			rt, err := newRuntime(runtimeOptions{
				configPath: configPath,
				reposPath:  reposPath,
				logJSON:    true,
			})
			if err != nil {
				return err
			}

			ctx := cobraCmd.Context()
			defer rt.Close(ctx)

			if rt.cfg.Telemetry.MetricsAddr != "" {
				diag, diagErr := observability.NewDiagnosticsServer(rt.cfg.Telemetry.MetricsAddr)
				if diagErr != nil {
					return diagErr
				}

				defer func() {
					_ = diag.Close()
				}()

				rt.providers.Logger.Info("diagnostics server listening", "addr", diag.Addr())
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Service: rt.service,
				Logger:  rt.providers.Logger,
				Metrics: rt.metrics,
				Tracer:  rt.providers.Tracer,
			})

			rt.providers.Logger.Info("mcp server starting", "tools", len(srv.ListToolNames()))

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path")
	cmd.Flags().StringVar(&reposPath, "repos-path", "", "repositories directory (overrides config)")

	return cmd
}
