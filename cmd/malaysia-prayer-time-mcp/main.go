// Command malaysia-prayer-time-mcp serves Malaysian prayer times to MCP
// clients over stdio, optionally also over HTTP.
//
// Usage:
//
//	malaysia-prayer-time-mcp serve [--http :3333]
//	malaysia-prayer-time-mcp call get_prayer_times '{"zone":"SGR01"}'
//	malaysia-prayer-time-mcp tools --output tools.json
//	malaysia-prayer-time-mcp version
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/app"
	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/config"
	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/protocol"
	"github.com/waktusolat/malaysia-prayer-time-mcp/internal/version"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func (g *globalFlags) load() (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	serve := serveCmd(g)

	root := &cobra.Command{
		Use:          version.Name,
		Short:        "MCP server for Malaysian prayer times (JAKIM zones)",
		SilenceUsage: true,
		RunE:         serve.RunE,
		Args:         cobra.NoArgs,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default: ./config.yaml, ./config.yml or ./config.json)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(callCmd(g))
	root.AddCommand(toolsCmd())
	root.AddCommand(versionCmd())
	return root
}

func toolsCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Write the tool catalog (tools/list result) as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tb, err := app.NewToolbox(nil, nil)
			if err != nil {
				return err
			}
			raw, err := json.MarshalIndent(protocol.ListResult{Tools: tb.Describe()}, "", "  ")
			if err != nil {
				return err
			}
			raw = append(raw, '\n')
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(raw)
				return err
			}
			if err := os.WriteFile(output, raw, 0o644); err != nil {
				return fmt.Errorf("write catalog: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "catalog of %d tools written to %s\n", tb.Len(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default: stdout)")
	return cmd
}

func versionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(info)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
