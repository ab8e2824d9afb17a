package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Rorical/RoriAgent/internal/tools"
)

var toolsFormat string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the agent can call",
	RunE: func(cmd *cobra.Command, args []string) error {
		gateway, err := openWorkspace()
		if err != nil {
			return err
		}
		registry := tools.NewDefaultRegistry(tools.Deps{Gateway: gateway, Logger: stderrLogger()})
		return writeSchemas(cmd.OutOrStdout(), registry.Discover(), toolsFormat)
	},
}

func init() {
	toolsCmd.Flags().StringVarP(&toolsFormat, "format", "f", "text", "output format: text, json or yaml")
	toolsCmd.Flags().StringVarP(&workspaceRoot, "workspace", "w", "", "directory the file tools are confined to (default: current directory)")
	rootCmd.AddCommand(toolsCmd)
}

func writeSchemas(w io.Writer, schemas []tools.Schema, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(schemas)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(schemas); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		for _, schema := range schemas {
			fmt.Fprintf(w, "%s\n  %s\n", schema.Name, schema.Description)
			for _, p := range schema.Params {
				marker := ""
				if p.Required {
					marker = " (required)"
				}
				fmt.Fprintf(w, "    %s: %s%s\n", p.Name, p.Type, marker)
			}
		}
		return nil
	}
	return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
}
