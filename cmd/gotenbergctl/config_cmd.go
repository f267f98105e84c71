// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"

	"github.com/ManuGH/gotenberg-client/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(c.configShowCmd())
	return cmd
}

func (c *cli) configShowCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			masked := config.MaskSecrets(c.cfg)
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(c.stdout)
				enc.SetIndent(2)
				if err := enc.Encode(masked); err != nil {
					return fmt.Errorf("encode yaml: %w", err)
				}
				return enc.Close()
			case "json":
				enc := json.NewEncoder(c.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(masked)
			default:
				return fmt.Errorf("unsupported format %q (use yaml or json)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format (yaml or json)")
	return cmd
}
