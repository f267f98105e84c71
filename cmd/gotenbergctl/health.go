package main

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ManuGH/gotenberg-client/internal/version"
	"github.com/spf13/cobra"
)

// errUnhealthy signals a reachable but degraded server.
var errUnhealthy = errors.New("gotenberg is unhealthy")

func (c *cli) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the Gotenberg health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			status, err := client.Health(ctx)
			if status == nil {
				return err
			}

			fmt.Fprintf(c.stdout, "status: %s\n", status.Status)
			names := make([]string, 0, len(status.Details))
			for name := range status.Details {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				m := status.Details[name]
				line := fmt.Sprintf("  %s: %s", name, m.Status)
				if m.Error != "" {
					line += " (" + m.Error + ")"
				}
				fmt.Fprintln(c.stdout, line)
			}

			if err != nil {
				return err
			}
			if !status.Healthy() {
				return errUnhealthy
			}
			return nil
		},
	}
}

func (c *cli) versionCmd() *cobra.Command {
	var clientOnly bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print client and server versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(c.stdout, "gotenbergctl %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
			if clientOnly {
				return nil
			}
			ctx := cmd.Context()
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			v, err := client.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "gotenberg %s (%s)\n", v, client.BaseURL())
			return nil
		},
	}
	cmd.Flags().BoolVar(&clientOnly, "client", false, "only print the client version")
	return cmd
}
