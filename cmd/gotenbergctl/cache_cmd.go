package main

import (
	"context"
	"fmt"

	"github.com/ManuGH/gotenberg-client/internal/bootstrap"
	"github.com/ManuGH/gotenberg-client/internal/cache"
	"github.com/spf13/cobra"
)

func (c *cli) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or empty the metadata cache",
	}
	cmd.AddCommand(
		c.cacheRunCmd("stats", "Print cache counters", func(cmd *cobra.Command, store cache.Cache) error {
			if hc, ok := store.(interface{ HealthCheck(context.Context) error }); ok {
				if err := hc.HealthCheck(cmd.Context()); err != nil {
					return fmt.Errorf("cache unreachable: %w", err)
				}
			}
			st := store.Stats()
			_, err := fmt.Fprintf(c.stdout, "backend: %s\nentries: %d\nhits: %d\nmisses: %d\n",
				c.cfg.Cache.Backend, st.CurrentSize, st.Hits, st.Misses)
			return err
		}),
		c.cacheRunCmd("clear", "Remove every cached entry", func(cmd *cobra.Command, store cache.Cache) error {
			before := store.Stats().CurrentSize
			store.Clear(cmd.Context())
			_, err := fmt.Fprintf(c.stdout, "cleared %d entries\n", before-store.Stats().CurrentSize)
			return err
		}),
	)
	return cmd
}

// cacheRunCmd opens only the cache; no Gotenberg connection is needed.
func (c *cli) cacheRunCmd(use, short string, fn func(*cobra.Command, cache.Cache) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := bootstrap.OpenCache(cmd.Context(), c.cfg.Cache)
			if err != nil {
				return err
			}
			defer store.Close()
			return fn(cmd, store)
		},
	}
}
