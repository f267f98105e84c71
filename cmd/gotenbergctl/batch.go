package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ManuGH/gotenberg-client/internal/gotenberg"
	"golang.org/x/sync/errgroup"
)

const defaultParallel = 4

// batch runs fn for every URL with at most parallel requests in flight. A
// single URL is written to out; several URLs are written into the directory
// out as 1.<ext>, 2.<ext>, ... in argument order.
func (c *cli) batch(ctx context.Context, urls []string, out string, parallel int, fn func(context.Context, string) (*gotenberg.Result, error)) error {
	if len(urls) == 1 {
		res, err := fn(ctx, urls[0])
		if err != nil {
			return err
		}
		return c.save(res, out)
	}
	if out == "-" {
		return errors.New("cannot stream several results to stdout, use --output <dir>")
	}
	if out == "" {
		out = "."
	}
	if parallel < 1 {
		parallel = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, u := range urls {
		g.Go(func() error {
			res, err := fn(gctx, u)
			if err != nil {
				return fmt.Errorf("%s: %w", u, err)
			}
			return c.save(res, filepath.Join(out, fmt.Sprintf("%d%s", i+1, extension(res))))
		})
	}
	return g.Wait()
}
