package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ManuGH/gotenberg-client/internal/bootstrap"
	"github.com/ManuGH/gotenberg-client/internal/config"
	"github.com/ManuGH/gotenberg-client/internal/gotenberg"
	xglog "github.com/ManuGH/gotenberg-client/internal/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// cli holds state shared by every subcommand of one invocation.
type cli struct {
	configPath string
	baseURL    string
	logLevel   string
	timeout    time.Duration
	noWait     bool

	stdout io.Writer
	stderr io.Writer
	boot   bootstrap.Options

	cfg config.AppConfig
	rt  *bootstrap.Runtime

	mu sync.Mutex // serializes progress lines from batch workers
}

// run executes one command line and releases the client afterwards.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	return newCLI(stdout, stderr).execute(ctx, args)
}

func newCLI(stdout, stderr io.Writer) *cli {
	return &cli{stdout: stdout, stderr: stderr}
}

func (c *cli) execute(ctx context.Context, args []string) error {
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)
	// One request ID per invocation ties together the logs of batch workers.
	err := root.ExecuteContext(xglog.ContextWithRequestID(ctx, uuid.NewString()))
	if cerr := c.close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gotenbergctl",
		Short:         "Convert documents with a Gotenberg server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.loadConfig(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "path to YAML configuration file (env GOTENBERG_CONFIG)")
	pf.StringVar(&c.baseURL, "base-url", "", "Gotenberg base URL, overrides gotenberg.baseUrl")
	pf.StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.DurationVar(&c.timeout, "timeout", 0, "per-request timeout, overrides gotenberg.timeout")
	pf.BoolVar(&c.noWait, "no-wait", false, "fail throttled requests instead of waiting for the rate limiter")

	root.AddCommand(
		c.convertCmd(),
		c.screenshotCmd(),
		c.pdfCmd(),
		c.metadataCmd(),
		c.healthCmd(),
		c.versionCmd(),
		c.configCmd(),
		c.cacheCmd(),
	)
	return root
}

// loadConfig resolves the configuration. Flags take precedence over the
// environment and the file.
func (c *cli) loadConfig(cmd *cobra.Command) error {
	path := c.configPath
	if path == "" {
		path = config.ParseString("GOTENBERG_CONFIG", "")
	}
	cfg, err := config.NewLoader(path).Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.Gotenberg.BaseURL = c.baseURL
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = c.logLevel
	}
	if flags.Changed("timeout") {
		cfg.Gotenberg.Timeout = c.timeout
	}
	if flags.Changed("no-wait") {
		cfg.Gotenberg.RateLimit.NoWait = c.noWait
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

// client bootstraps the Gotenberg client on first use.
func (c *cli) client(ctx context.Context) (*gotenberg.Client, error) {
	if c.rt != nil {
		return c.rt.Client, nil
	}
	opts := c.boot
	if opts.LogOutput == nil {
		opts.LogOutput = c.stderr
	}
	rt, err := bootstrap.New(ctx, c.cfg, opts)
	if err != nil {
		if errors.Is(err, bootstrap.ErrNotConfigured) {
			return nil, fmt.Errorf("%w (use --base-url, GOTENBERG_BASE_URL or enable compose discovery)", err)
		}
		return nil, err
	}
	c.rt = rt
	return rt.Client, nil
}

func (c *cli) close(ctx context.Context) error {
	if c.rt == nil {
		return nil
	}
	err := c.rt.Close(ctx)
	c.rt = nil
	return err
}

// exitCode maps client errors onto distinct process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, bootstrap.ErrNotConfigured), errors.Is(err, config.ErrInvalidConfig), errors.Is(err, config.ErrUnknownConfigField):
		return 3
	case errors.Is(err, gotenberg.ErrBadRequest), errors.Is(err, gotenberg.ErrNoInput):
		return 2
	default:
		return 1
	}
}
