package main

import (
	"context"
	"os"

	"github.com/ManuGH/gotenberg-client/internal/gotenberg"
	"github.com/spf13/cobra"
)

type screenshotFlags struct {
	request requestFlags
	page    pageFlags

	out      string
	assets   []string
	width    int
	height   int
	clip     bool
	format   string
	quality  int
	optimize bool
}

func (f *screenshotFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	f.request.register(fs)
	f.page.register(fs)
	fs.StringVarP(&f.out, "output", "o", "", "output file ('-' for stdout)")
	fs.StringArrayVar(&f.assets, "asset", nil, "extra file referenced by the page (repeatable)")
	fs.IntVar(&f.width, "width", 800, "viewport width in pixels")
	fs.IntVar(&f.height, "height", 600, "viewport height in pixels")
	fs.BoolVar(&f.clip, "clip", false, "clip the screenshot to the viewport")
	fs.StringVar(&f.format, "format", "", "image format (png, jpeg, webp)")
	fs.IntVar(&f.quality, "quality", 100, "compression quality for jpeg (0 to 100)")
	fs.BoolVar(&f.optimize, "optimize-for-speed", false, "trade image size for encoding speed")
}

func (f *screenshotFlags) build(cmd *cobra.Command) (*gotenberg.ChromiumScreenshotOptions, error) {
	fs := cmd.Flags()
	o := gotenberg.NewChromiumScreenshotOptions()
	applyRequest[gotenberg.ChromiumScreenshotOptions](o, &f.request)
	if err := applyPage[gotenberg.ChromiumScreenshotOptions](o, fs, &f.page); err != nil {
		return nil, err
	}
	for _, a := range f.assets {
		o.File(gotenberg.FileFromPath(a))
	}
	if fs.Changed("width") {
		o.Width(f.width)
	}
	if fs.Changed("height") {
		o.Height(f.height)
	}
	if fs.Changed("clip") {
		o.Clip(f.clip)
	}
	if f.format != "" {
		o.Format(gotenberg.ScreenshotFormat(f.format))
	}
	if fs.Changed("quality") {
		o.Quality(f.quality)
	}
	if fs.Changed("optimize-for-speed") {
		o.OptimizeForSpeed(f.optimize)
	}
	return o, nil
}

func (c *cli) screenshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screenshot",
		Short: "Capture HTML, URLs or Markdown as an image",
	}
	cmd.AddCommand(c.screenshotHTMLCmd(), c.screenshotURLCmd(), c.screenshotMarkdownCmd())
	return cmd
}

func (c *cli) screenshotHTMLCmd() *cobra.Command {
	var f screenshotFlags
	cmd := &cobra.Command{
		Use:   "html <index.html>",
		Short: "Capture an HTML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			html, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			opts, err := f.build(cmd)
			if err != nil {
				return err
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			res, err := client.ScreenshotHTML(ctx, html, opts)
			if err != nil {
				return err
			}
			return c.save(res, f.out)
		},
	}
	f.register(cmd)
	return cmd
}

func (c *cli) screenshotURLCmd() *cobra.Command {
	var (
		f        screenshotFlags
		parallel int
	)
	cmd := &cobra.Command{
		Use:   "url <url>...",
		Short: "Capture one or more web pages",
		Long: `Capture one or more web pages.

With several URLs the captures run concurrently and --output names a
directory that receives 1.png, 2.png, ... in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := f.build(cmd)
			if err != nil {
				return err
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			return c.batch(ctx, args, f.out, parallel, func(ctx context.Context, u string) (*gotenberg.Result, error) {
				return client.ScreenshotURL(ctx, u, opts)
			})
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&parallel, "parallel", defaultParallel, "maximum concurrent captures")
	return cmd
}

func (c *cli) screenshotMarkdownCmd() *cobra.Command {
	var f screenshotFlags
	cmd := &cobra.Command{
		Use:   "markdown <index.html> <file.md>...",
		Short: "Capture Markdown rendered through an HTML template",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := f.build(cmd)
			if err != nil {
				return err
			}
			opts.File(gotenberg.FileFromPathAs("index.html", args[0]))
			for _, md := range args[1:] {
				opts.File(gotenberg.FileFromPath(md))
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			res, err := client.ScreenshotMarkdown(ctx, opts)
			if err != nil {
				return err
			}
			return c.save(res, f.out)
		},
	}
	f.register(cmd)
	return cmd
}
