package main

import (
	"context"
	"os"

	"github.com/ManuGH/gotenberg-client/internal/gotenberg"
	"github.com/spf13/cobra"
)

// chromiumConvertFlags collects everything that shapes a Chromium PDF.
type chromiumConvertFlags struct {
	request requestFlags
	page    pageFlags
	output  outputFlags
	split   splitFlags

	out             string
	assets          []string
	paper           string
	landscape       bool
	margin          float64
	printBackground bool
	scale           float64
	pageRanges      string
	singlePage      bool
	outline         bool
	tagged          bool
	preferCSS       bool
}

func (f *chromiumConvertFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	f.request.register(fs)
	f.page.register(fs)
	f.output.register(fs)
	f.split.register(fs)
	fs.StringVarP(&f.out, "output", "o", "", "output file ('-' for stdout)")
	fs.StringArrayVar(&f.assets, "asset", nil, "extra file referenced by the page, e.g. CSS or images (repeatable)")
	fs.StringVar(&f.paper, "paper", "", "paper size (letter, legal, tabloid, ledger, a0-a6)")
	fs.BoolVar(&f.landscape, "landscape", false, "landscape orientation")
	fs.Float64Var(&f.margin, "margin", 0, "margin in inches applied to all sides")
	fs.BoolVar(&f.printBackground, "print-background", false, "print background graphics")
	fs.Float64Var(&f.scale, "scale", 1, "page rendering scale (0.1 to 2)")
	fs.StringVar(&f.pageRanges, "page-ranges", "", "pages to print, e.g. 1-5,8")
	fs.BoolVar(&f.singlePage, "single-page", false, "print the whole page as one long page")
	fs.BoolVar(&f.outline, "outline", false, "generate a document outline")
	fs.BoolVar(&f.tagged, "tagged", false, "generate a tagged (accessible) PDF")
	fs.BoolVar(&f.preferCSS, "prefer-css-page-size", false, "use the page size defined by CSS")
}

func (f *chromiumConvertFlags) build(cmd *cobra.Command) (*gotenberg.ChromiumConvertOptions, error) {
	fs := cmd.Flags()
	o := gotenberg.NewChromiumConvertOptions()
	applyRequest[gotenberg.ChromiumConvertOptions](o, &f.request)
	if err := applyPage[gotenberg.ChromiumConvertOptions](o, fs, &f.page); err != nil {
		return nil, err
	}
	if err := applyOutput[gotenberg.ChromiumConvertOptions](o, fs, &f.output); err != nil {
		return nil, err
	}
	if s, ok := f.split.options(); ok {
		o.Split(s)
	}
	for _, a := range f.assets {
		o.File(gotenberg.FileFromPath(a))
	}
	if f.paper != "" {
		size, err := paperSize(f.paper)
		if err != nil {
			return nil, err
		}
		o.PaperSize(size)
	}
	if fs.Changed("margin") {
		o.Margins(gotenberg.Margins{Top: f.margin, Bottom: f.margin, Left: f.margin, Right: f.margin})
	}
	if fs.Changed("landscape") {
		o.Landscape(f.landscape)
	}
	if fs.Changed("print-background") {
		o.PrintBackground(f.printBackground)
	}
	if fs.Changed("scale") {
		o.Scale(f.scale)
	}
	if f.pageRanges != "" {
		o.NativePageRanges(f.pageRanges)
	}
	if fs.Changed("single-page") {
		o.SinglePage(f.singlePage)
	}
	if fs.Changed("outline") {
		o.GenerateDocumentOutline(f.outline)
	}
	if fs.Changed("tagged") {
		o.GenerateTaggedPDF(f.tagged)
	}
	if fs.Changed("prefer-css-page-size") {
		o.PreferCSSPageSize(f.preferCSS)
	}
	return o, nil
}

func (c *cli) convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert HTML, URLs, Markdown or office documents to PDF",
	}
	cmd.AddCommand(c.convertHTMLCmd(), c.convertURLCmd(), c.convertMarkdownCmd(), c.convertOfficeCmd())
	return cmd
}

func (c *cli) convertHTMLCmd() *cobra.Command {
	var f chromiumConvertFlags
	cmd := &cobra.Command{
		Use:   "html <index.html>",
		Short: "Convert an HTML file to PDF",
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
			res, err := client.ConvertHTML(ctx, html, opts)
			if err != nil {
				return err
			}
			return c.save(res, f.out)
		},
	}
	f.register(cmd)
	return cmd
}

func (c *cli) convertURLCmd() *cobra.Command {
	var (
		f        chromiumConvertFlags
		parallel int
	)
	cmd := &cobra.Command{
		Use:   "url <url>...",
		Short: "Convert one or more web pages to PDF",
		Long: `Convert one or more web pages to PDF.

With several URLs the conversions run concurrently and --output names a
directory that receives 1.pdf, 2.pdf, ... in argument order.`,
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
				return client.ConvertURL(ctx, u, opts)
			})
		},
	}
	f.register(cmd)
	cmd.Flags().IntVar(&parallel, "parallel", defaultParallel, "maximum concurrent conversions")
	return cmd
}

func (c *cli) convertMarkdownCmd() *cobra.Command {
	var f chromiumConvertFlags
	cmd := &cobra.Command{
		Use:   "markdown <index.html> <file.md>...",
		Short: "Render Markdown files through an HTML template to PDF",
		Long: `Render Markdown files to PDF.

The template is sent as index.html and pulls each Markdown file in with
{{ toHTML "file.md" }}.`,
		Args: cobra.MinimumNArgs(2),
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
			res, err := client.ConvertMarkdown(ctx, opts)
			if err != nil {
				return err
			}
			return c.save(res, f.out)
		},
	}
	f.register(cmd)
	return cmd
}

func (c *cli) convertOfficeCmd() *cobra.Command {
	var (
		request requestFlags
		output  outputFlags
		split   splitFlags

		out             string
		password        string
		landscape       bool
		pageRanges      string
		merge           bool
		quality         int
		maxResolution   int
		exportBookmarks bool
		exportNotes     bool
		skipEmpty       bool
		singleSheets    bool
	)
	cmd := &cobra.Command{
		Use:   "office <file>...",
		Short: "Convert office documents (docx, xlsx, odt, ...) to PDF with LibreOffice",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fs := cmd.Flags()
			o := gotenberg.NewLibreOfficeOptions()
			applyRequest[gotenberg.LibreOfficeOptions](o, &request)
			if err := applyOutput[gotenberg.LibreOfficeOptions](o, fs, &output); err != nil {
				return err
			}
			if s, ok := split.options(); ok {
				o.Split(s)
			}
			for _, p := range args {
				o.File(gotenberg.FileFromPath(p))
			}
			if password != "" {
				o.Password(password)
			}
			if fs.Changed("landscape") {
				o.Landscape(landscape)
			}
			if pageRanges != "" {
				o.NativePageRanges(pageRanges)
			}
			if fs.Changed("merge") {
				o.Merge(merge)
			}
			if fs.Changed("quality") {
				o.Quality(quality)
			}
			if fs.Changed("max-image-resolution") {
				o.ReduceImageResolution(true).MaxImageResolution(maxResolution)
			}
			if fs.Changed("export-bookmarks") {
				o.ExportBookmarks(exportBookmarks)
			}
			if fs.Changed("export-notes") {
				o.ExportNotes(exportNotes)
			}
			if fs.Changed("skip-empty-pages") {
				o.SkipEmptyPages(skipEmpty)
			}
			if fs.Changed("single-page-sheets") {
				o.SinglePageSheets(singleSheets)
			}

			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			res, err := client.ConvertOffice(ctx, o)
			if err != nil {
				return err
			}
			return c.save(res, out)
		},
	}

	fs := cmd.Flags()
	request.register(fs)
	output.register(fs)
	split.register(fs)
	fs.StringVarP(&out, "output", "o", "", "output file ('-' for stdout)")
	fs.StringVar(&password, "password", "", "password to open the source document")
	fs.BoolVar(&landscape, "landscape", false, "landscape orientation")
	fs.StringVar(&pageRanges, "page-ranges", "", "pages to export, e.g. 1-3")
	fs.BoolVar(&merge, "merge", false, "merge all outputs into one PDF")
	fs.IntVar(&quality, "quality", 90, "JPEG quality for images (1 to 100)")
	fs.IntVar(&maxResolution, "max-image-resolution", 300, "downsample images to this DPI (75, 150, 300, 600 or 1200)")
	fs.BoolVar(&exportBookmarks, "export-bookmarks", true, "export bookmarks")
	fs.BoolVar(&exportNotes, "export-notes", false, "export notes")
	fs.BoolVar(&skipEmpty, "skip-empty-pages", false, "skip empty pages")
	fs.BoolVar(&singleSheets, "single-page-sheets", false, "render each spreadsheet on one page")
	return cmd
}
