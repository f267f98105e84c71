package main

import (
	"context"

	"github.com/ManuGH/gotenberg-client/internal/gotenberg"
	"github.com/spf13/cobra"
)

type pdfEngineCall func(*gotenberg.Client, context.Context, *gotenberg.PDFEngineOptions) (*gotenberg.Result, error)

func (c *cli) pdfCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pdf",
		Short: "Manipulate existing PDFs with the PDF engines",
	}
	cmd.AddCommand(
		c.pdfEngineCmd("merge <file.pdf>...", "Merge PDFs in argument order", (*gotenberg.Client).MergePDFs, false),
		c.pdfEngineCmd("split <file.pdf>...", "Split PDFs by intervals or pages", (*gotenberg.Client).SplitPDFs, true),
		c.pdfEngineCmd("flatten <file.pdf>...", "Flatten form fields and annotations", (*gotenberg.Client).FlattenPDFs, false),
		c.pdfEngineCmd("convert <file.pdf>...", "Convert PDFs to PDF/A or PDF/UA", (*gotenberg.Client).ConvertPDFs, false),
		c.pdfEngineCmd("encrypt <file.pdf>...", "Password protect PDFs", (*gotenberg.Client).EncryptPDFs, false),
	)
	return cmd
}

func (c *cli) pdfEngineCmd(use, short string, call pdfEngineCall, withSplit bool) *cobra.Command {
	var (
		request requestFlags
		output  outputFlags
		split   splitFlags
		out     string
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			o := gotenberg.NewPDFEngineOptions()
			applyRequest[gotenberg.PDFEngineOptions](o, &request)
			if err := applyOutput[gotenberg.PDFEngineOptions](o, cmd.Flags(), &output); err != nil {
				return err
			}
			if s, ok := split.options(); ok {
				o.Split(s)
			}
			for _, p := range args {
				o.File(gotenberg.FileFromPath(p))
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			res, err := call(client, ctx, o)
			if err != nil {
				return err
			}
			return c.save(res, out)
		},
	}

	fs := cmd.Flags()
	request.register(fs)
	output.register(fs)
	if withSplit {
		split.register(fs)
	}
	fs.StringVarP(&out, "output", "o", "", "output file ('-' for stdout)")
	return cmd
}
