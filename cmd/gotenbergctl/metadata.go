package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ManuGH/gotenberg-client/internal/gotenberg"
	"github.com/spf13/cobra"
)

func (c *cli) metadataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Read or write PDF metadata",
	}
	cmd.AddCommand(c.metadataReadCmd(), c.metadataWriteCmd())
	return cmd
}

func (c *cli) metadataReadCmd() *cobra.Command {
	var trace string
	cmd := &cobra.Command{
		Use:   "read <file.pdf>...",
		Short: "Print the metadata of each PDF as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			o := gotenberg.NewMetadataOptions()
			if trace != "" {
				o.Trace(trace)
			}
			for _, p := range args {
				o.File(gotenberg.FileFromPath(p))
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			md, err := client.ReadMetadata(ctx, o)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(c.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(md)
		},
	}
	cmd.Flags().StringVar(&trace, "trace", "", "correlation id sent as Gotenberg-Trace")
	return cmd
}

func (c *cli) metadataWriteCmd() *cobra.Command {
	var (
		request requestFlags
		entries []string
		out     string
	)
	cmd := &cobra.Command{
		Use:   "write <file.pdf>... --set key=value",
		Short: "Write metadata entries into PDFs",
		Long: `Write metadata entries into PDFs.

Values are parsed as JSON when possible, so --set 'Keywords=["a","b"]' sends
a list and --set Trapped=true a boolean. Anything else is sent as a string.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			o := gotenberg.NewMetadataOptions()
			applyRequest[gotenberg.MetadataOptions](o, &request)
			for _, kv := range entries {
				k, v, ok := strings.Cut(kv, "=")
				if !ok || strings.TrimSpace(k) == "" {
					return fmt.Errorf("invalid --set %q, want key=value", kv)
				}
				o.Metadata(strings.TrimSpace(k), metadataValue(v))
			}
			for _, p := range args {
				o.File(gotenberg.FileFromPath(p))
			}
			client, err := c.client(ctx)
			if err != nil {
				return err
			}
			res, err := client.WriteMetadata(ctx, o)
			if err != nil {
				return err
			}
			if err := c.save(res, out); err != nil {
				return err
			}
			fmt.Fprintf(c.stderr, "set %s\n", strings.Join(o.Entries(), ", "))
			return nil
		},
	}

	fs := cmd.Flags()
	request.register(fs)
	fs.StringArrayVar(&entries, "set", nil, "metadata entry as key=value (repeatable)")
	fs.StringVarP(&out, "output", "o", "", "output file ('-' for stdout)")
	return cmd
}

func metadataValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		switch v.(type) {
		case bool, float64, []any, map[string]any:
			return v
		}
	}
	return raw
}
