package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"transitdesk/export"
	"transitdesk/logging"
)

type exportOptions struct {
	format  string
	out     string
	filters map[string]string
}

func newExportCmd(root *rootOptions) *cobra.Command {
	opts := exportOptions{}
	cmd := &cobra.Command{
		Use:   "export <resource>",
		Short: "Export the filtered records of a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "csv" && opts.format != "xlsx" {
				return withCode(exitUsage, fmt.Errorf("invalid --format %q: csv or xlsx", opts.format))
			}
			a, err := newApp(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := loadController(cmd, a, args[0], opts.filters)
			if err != nil {
				return err
			}
			res := c.Resource()
			records := c.Filtered()

			out := opts.out
			if out == "" {
				if opts.format == "xlsx" {
					out = export.XLSXFileName(res.Name, time.Now())
				} else {
					out = export.FileName(res.Name, time.Now())
				}
			}

			write := func(w io.Writer) error {
				if opts.format == "xlsx" {
					return export.RecordsXLSX(w, res.Label, res.Columns, records)
				}
				return export.RecordsCSV(w, res.Columns, records)
			}
			if len(records) == 0 {
				return withCode(exitUsage, errors.New(export.EmptyNotice))
			}
			if err := writeFile(out, write); err != nil {
				return withCode(exitStorage, err)
			}

			logging.Audit(a.logger, a.provider.UserID(), logging.ActionDataExport,
				fmt.Sprintf("exported %d %s to %s", len(records), res.Name, out))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", len(records), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", "csv", "Output format: csv or xlsx")
	cmd.Flags().StringVar(&opts.out, "out", "", "Output file (dated default)")
	cmd.Flags().StringToStringVar(&opts.filters, "filter", nil, "Filter as key=value, repeatable")
	return cmd
}

// writeFile removes the partial file when write fails.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
