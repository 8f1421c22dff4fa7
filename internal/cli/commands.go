package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/PharmaDash/internal/analytics"
	"github.com/JonMunkholm/PharmaDash/internal/core"
	"github.com/spf13/cobra"
)

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print key metrics for the filtered records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			sel := svc.Filter(a.constraints())
			warn(cmd, sel.Warnings())

			m := analytics.KeyMetrics(sel.Rows)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Total Records\t%d\n", m.Records)
			fmt.Fprintf(tw, "Unique Materials\t%d\n", m.Materials)
			fmt.Fprintf(tw, "Avg Unit Price\t%.2f\n", m.AvgPrice)
			fmt.Fprintf(tw, "Avg Price Deviation\t%.2f%%\n", m.AvgDeviation)
			fmt.Fprintf(tw, "GMP Compliant\t%d\n", m.GMPCompliant)
			return tw.Flush()
		},
	}
}

func newOptionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "Print the legal filter values as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), svc.Options())
		},
	}
}

func newViewCmd(a *app) *cobra.Command {
	var material string
	cmd := &cobra.Command{
		Use:       "view <name>",
		Short:     "Print one dashboard view as JSON",
		Long:      "Print one dashboard view as JSON. Views: " + strings.Join(core.ViewNames(), ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: core.ViewNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			res, err := svc.View(args[0], a.constraints(), material)
			if err != nil {
				return err
			}
			warn(cmd, res.Warnings)
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&material, "material", "", "material for the material view")
	return cmd
}

func newRowsCmd(a *app) *cobra.Command {
	var (
		columns []string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "rows",
		Short: "Print the first matching records as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFlags(rowsFlags{Limit: limit, Columns: columns}); err != nil {
				return err
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			res, err := svc.Rows(core.RowsRequest{
				Constraints: a.constraints(),
				Columns:     columns,
				Limit:       limit,
			})
			if err != nil {
				return err
			}
			warn(cmd, res.Warnings)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, strings.Join(res.Columns, "\t"))
			for _, row := range res.Rows {
				fmt.Fprintln(tw, strings.Join(row, "\t"))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Showing "+strconv.Itoa(len(res.Rows))+" of "+strconv.Itoa(res.Total)+" records.")
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&columns, "column", nil, "columns to show (repeat or comma-separate; default all)")
	cmd.Flags().IntVar(&limit, "limit", core.DefaultRowLimit, "rows to show ("+strconv.Itoa(core.MinRowLimit)+"-"+strconv.Itoa(core.MaxRowLimit)+")")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered records as CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if out == "" && core.ValidFormat(format) {
				out = core.ExportFilename(format)
			}
			if err := validateExport(exportFlags{Format: format, Out: out}); err != nil {
				return err
			}
			svc, err := a.service()
			if err != nil {
				return err
			}

			export := func(w io.Writer) (int, error) {
				return svc.Export(cmd.Context(), w, a.constraints(), format)
			}
			var n int
			if out == stdioPath {
				n, err = writeBuffered(cmd.OutOrStdout(), out, export)
			} else {
				var f *os.File
				if f, err = os.Create(out); err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				n, err = writeFile(f, out, export)
			}
			if err != nil {
				return err
			}
			if out != stdioPath {
				fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %d records to %s\n", n, out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", core.FormatCSV, "export format: csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", `output file, or "-" for stdout (default filtered_pharma_data.<format>)`)
	return cmd
}

// writeBuffered runs write through a buffer and flushes it into w.
func writeBuffered(w io.Writer, name string, write func(io.Writer) (int, error)) (int, error) {
	bw := bufio.NewWriter(w)
	n, err := write(bw)
	if err != nil {
		return n, err
	}
	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("write %s: %w", name, err)
	}
	return n, nil
}

// writeFile is writeBuffered for a file it owns. The file is always closed,
// and a failed close fails the write.
func writeFile(f io.WriteCloser, name string, write func(io.Writer) (int, error)) (int, error) {
	n, err := writeBuffered(f, name, write)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close %s: %w", name, cerr)
	}
	return n, err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
