package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvmap/internal/core"
)

// readFlags are shared by parse, validate and import.
type readFlags struct {
	mapping []string
}

func (f *readFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.mapping, "map", "m", nil, "map a field to a column, Field=index (repeatable)")
}

func (f *readFlags) options() (core.ParseOptions, error) {
	var opts core.ParseOptions
	if len(f.mapping) > 0 {
		m, err := core.ParseMapping(f.mapping...)
		if err != nil {
			return opts, err
		}
		opts.Mapping = m
	}
	return opts, nil
}

// openInput opens the file named by args[1], or stdin when it is absent or "-".
func openInput(cmd *cobra.Command, args []string) (io.Reader, int64, func(), error) {
	if len(args) < 2 || args[1] == "-" {
		return cmd.InOrStdin(), 0, func() {}, nil
	}
	f, err := os.Open(args[1])
	if err != nil {
		return nil, 0, nil, err
	}
	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}
	return f, size, func() { f.Close() }, nil
}

func newParseCmd(a *app) *cobra.Command {
	var (
		flags readFlags
		limit int
	)
	cmd := &cobra.Command{
		Use:   "parse [record-key] [file]",
		Short: "Read a CSV file and print the records",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			opts.Limit = limit

			in, size, closeInput, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer closeInput()
			opts.Size = size

			svc, err := a.service(nil)
			if err != nil {
				return err
			}
			result, err := svc.Parse(cmd.Context(), args[0], in, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if done, err := a.render(out, result); done || err != nil {
				return err
			}

			// text: one JSON object per record, then a summary
			enc := json.NewEncoder(out)
			for _, rec := range result.Records {
				if err := enc.Encode(rec); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "# %d records, %d fields defaulted", len(result.Records), result.Stats.Defaulted)
			if result.Truncated {
				fmt.Fprint(out, " (truncated)")
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum records to print, 0 for all")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	var flags readFlags
	cmd := &cobra.Command{
		Use:   "validate [record-key] [file]",
		Short: "Check every row of a CSV file without keeping the records",
		Long:  `Reads the whole file and reports rows that fail conversion. Exits non-zero when any row fails.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			in, size, closeInput, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer closeInput()
			opts.Size = size

			svc, err := a.service(nil)
			if err != nil {
				return err
			}
			report, err := svc.Validate(cmd.Context(), args[0], in, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			done, err := a.render(out, report)
			if err != nil {
				return err
			}
			if !done {
				printReport(out, report)
			}
			if report.ErrorRows > 0 {
				return fmt.Errorf("%d of %d rows failed validation", report.ErrorRows, report.TotalRows)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func printReport(w io.Writer, r *core.ValidationReport) {
	fmt.Fprintf(w, "rows: %d  valid: %d  errors: %d\n", r.TotalRows, r.ValidRows, r.ErrorRows)
	if len(r.UnmatchedHeaders) > 0 {
		fmt.Fprintf(w, "unmatched headers: %s\n", strings.Join(r.UnmatchedHeaders, ", "))
	}
	if len(r.UnboundFields) > 0 {
		fmt.Fprintf(w, "unbound fields: %s\n", strings.Join(r.UnboundFields, ", "))
	}
	for _, e := range r.ErrorSamples {
		fmt.Fprintf(w, "  row %d, column %d (%s): %q: %s\n", e.Row, e.Column, e.Field, e.Value, e.Error)
	}
}

func newImportCmd(a *app) *cobra.Command {
	var flags readFlags
	cmd := &cobra.Command{
		Use:   "import [record-key] [file]",
		Short: "Copy a CSV file into the record type's Postgres table",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbURL := a.v.GetString("database_url")
			if dbURL == "" {
				return core.ErrImportDisabled
			}
			opts, err := flags.options()
			if err != nil {
				return err
			}
			in, size, closeInput, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer closeInput()
			opts.Size = size

			pool, err := pgxpool.New(cmd.Context(), dbURL)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer pool.Close()

			svc, err := a.service(pool)
			if err != nil {
				return err
			}
			result, err := svc.Import(cmd.Context(), args[0], in, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if done, err := a.render(out, result); done || err != nil {
				return err
			}
			fmt.Fprintf(out, "imported %d rows into %s in %d batches (%s), import %s\n",
				result.Inserted, result.Table, result.Batches, result.Duration.Round(time.Millisecond), result.ImportID)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().Int("batch-size", 1000, "rows per COPY batch")
	cmd.Flags().Duration("timeout", 10*time.Minute, "maximum duration of the import")
	a.v.BindPFlag("batch_size", cmd.Flags().Lookup("batch-size"))
	a.v.BindPFlag("timeout", cmd.Flags().Lookup("timeout"))
	return cmd
}
