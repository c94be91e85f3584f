package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRecordsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "records",
		Short: "List the registered record types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(nil)
			if err != nil {
				return err
			}
			infos := svc.ListRecords()
			if done, err := a.render(cmd.OutOrStdout(), infos); done || err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tGROUP\tLABEL\tTABLE")
			for _, info := range infos {
				table := info.Table
				if table == "" {
					table = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.Key, info.Group, info.Label, table)
			}
			return tw.Flush()
		},
	}
}

func newDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe [record-key]",
		Short: "Show the fields of a record type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(nil)
			if err != nil {
				return err
			}
			schema, err := svc.Describe(args[0])
			if err != nil {
				return err
			}
			if done, err := a.render(cmd.OutOrStdout(), schema); done || err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s / %s)\n", schema.Key, schema.Group, schema.Label)
			if schema.Table != "" {
				fmt.Fprintf(out, "table: %s\n", schema.Table)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FIELD\tHEADER\tCOLUMN\tTYPE\tINDEX")
			for _, f := range schema.Fields {
				index := "-"
				if f.Column != nil {
					index = fmt.Sprint(*f.Column)
				}
				if f.Ignore {
					index = "ignored"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f.Name, f.Header, f.DBColumn, f.Type, index)
			}
			return tw.Flush()
		},
	}
}
