package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vegasq/parqsee/output"
	"github.com/vegasq/parqsee/query"
	"github.com/vegasq/parqsee/reader"
	"github.com/vegasq/parqsee/value"
)

var schemaColumns = []string{"name", "column_type", "logical_type", "physical_type"}

func newSchemaCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "schema <file>",
		Short: "Show the column descriptors of a file",
		Example: `  parqsee schema data.parquet
  parqsee schema --format table data.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := a.svc.OpenFile(args[0])
			if err != nil {
				return err
			}
			return printSchema(cmd.OutOrStdout(), meta, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", output.FormatJSON, "Output format: json, jsonl, csv, table")
	return cmd
}

// printSchema writes meta as an indented JSON document, or one row per
// column for the other formats.
func printSchema(w io.Writer, meta *reader.Metadata, format string) error {
	if strings.EqualFold(format, output.FormatJSON) {
		data, err := json.MarshalIndent(meta, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	formatter, err := output.NewFormatter(format, w)
	if err != nil {
		return err
	}
	rows := make([]value.Record, len(meta.Columns))
	for i, c := range meta.Columns {
		logical := value.Value(value.Null{})
		if c.LogicalType != "" {
			logical = value.String(c.LogicalType)
		}
		rows[i] = value.Record{
			{Name: "name", Value: value.String(c.Name)},
			{Name: "column_type", Value: value.String(c.ColumnType)},
			{Name: "logical_type", Value: logical},
			{Name: "physical_type", Value: value.String(c.PhysicalType)},
		}
	}
	return formatter.Format(schemaColumns, rows)
}

func newReadCmd(a *app) *cobra.Command {
	var (
		offset, limit int64
		filter        string
		format        string
	)

	cmd := &cobra.Command{
		Use:   "read <file>",
		Short: "Print a window of rows",
		Example: `  parqsee read data.parquet
  parqsee read --offset 100 --limit 10 --filter "age > 30" data.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.Read.DefaultLimit
			}
			if offset < 0 || limit < 0 {
				return fmt.Errorf("--offset and --limit must be non-negative")
			}
			res, err := a.svc.Rows(args[0], offset, limit, filter)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res, format)
		},
	}
	cmd.Flags().Int64Var(&offset, "offset", 0, "Rows to skip")
	cmd.Flags().Int64Var(&limit, "limit", 0, "Maximum rows to print (default read.default_limit)")
	cmd.Flags().StringVar(&filter, "filter", "", "WHERE predicate applied before the window")
	cmd.Flags().StringVarP(&format, "format", "f", output.FormatJSONL, "Output format: jsonl, json, csv, table")
	return cmd
}

func newCountCmd(a *app) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "count <file>",
		Short: "Count rows, optionally matching a filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.svc.CountData(args[0], filter)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "WHERE predicate")
	return cmd
}

func newSQLCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "sql <file> <query>",
		Short: "Run a SQL query against a file registered as table t",
		Example: `  parqsee sql data.parquet "SELECT name, COUNT(*) FROM t GROUP BY name"
  parqsee sql -f table data.parquet "SELECT * FROM t ORDER BY id DESC LIMIT 5"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.svc.Query(args[0], args[1])
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", output.FormatJSONL, "Output format: jsonl, json, csv, table")
	return cmd
}

func printResult(w io.Writer, res *query.Result, format string) error {
	formatter, err := output.NewFormatter(format, w)
	if err != nil {
		return err
	}
	return formatter.Format(res.ColumnNames(), res.Rows())
}

func newExportCmd(a *app) *cobra.Command {
	var (
		offset, limit int64
		format        string
	)

	cmd := &cobra.Command{
		Use:   "export <source> <destination>",
		Short: "Export a window of rows to CSV or JSON",
		Example: `  parqsee export data.parquet out.csv
  parqsee export --format json --offset 10 --limit 100 data.parquet out.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var offsetPtr, limitPtr *int64
			if cmd.Flags().Changed("offset") {
				offsetPtr = &offset
			}
			if cmd.Flags().Changed("limit") {
				limitPtr = &limit
			}
			msg, err := a.svc.ExportData(args[0], args[1], format, offsetPtr, limitPtr)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)
			return err
		},
	}
	cmd.Flags().Int64Var(&offset, "offset", 0, "Rows to skip (default 0)")
	cmd.Flags().Int64Var(&limit, "limit", 0, "Maximum rows to export (default all)")
	cmd.Flags().StringVarP(&format, "format", "f", output.FormatCSV, "Export format: csv, json")
	return cmd
}
