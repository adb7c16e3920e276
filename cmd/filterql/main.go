// Command filterql parses, validates and executes dashboard filter
// expressions against Parquet datasets.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clindash/filterql/dataset"
	"github.com/clindash/filterql/exec"
	"github.com/clindash/filterql/filter"
	"github.com/clindash/filterql/output"
	"github.com/clindash/filterql/validate"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filterql",
		Short: "Query clinical Parquet datasets with filter expressions",
		Long: `filterql parses, validates and executes dashboard filter expressions
(comparisons, AND/OR/NOT, IN, BETWEEN, LIKE, IS NULL) against Parquet
datasets.

Examples:
  filterql schema demographics.parquet
  filterql validate -e "AGE >= 45 AND AESER = 'Y'" adverse_events.parquet
  filterql run -e "AETERM IS NOT NULL" -f table adverse_events.parquet`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newSchemaCmd(),
		newValidateCmd(),
		newRunCmd(),
	)
	return cmd
}

func newSchemaCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "schema <file.parquet>",
		Short: "Show a dataset's inspected schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := dataset.Inspect(args[0])
			if err != nil {
				return err
			}

			rows := make([]map[string]interface{}, 0, len(schema.Columns))
			for name, col := range schema.Columns {
				rows = append(rows, map[string]interface{}{
					"column":   name,
					"type":     string(col.Type),
					"nullable": col.Nullable,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows, %d columns\n", schema.Name, schema.RowCount, len(schema.Columns))
			return newFormatter(format, cmd).Format(rows)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: jsonl, csv, table")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var expression string

	cmd := &cobra.Command{
		Use:   "validate -e <expression> <file.parquet>",
		Short: "Parse and validate a filter expression against a dataset schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			parsed := filter.Parse(expression)
			if !parsed.Valid {
				return fmt.Errorf("invalid filter expression: %s", parsed.Err)
			}

			schema, err := dataset.Inspect(args[0])
			if err != nil {
				return err
			}

			res := validate.Validate(parsed.AST, schema)
			for _, e := range res.Errors {
				fmt.Fprintf(out, "error: %s\n", e)
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}
			fmt.Fprintf(out, "columns: %v, complexity: %d\n", parsed.Columns, res.Complexity)

			if !res.Valid {
				return fmt.Errorf("filter expression failed validation")
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}

	cmd.Flags().StringVarP(&expression, "expression", "e", "", "Filter expression (required)")
	_ = cmd.MarkFlagRequired("expression")
	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		expression string
		engine     string
		format     string
		columns    []string
		limit      int
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "run -e <expression> <file.parquet>",
		Short: "Execute a filter expression and print the matching rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var recorder exec.Recorder
			if verbose {
				logger, err := zap.NewProduction()
				if err != nil {
					return err
				}
				defer func() { _ = logger.Sync() }()
				recorder = exec.NewLogRecorder(logger)
			}

			req := exec.Request{
				Expression:  expression,
				DatasetPath: args[0],
				Columns:     columns,
			}

			var res *exec.Result
			switch engine {
			case "rows":
				res = exec.NewRowEngine(recorder).Execute(context.Background(), req)
			case "arrow":
				res = exec.NewArrowEngine(recorder).Execute(context.Background(), req)
			default:
				return fmt.Errorf("unsupported engine %q (rows, arrow)", engine)
			}

			if res.Err != "" {
				return fmt.Errorf("%s", res.Err)
			}

			rows := res.Data
			if limit > 0 && len(rows) > limit {
				rows = rows[:limit]
			}

			if err := newFormatter(format, cmd).Format(rows); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d rows (%.1f%% filtered) in %.1fms\n",
				res.RowCount, res.OriginalCount, res.ReductionPct, res.ElapsedMS)
			return nil
		},
	}

	cmd.Flags().StringVarP(&expression, "expression", "e", "", "Filter expression (required)")
	cmd.Flags().StringVar(&engine, "engine", "rows", "Execution engine: rows, arrow")
	cmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Output format: jsonl, csv, table")
	cmd.Flags().StringSliceVarP(&columns, "columns", "c", nil, "Columns to include in the output (default all)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Limit number of printed rows (0 = unlimited)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log execution metrics")
	_ = cmd.MarkFlagRequired("expression")
	return cmd
}

func newFormatter(format string, cmd *cobra.Command) output.Formatter {
	switch format {
	case "csv":
		return output.NewCSVFormatter(cmd.OutOrStdout())
	case "table":
		return output.NewTableFormatter(cmd.OutOrStdout())
	default:
		return output.NewJSONFormatter(cmd.OutOrStdout())
	}
}
