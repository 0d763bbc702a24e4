// Command salesreport processes a pizza sales CSV offline and prints its
// metrics as JSON, or writes the cleaned dataset as CSV or XLSX.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"salespulse/internal/exporter"
	"salespulse/internal/infrastructure"
	"salespulse/internal/salesdata"
	"salespulse/internal/validation"
)

// formatJSON prints the aggregated metrics instead of the dataset
const formatJSON = "json"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "salesreport:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("salesreport", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "sales CSV file to process (required)")
	format := fs.String("format", formatJSON, "output format: json, csv or xlsx")
	out := fs.String("out", "", "output file (defaults to stdout, required for xlsx)")
	level := fs.String("log-level", "warn", "log level: debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *in == "" {
		fs.Usage()
		return errors.New("-in is required")
	}

	switch *format {
	case formatJSON, exporter.FormatCSV:
	case exporter.FormatXLSX:
		if *out == "" {
			return errors.New("-out is required for xlsx output")
		}
	default:
		return fmt.Errorf("%w: %q", exporter.ErrUnsupportedFormat, *format)
	}

	logger := infrastructure.NewLogger(stderr, *level).With(slog.String("component", "salesreport"))
	validator := validation.NewFileValidator(logger)

	if err := validator.ValidateCSVFile(*in); err != nil {
		return err
	}

	raw, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", *in, err)
	}

	ds, report, err := salesdata.Transform(raw)
	if err != nil {
		return fmt.Errorf("error processing file: %w", err)
	}

	logger.Info("file processed",
		slog.String("file", *in),
		slog.Int("rows_read", report.RowsRead),
		slog.Int("rows_kept", report.RowsKept),
		slog.Int("rows_dropped", report.RowsDropped()),
		slog.Int("values_coerced", report.CoercedValues))
	if report.RowsDropped() > 0 {
		logger.Warn("dropped rows without a valid order timestamp",
			slog.Int("rows_dropped", report.RowsDropped()))
	}

	w := stdout
	if *out != "" {
		if err := validator.ValidateOutputPath(*out); err != nil {
			return err
		}
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", *out, err)
		}
		defer f.Close()
		w = f
	}

	if *format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(salesdata.Aggregate(ds))
	}

	return exporter.Write(w, ds, *format)
}
