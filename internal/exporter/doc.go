// Package exporter writes a transformed sales dataset as CSV or as an XLSX
// workbook.
//
// Both writers emit the dataset columns in order, derived columns included,
// with values serialized the same way the JSON endpoints serialize them:
// timestamps as "YYYY-MM-DD HH:MM:SS" and missing values as empty cells.
//
// Example usage:
//
//	err := exporter.Write(w, upload.Dataset, exporter.FormatXLSX)
package exporter
