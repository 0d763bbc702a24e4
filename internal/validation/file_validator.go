package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// CSVExtension is the only accepted upload suffix. The match is case-sensitive.
const CSVExtension = ".csv"

// Validation errors
var (
	ErrInvalidExtension = errors.New("only CSV files are allowed")
	ErrMissingFilename  = errors.New("no file name given")
)

// FileValidator checks uploaded and local sales files before they are parsed
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateUploadName accepts names ending in ".csv". "report.CSV" and
// "report.csv.txt" are rejected.
func (v *FileValidator) ValidateUploadName(name string) error {
	if name == "" {
		v.logger.Warn("Upload without file name")
		return ErrMissingFilename
	}
	if !strings.HasSuffix(name, CSVExtension) {
		v.logger.Warn("Rejected upload with wrong extension",
			slog.String("filename", name))
		return fmt.Errorf("%s: %w", name, ErrInvalidExtension)
	}
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateCSVFile checks that path names a readable local file with the
// same extension rule as uploads
func (v *FileValidator) ValidateCSVFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	return v.ValidateUploadName(path)
}

// ValidateOutputPath ensures a file can be created at path
func (v *FileValidator) ValidateOutputPath(path string) error {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		v.logger.Error("Output path is not writable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("output %s is not writable: %w", path, err)
	}
	return file.Close()
}
