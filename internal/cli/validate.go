package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/keychord/internal/compiler"
	"github.com/roach88/keychord/internal/ir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool                      `json:"valid"`
	Chords      int                       `json:"chords"`
	Files       int                       `json:"files"`
	CatalogHash string                    `json:"catalog_hash,omitempty"`
	Errors      []compiler.ValidationError `json:"errors,omitempty"`
	Warnings    []compiler.OverlapWarning  `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [chords-dir]",
		Short: "Validate chord fixtures",
		Long: `Compile every CUE chord fixture in a directory and validate the
combined catalog.

Reports compile errors, catalog rule violations (E1xx codes) and chords
that shadow or delay each other. The directory defaults to paths.chords
from the config file.

Exit codes:
  0 - All chords valid (overlap warnings do not fail)
  1 - Validation failed
  2 - Command error (directory not found, no fixtures)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootOpts.Config().Paths.Chords
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(rootOpts, dir, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, chordsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loadResult, loadErrors := LoadChords(chordsDir, LoadModeCollectAll)

	// Directory not found, no files, etc.
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error(), nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, chordsDir)

	var validationErrors []compiler.ValidationError
	for _, err := range loadErrors {
		validationErrors = append(validationErrors, toValidationError(err))
	}
	validationErrors = append(validationErrors, compiler.Validate(loadResult.Specs)...)

	result := ValidationResult{
		Valid:    len(validationErrors) == 0,
		Chords:   len(loadResult.Specs),
		Files:    loadResult.FileCount,
		Errors:   validationErrors,
		Warnings: compiler.AnalyzeOverlaps(loadResult.Specs),
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}

	if result.Chords == 0 {
		return outputValidateError(formatter, ErrCodeGeneric, "no chords found in fixtures", nil)
	}

	hash, err := ir.CatalogHash(loadResult.Specs)
	if err != nil {
		return outputValidateError(formatter, ErrCodeGeneric, fmt.Sprintf("hash catalog: %v", err), nil)
	}
	result.CatalogHash = hash

	return outputValidateSuccess(formatter, result)
}

// toValidationError turns a load error into a validation error so compile
// and catalog problems are reported together.
func toValidationError(err error) compiler.ValidationError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		field := "load"
		if loadErr.Pos.IsValid() {
			field = fmt.Sprintf("%s:%d:%d", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
		return compiler.ValidationError{Field: field, Message: loadErr.Message, Code: loadErr.Code}
	}
	return compiler.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric}
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "%s: %s\n", warn.Level, warn.Message)
	}
	fmt.Fprintf(w, "✓ All chords valid (%d chords in %d file(s))\n", result.Chords, result.Files)
	formatter.VerboseLog("catalog hash %s", result.CatalogHash)
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs every validation error.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.JSON() {
		if err := formatter.Failure(result, errs[0].Code, errs[0].Message); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s\n", err.Error())
	}

	return failure
}

// ValidateChordsDir validates all chords in a directory.
// This is a helper function for external callers.
func ValidateChordsDir(chordsDir string) ([]compiler.ValidationError, error) {
	loadResult, loadErrors := LoadChords(chordsDir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return nil, loadErrors[0]
	}

	var errs []compiler.ValidationError
	for _, err := range loadErrors {
		errs = append(errs, toValidationError(err))
	}
	return append(errs, compiler.Validate(loadResult.Specs)...), nil
}
