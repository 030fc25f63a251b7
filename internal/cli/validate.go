package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/autotile/internal/compiler"
	"github.com/roach88/autotile/internal/ir"
)

// LayerSummary describes one compiled layer.
type LayerSummary struct {
	Name   string `json:"name"`
	Groups int    `json:"groups"`
	Rules  int    `json:"rules"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Layers   []LayerSummary             `json:"layers"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.ShadowWarning   `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <rules.cue>",
		Short: "Validate a rule file",
		Long: `Compile a CUE rule file and check every rule.

All problems are reported, not just the first. Rules that can never fire
(shadowed by a catch-all) are listed as warnings and do not fail
validation.

Exit codes:
  0 - All rules valid
  1 - One or more rules rejected
  2 - Command error (unreadable file, CUE syntax error)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, rulesPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	res, err := compiler.LoadFile(rulesPath)
	if err != nil {
		code := ErrCodeReadFailed
		var compileErr *compiler.CompileError
		if errors.As(err, &compileErr) {
			code = ErrCodeCompile
		}
		return reportError(formatter, &CodedError{Code: code, Err: err})
	}

	result := ValidationResult{Valid: len(res.Errors) == 0, Errors: res.Errors}
	for i := range res.RuleSet.Layers {
		layer := &res.RuleSet.Layers[i]
		formatter.VerboseLog("Validating layer: %s", layer.Name)
		result.Layers = append(result.Layers, summarize(layer))
		result.Warnings = append(result.Warnings, compiler.AnalyzeShadowing(layer)...)
	}

	if formatter.Format == "json" {
		if !result.Valid {
			if err := formatter.Failure(result, res.Errors[0].Code, res.Errors[0].Message); err != nil {
				return err
			}
			return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(res.Errors)))
		}
		return formatter.Success(result)
	}

	w := formatter.Writer
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "warning: %s: %s\n", warn.Group, warn.Message)
	}

	if !result.Valid {
		fmt.Fprintln(w, "✗ Validation failed")
		fmt.Fprintln(w)
		for _, verr := range res.Errors {
			if verr.Line > 0 {
				fmt.Fprintf(w, "line %d\n", verr.Line)
			}
			fmt.Fprintf(w, "  %s: rule %s: %s: %s\n\n", verr.Code, verr.RuleID, verr.Field, verr.Message)
		}
		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(res.Errors)))
	}

	for _, l := range result.Layers {
		fmt.Fprintf(w, "✓ layer %s: %d group(s), %d rule(s)\n", l.Name, l.Groups, l.Rules)
	}
	return nil
}

func summarize(layer *ir.AutoLayer) LayerSummary {
	s := LayerSummary{Name: layer.Name, Groups: len(layer.Groups)}
	for _, g := range layer.Groups {
		s.Rules += len(g.Rules)
	}
	return s
}
