package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/roach88/autotile/internal/compiler"
	"github.com/roach88/autotile/internal/config"
	"github.com/roach88/autotile/internal/engine"
	"github.com/roach88/autotile/internal/ir"
	"github.com/roach88/autotile/internal/level"
)

// Error code constants - unified across all CLI commands. Rule and level
// problems keep their E2xx and E3xx codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeReadFailed  = "E002" // File could not be read
	ErrCodeCompile     = "E003" // CUE compile error
	ErrCodeNoLayer     = "E004" // Requested layer missing or ambiguous
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeStore       = "E006" // Database error
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeBadEdit     = "E008" // Malformed --set value
	ErrCodeMismatch    = "E009" // Replay mismatch
	ErrCodeTestFailed  = "E010" // Scenario failure
)

// loadRules compiles a rule file. Rejected rules are logged and dropped.
func loadRules(path string, logger zerolog.Logger) (*compiler.Result, error) {
	res, err := compiler.LoadFile(path)
	if err != nil {
		var compileErr *compiler.CompileError
		if errors.As(err, &compileErr) {
			return nil, &CodedError{Code: ErrCodeCompile, Err: err}
		}
		return nil, &CodedError{Code: ErrCodeReadFailed, Err: err}
	}
	for _, verr := range res.Errors {
		logger.Warn().
			Str("rule", verr.RuleID).
			Str("code", verr.Code).
			Str("field", verr.Field).
			Msg(verr.Message)
	}
	return res, nil
}

// selectLayer picks name from rs, or the only layer when name is empty.
func selectLayer(rs *ir.RuleSet, name string) (*ir.AutoLayer, error) {
	if name != "" {
		layer, ok := rs.Layer(name)
		if !ok {
			return nil, &CodedError{Code: ErrCodeNoLayer, Err: fmt.Errorf("layer %q not found (have %s)", name, layerNames(rs))}
		}
		return layer, nil
	}
	if len(rs.Layers) != 1 {
		return nil, &CodedError{Code: ErrCodeNoLayer, Err: fmt.Errorf("rules declare layers %s; choose one with --layer", layerNames(rs))}
	}
	return &rs.Layers[0], nil
}

func layerNames(rs *ir.RuleSet) string {
	names := make([]string, len(rs.Layers))
	for i, l := range rs.Layers {
		names[i] = l.Name
	}
	return strings.Join(names, ", ")
}

// loadLevel reads a level file. A level without an edge policy takes the
// configured solve.edge.
func loadLevel(path string, cfg *config.Config) (*level.Level, error) {
	lvl, err := level.LoadFile(path, level.Options{StrictEdge: cfg.Solve.StrictEdge})
	if err != nil {
		var loadErr *level.LoadError
		if errors.As(err, &loadErr) {
			return nil, &CodedError{Code: loadErr.Code, Err: err}
		}
		return nil, &CodedError{Code: ErrCodeReadFailed, Err: err}
	}
	if lvl.EdgeDefaulted {
		edge, _, err := level.ParseEdge(cfg.Solve.Edge, cfg.Solve.Fill)
		if err != nil {
			return nil, &CodedError{Code: level.ErrInvalidEdge, Err: err}
		}
		lvl.Edge = edge
	}
	return lvl, nil
}

// newSolver builds a solver for layer over lvl. seed wins over the
// configured solve.seed, which wins over the layer's own seed.
func newSolver(layer *ir.AutoLayer, lvl *level.Level, cfg *config.Config, seed *uint64, logger zerolog.Logger) (*engine.Solver, error) {
	opts := []engine.Option{engine.WithLogger(logger)}
	switch {
	case seed != nil:
		opts = append(opts, engine.WithSeed(*seed))
	case cfg.Solve.HasSeed:
		opts = append(opts, engine.WithSeed(cfg.Solve.Seed))
	}
	s, err := engine.New(layer, lvl.Edge, opts...)
	if err != nil {
		return nil, &CodedError{Code: ErrCodeGeneric, Err: err}
	}
	return s, nil
}

// CodedError tags an error with the code reported to the user.
type CodedError struct {
	Code string
	Err  error
}

func (e *CodedError) Error() string { return e.Err.Error() }
func (e *CodedError) Unwrap() error { return e.Err }

// reportError prints err through the formatter and converts it to a
// command error (exit code 2).
func reportError(f *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	var coded *CodedError
	if errors.As(err, &coded) {
		code = coded.Code
	}
	_ = f.Error(code, err.Error(), nil)
	return WrapExitError(ExitCommandError, code, err)
}
