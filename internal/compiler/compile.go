package compiler

import (
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/autotile/internal/ir"
)

// Result is a compiled rule file: the layers ready for solving and every
// rule that was rejected on the way.
type Result struct {
	RuleSet *ir.RuleSet
	Errors  []ValidationError
}

// LoadFile reads, compiles and prepares a CUE rule file.
//
// Rules that fail validation are dropped from the returned layers and
// reported in Result.Errors. The error return is reserved for files that
// cannot be read or do not have the rule-set shape at all.
func LoadFile(path string) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return Load(src, path)
}

// Load compiles and prepares CUE rule source. filename is used in positions.
func Load(src []byte, filename string) (*Result, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rs, parseErrs, err := CompileRuleSet(v)
	if err != nil {
		return nil, err
	}

	res := &Result{RuleSet: &ir.RuleSet{}, Errors: parseErrs}
	for i := range rs.Layers {
		prepared, errs := Prepare(&rs.Layers[i])
		res.RuleSet.Layers = append(res.RuleSet.Layers, *prepared)
		res.Errors = append(res.Errors, errs...)
	}
	return res, nil
}

// CompileRuleSet parses the `layer` struct of a CUE rule file.
//
//	layer: terrain: {
//		seed: 7
//		groups: [{name: "walls", rules: [...]}]
//	}
//
// Rules whose shape is broken beyond repair (missing or wrong-typed
// fields, ragged patterns, unparsable matchers, ragged stamps) are dropped
// and returned as ValidationErrors; the rest of the layer still compiles.
// Only problems outside any rule are a CompileError. Semantic checks are
// left to Validate.
func CompileRuleSet(v cue.Value) (*ir.RuleSet, []ValidationError, error) {
	if err := v.Err(); err != nil {
		return nil, nil, formatCUEError(err)
	}

	layersVal := v.LookupPath(cue.ParsePath("layer"))
	if !layersVal.Exists() {
		return nil, nil, &CompileError{
			Field:   "layer",
			Message: "at least one layer is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := layersVal.Fields()
	if err != nil {
		return nil, nil, formatCUEError(err)
	}

	rs := &ir.RuleSet{}
	var verrs []ValidationError
	for iter.Next() {
		layer, errs, err := CompileLayer(iter.Value())
		if err != nil {
			return nil, nil, err
		}
		rs.Layers = append(rs.Layers, *layer)
		verrs = append(verrs, errs...)
	}

	if len(rs.Layers) == 0 {
		return nil, nil, &CompileError{
			Field:   "layer",
			Message: "at least one layer is required",
			Pos:     layersVal.Pos(),
		}
	}
	return rs, verrs, nil
}

// CompileLayer parses one layer struct. The layer name is the struct label.
func CompileLayer(v cue.Value) (*ir.AutoLayer, []ValidationError, error) {
	if err := v.Err(); err != nil {
		return nil, nil, formatCUEError(err)
	}

	layer := &ir.AutoLayer{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		layer.Name = strings.Trim(labels[len(labels)-1].String(), `"`)
	}

	if seedVal, ok := lookup(v, "seed"); ok {
		seed, err := seedVal.Uint64()
		if err != nil {
			return nil, nil, formatCUEError(err)
		}
		layer.Seed = seed
	}

	groupsVal, ok := lookup(v, "groups")
	if !ok {
		return nil, nil, &CompileError{
			Field:   "layer." + layer.Name + ".groups",
			Message: "groups are required",
			Pos:     v.Pos(),
		}
	}
	giter, err := groupsVal.List()
	if err != nil {
		return nil, nil, formatCUEError(err)
	}

	var verrs []ValidationError
	for gi := 0; giter.Next(); gi++ {
		group, errs, ok := parseGroup(giter.Value(), gi)
		verrs = append(verrs, errs...)
		if ok {
			layer.Groups = append(layer.Groups, group)
		}
	}
	return layer, verrs, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
