package compiler

import (
	"fmt"

	"github.com/roach88/autotile/internal/ir"
)

// Validation error codes (E200-E299)
const (
	ErrPatternNotSquare  = "E201" // pattern rows differ from row count
	ErrPatternEven       = "E202" // pattern size even or zero
	ErrStampExceedsRange = "E203" // stamp reaches past the pattern radius
	ErrNonPositiveWeight = "E204" // rule or stamp weight <= 0
	ErrNoStamps          = "E205" // empty stamp list
	ErrMalformedStamp    = "E206" // tile count, origin, all holes or bad tile
	ErrDuplicateRuleID   = "E207" // rule id reused within a layer
	ErrInvalidMatcher    = "E208" // unknown matcher kind, empty set, negative value
	ErrMalformedField    = "E209" // missing pattern or wrong-typed rule field
)

// ValidationError represents a rejected rule.
type ValidationError struct {
	RuleID  string `json:"rule_id,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Code)
	if e.Line > 0 {
		prefix += fmt.Sprintf(" line %d:", e.Line)
	}
	if e.RuleID != "" {
		return fmt.Sprintf("%s rule %s: %s: %s", prefix, e.RuleID, e.Field, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", prefix, e.Field, e.Message)
}

// Validate checks every rule of layer and returns all problems found
// (does not fail-fast).
func Validate(layer *ir.AutoLayer) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)

	for gi := range layer.Groups {
		for ri := range layer.Groups[gi].Rules {
			r := &layer.Groups[gi].Rules[ri]

			// E207: ids are unique across the layer; later copies are rejected
			if seen[r.ID] {
				errs = append(errs, ValidationError{
					RuleID:  r.ID,
					Field:   "id",
					Message: fmt.Sprintf("duplicate rule id %q in layer %q", r.ID, layer.Name),
					Code:    ErrDuplicateRuleID,
				})
			}
			seen[r.ID] = true

			errs = append(errs, ValidateRule(r)...)
		}
	}
	return errs
}

// ValidateRule checks one rule in isolation.
func ValidateRule(r *ir.Rule) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			RuleID:  r.ID,
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		})
	}

	p := r.Pattern
	patternOK := true
	switch {
	case p.Size <= 0 || p.Size%2 == 0:
		add("pattern", ErrPatternEven, "pattern size must be odd and non-zero, got %d", p.Size)
		patternOK = false
	case len(p.Cells) != p.Size*p.Size:
		add("pattern", ErrPatternNotSquare, "pattern must be square: %d cells for size %d", len(p.Cells), p.Size)
		patternOK = false
	}

	for i, m := range p.Cells {
		if msg := matcherProblem(m); msg != "" {
			add(fmt.Sprintf("pattern.cells[%d]", i), ErrInvalidMatcher, "%s", msg)
		}
	}
	for i, v := range r.SourceValues {
		if v < 0 {
			add(fmt.Sprintf("source_values[%d]", i), ErrInvalidMatcher, "source values are non-negative, got %d", v)
		}
	}

	if r.Weight <= 0 {
		add("weight", ErrNonPositiveWeight, "weight must be positive, got %d", r.Weight)
	}

	if len(r.Stamps) == 0 {
		add("stamps", ErrNoStamps, "at least one stamp is required")
	}
	for i, st := range r.Stamps {
		field := fmt.Sprintf("stamps[%d]", i)
		if st.Weight <= 0 {
			add(field+".weight", ErrNonPositiveWeight, "stamp weight must be positive, got %d", st.Weight)
		}
		if msg := stampProblem(st); msg != "" {
			add(field, ErrMalformedStamp, "%s", msg)
			continue
		}
		if patternOK && st.Reach() > p.Radius() {
			add(field, ErrStampExceedsRange, "stamp reaches %d cells from its origin, pattern radius is %d", st.Reach(), p.Radius())
		}
	}
	return errs
}

func matcherProblem(m ir.CellMatcher) string {
	switch m.Kind {
	case ir.MatchAny, ir.MatchEmpty:
		return ""
	case ir.MatchExact, ir.MatchNot:
		if m.Value < 0 {
			return fmt.Sprintf("matcher value must be non-negative, got %d", m.Value)
		}
		return ""
	case ir.MatchNoneOf, ir.MatchOneOf:
		if len(m.Set) == 0 {
			return "matcher value set is empty"
		}
		for _, v := range m.Set {
			if v < 0 {
				return fmt.Sprintf("matcher value must be non-negative, got %d", v)
			}
		}
		return ""
	default:
		return fmt.Sprintf("unknown matcher kind %q", m.Kind)
	}
}

func stampProblem(st ir.Stamp) string {
	if st.Width <= 0 || st.Height <= 0 {
		return fmt.Sprintf("stamp must be at least 1x1, got %dx%d", st.Width, st.Height)
	}
	if len(st.Tiles) != st.Width*st.Height {
		return fmt.Sprintf("stamp has %d tiles, %dx%d needs %d", len(st.Tiles), st.Width, st.Height, st.Width*st.Height)
	}
	if st.OriginX < 0 || st.OriginX >= st.Width || st.OriginY < 0 || st.OriginY >= st.Height {
		return fmt.Sprintf("stamp origin (%d,%d) lies outside %dx%d", st.OriginX, st.OriginY, st.Width, st.Height)
	}
	holes := 0
	for _, t := range st.Tiles {
		switch {
		case t == ir.NoTile:
			holes++
		case t < 0:
			return fmt.Sprintf("tile ids are non-negative, got %d", t)
		}
	}
	if holes == len(st.Tiles) {
		return "stamp has no tiles, only holes"
	}
	return ""
}

// Prepare returns a copy of layer without the rules Validate rejects,
// together with the rejections. Valid rules keep their order.
func Prepare(layer *ir.AutoLayer) (*ir.AutoLayer, []ValidationError) {
	errs := Validate(layer)

	out := &ir.AutoLayer{Name: layer.Name, Seed: layer.Seed}
	seen := make(map[string]bool)
	for _, g := range layer.Groups {
		ng := ir.RuleGroup{Name: g.Name, Active: g.Active}
		for i := range g.Rules {
			r := g.Rules[i]
			dup := seen[r.ID]
			seen[r.ID] = true
			if dup || len(ValidateRule(&r)) > 0 {
				continue
			}
			ng.Rules = append(ng.Rules, r)
		}
		out.Groups = append(out.Groups, ng)
	}
	return out, errs
}
