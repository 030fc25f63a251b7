package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/autotile/internal/ir"
)

// holeMarker is the stamp tile text for a hole.
const holeMarker = "_"

// lookup returns the named field if it is present.
func lookup(v cue.Value, name string) (cue.Value, bool) {
	f := v.LookupPath(cue.ParsePath(name))
	return f, f.Exists()
}

// fieldError reports a field of the wrong type or shape. The caller fills
// in the rule id.
func fieldError(f cue.Value, field, code string, err error) *ValidationError {
	msg := err.Error()
	if errs := errors.Errors(err); len(errs) > 0 {
		msg = errs[0].Error()
	}
	return &ValidationError{Field: field, Message: msg, Code: code, Line: f.Pos().Line()}
}

func optInt(v cue.Value, name string, def int) (int, *ValidationError) {
	f, ok := lookup(v, name)
	if !ok {
		return def, nil
	}
	n, err := f.Int64()
	if err != nil {
		return def, fieldError(f, name, ErrMalformedField, err)
	}
	return int(n), nil
}

func optBool(v cue.Value, name string, def bool) (bool, *ValidationError) {
	f, ok := lookup(v, name)
	if !ok {
		return def, nil
	}
	b, err := f.Bool()
	if err != nil {
		return def, fieldError(f, name, ErrMalformedField, err)
	}
	return b, nil
}

func optString(v cue.Value, name string) (string, *ValidationError) {
	f, ok := lookup(v, name)
	if !ok {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", fieldError(f, name, ErrMalformedField, err)
	}
	return s, nil
}

func intList(v cue.Value, field, code string) ([]int, *ValidationError) {
	iter, err := v.List()
	if err != nil {
		return nil, fieldError(v, field, code, err)
	}
	var out []int
	for i := 0; iter.Next(); i++ {
		n, err := iter.Value().Int64()
		if err != nil {
			return nil, fieldError(iter.Value(), fmt.Sprintf("%s[%d]", field, i), code, err)
		}
		out = append(out, int(n))
	}
	return out, nil
}

// parseGroup parses one entry of a layer's groups list. A group whose own
// fields are broken is dropped with its rules.
func parseGroup(v cue.Value, index int) (ir.RuleGroup, []ValidationError, bool) {
	var g ir.RuleGroup
	var verrs []ValidationError
	label := fmt.Sprintf("groups[%d]", index)
	groupErr := func(e *ValidationError) {
		e.Field = label + "." + e.Field
		verrs = append(verrs, *e)
	}

	name, nerr := optString(v, "name")
	if nerr != nil {
		groupErr(nerr)
	}
	g.Name = name
	if g.Name == "" {
		g.Name = fmt.Sprintf("group%d", index)
	}
	active, aerr := optBool(v, "active", true)
	if aerr != nil {
		groupErr(aerr)
	}
	g.Active = active

	rulesVal, ok := lookup(v, "rules")
	if !ok {
		return g, verrs, len(verrs) == 0
	}
	iter, err := rulesVal.List()
	if err != nil {
		groupErr(fieldError(rulesVal, "rules", ErrMalformedField, err))
	}
	if len(verrs) > 0 {
		return g, verrs, false
	}

	for ri := 0; iter.Next(); ri++ {
		rule, rerrs := parseRule(iter.Value(), g.Name, ri)
		if len(rerrs) > 0 {
			verrs = append(verrs, rerrs...)
			continue
		}
		g.Rules = append(g.Rules, rule)
	}
	return g, verrs, true
}

// parseRule parses one rule. A non-empty []ValidationError means the rule
// could not be built and must be skipped.
func parseRule(v cue.Value, group string, index int) (ir.Rule, []ValidationError) {
	r := ir.Rule{}
	var verrs []ValidationError
	check := func(e *ValidationError) {
		if e != nil {
			verrs = append(verrs, *e)
		}
	}

	id, e := optString(v, "id")
	check(e)
	r.ID = id
	if r.ID == "" {
		r.ID = fmt.Sprintf("%s.%d", group, index)
	}
	r.Name, e = optString(v, "name")
	check(e)
	r.Priority, e = optInt(v, "priority", 0)
	check(e)
	r.Weight, e = optInt(v, "weight", 1)
	check(e)

	flags := []struct {
		name string
		dst  *bool
	}{
		{"rotate", &r.AllowRotation},
		{"mirror_x", &r.AllowMirrorX},
		{"mirror_y", &r.AllowMirrorY},
		{"break_on_match", &r.BreakOnMatch},
		{"additive", &r.Additive},
		{"orientation_invariant", &r.OrientationInvariant},
		{"targets_empty", &r.TargetsEmpty},
	}
	for _, f := range flags {
		*f.dst, e = optBool(v, f.name, false)
		check(e)
	}

	if sv, ok := lookup(v, "source_values"); ok {
		r.SourceValues, e = intList(sv, "source_values", ErrMalformedField)
		check(e)
	}

	if pv, ok := lookup(v, "pattern"); ok {
		pattern, perrs := parsePattern(pv)
		r.Pattern = pattern
		verrs = append(verrs, perrs...)
	} else {
		verrs = append(verrs, ValidationError{
			Field:   "pattern",
			Message: "pattern is required",
			Code:    ErrMalformedField,
			Line:    v.Pos().Line(),
		})
	}

	stamps, serrs := parseStamps(v)
	r.Stamps = stamps
	verrs = append(verrs, serrs...)

	for i := range verrs {
		verrs[i].RuleID = r.ID
	}
	return r, verrs
}

// parsePattern reads a list of rows. Integers are exact matches; strings
// use matcher notation.
func parsePattern(v cue.Value) (ir.Pattern, []ValidationError) {
	rows, err := v.List()
	if err != nil {
		return ir.Pattern{}, []ValidationError{*fieldError(v, "pattern", ErrMalformedField, err)}
	}

	var p ir.Pattern
	var verrs []ValidationError
	var widths []int
	for rows.Next() {
		cells, err := rows.Value().List()
		if err != nil {
			verrs = append(verrs, *fieldError(rows.Value(), fmt.Sprintf("pattern[%d]", len(widths)), ErrMalformedField, err))
			widths = append(widths, 0)
			continue
		}
		width := 0
		for cells.Next() {
			cv := cells.Value()
			m, merr := parseCell(cv)
			if merr != nil {
				verrs = append(verrs, ValidationError{
					Field:   fmt.Sprintf("pattern[%d][%d]", len(widths), width),
					Message: merr.Error(),
					Code:    ErrInvalidMatcher,
					Line:    cv.Pos().Line(),
				})
			}
			p.Cells = append(p.Cells, m)
			width++
		}
		widths = append(widths, width)
	}
	if len(verrs) > 0 {
		return p, verrs
	}

	p.Size = len(widths)
	for y, w := range widths {
		if w != p.Size {
			verrs = append(verrs, ValidationError{
				Field:   fmt.Sprintf("pattern[%d]", y),
				Message: fmt.Sprintf("pattern must be square: row %d has %d cells, expected %d", y, w, p.Size),
				Code:    ErrPatternNotSquare,
				Line:    v.Pos().Line(),
			})
			break
		}
	}
	return p, verrs
}

func parseCell(v cue.Value) (ir.CellMatcher, error) {
	switch v.Kind() {
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return ir.CellMatcher{}, err
		}
		if n < 0 {
			return ir.CellMatcher{}, fmt.Errorf("cell values are non-negative, got %d", n)
		}
		return ir.Exact(int(n)), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return ir.CellMatcher{}, err
		}
		return ir.ParseCellMatcher(s)
	default:
		return ir.CellMatcher{}, fmt.Errorf("pattern cell must be an int or matcher string, got %v", v.IncompleteKind())
	}
}

// parseStamps reads the rule's output in one of three forms:
//
//	tile: 5                          single 1x1 stamp
//	tiles: [5, 6, 7]                 one 1x1 stamp per tile, equally weighted
//	stamps: [{tiles: [[5, 6]], origin_x: 0, origin_y: 0, weight: 2}]
func parseStamps(v cue.Value) ([]ir.Stamp, []ValidationError) {
	var stamps []ir.Stamp
	var verrs []ValidationError

	if tv, ok := lookup(v, "tile"); ok {
		if n, err := tv.Int64(); err != nil {
			verrs = append(verrs, *fieldError(tv, "tile", ErrMalformedStamp, err))
		} else {
			stamps = append(stamps, ir.SingleTile(int(n)))
		}
	}

	if tv, ok := lookup(v, "tiles"); ok {
		ts, e := intList(tv, "tiles", ErrMalformedStamp)
		if e != nil {
			verrs = append(verrs, *e)
		}
		for _, t := range ts {
			stamps = append(stamps, ir.SingleTile(t))
		}
	}

	sv, ok := lookup(v, "stamps")
	if !ok {
		return stamps, verrs
	}
	iter, err := sv.List()
	if err != nil {
		return stamps, append(verrs, *fieldError(sv, "stamps", ErrMalformedStamp, err))
	}

	for si := 0; iter.Next(); si++ {
		sval := iter.Value()
		st, e := parseStamp(sval)
		if e != nil {
			e.Field = fmt.Sprintf("stamps[%d]", si) + e.Field
			if e.Line == 0 {
				e.Line = sval.Pos().Line()
			}
			verrs = append(verrs, *e)
			continue
		}
		stamps = append(stamps, st)
	}
	return stamps, verrs
}

// parseStamp reads one stamp struct. Errors carry a field suffix relative
// to the stamp, empty for problems with the stamp as a whole.
func parseStamp(v cue.Value) (ir.Stamp, *ValidationError) {
	st := ir.Stamp{}
	var e *ValidationError

	for _, f := range []struct {
		name string
		dst  *int
		def  int
	}{
		{"origin_x", &st.OriginX, 0},
		{"origin_y", &st.OriginY, 0},
		{"weight", &st.Weight, 1},
	} {
		if *f.dst, e = optInt(v, f.name, f.def); e != nil {
			e.Field = "." + e.Field
			e.Code = ErrMalformedStamp
			return st, e
		}
	}

	problem := func(format string, args ...any) *ValidationError {
		return &ValidationError{Message: fmt.Sprintf(format, args...), Code: ErrMalformedStamp}
	}

	tv, ok := lookup(v, "tiles")
	if !ok {
		return st, problem("stamp tiles are required")
	}
	rows, err := tv.List()
	if err != nil {
		return st, fieldError(tv, ".tiles", ErrMalformedStamp, err)
	}
	for rows.Next() {
		cells, err := rows.Value().List()
		if err != nil {
			return st, fieldError(rows.Value(), fmt.Sprintf(".tiles[%d]", st.Height), ErrMalformedStamp, err)
		}
		width := 0
		for cells.Next() {
			tile, msg := parseTile(cells.Value())
			if msg != "" {
				return st, problem("%s", msg)
			}
			st.Tiles = append(st.Tiles, tile)
			width++
		}
		if st.Height == 0 {
			st.Width = width
		} else if width != st.Width {
			return st, problem("stamp rows must have equal length: row %d has %d tiles, expected %d", st.Height, width, st.Width)
		}
		st.Height++
	}
	return st, nil
}

func parseTile(v cue.Value) (int, string) {
	switch v.Kind() {
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return 0, err.Error()
		}
		return int(n), ""
	case cue.StringKind:
		if s, _ := v.String(); s == holeMarker {
			return ir.NoTile, ""
		}
	}
	return 0, fmt.Sprintf("stamp tile must be an int or %q", holeMarker)
}
