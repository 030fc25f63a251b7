package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/autotile/internal/ir"
)

const terrainRules = `
layer: terrain: {
	seed: 7
	groups: [{
		name: "walls"
		rules: [{
			id:       "interior"
			priority: 1
			pattern: [
				["*", 1, "*"],
				[1, 1, 1],
				["*", 1, "*"],
			]
			tile: 100
		}, {
			id:       "fallback"
			priority: 10
			pattern: [["*", "*", "*"], ["*", "*", "*"], ["*", "*", "*"]]
			tiles: [200, 201]
			weight: 2
		}]
	}, {
		name:   "decor"
		active: false
		rules: [{
			id:             "moss"
			pattern:        [["*", "*", "*"], ["*", "!{0,2}", "*"], ["*", "*", "*"]]
			rotate:         true
			mirror_x:       true
			break_on_match: true
			additive:       true
			targets_empty:  true
			source_values: [1, 3]
			stamps: [{
				tiles: [[5, "_"], [6, 7]]
				origin_x: 0
				origin_y: 1
				weight: 3
			}]
		}]
	}]
}
`

func TestCompileRuleSet_Basic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(terrainRules)
	require.NoError(t, v.Err())

	rs, verrs, err := CompileRuleSet(v)
	require.NoError(t, err)
	assert.Empty(t, verrs)
	require.Len(t, rs.Layers, 1)

	l := rs.Layers[0]
	assert.Equal(t, "terrain", l.Name)
	assert.Equal(t, uint64(7), l.Seed)
	require.Len(t, l.Groups, 2)

	walls := l.Groups[0]
	assert.Equal(t, "walls", walls.Name)
	assert.True(t, walls.Active)
	require.Len(t, walls.Rules, 2)

	interior := walls.Rules[0]
	assert.Equal(t, "interior", interior.ID)
	assert.Equal(t, 1, interior.Priority)
	assert.Equal(t, 1, interior.Weight)
	assert.Equal(t, 3, interior.Pattern.Size)
	assert.Equal(t, ir.Any(), interior.Pattern.At(-1, -1))
	assert.Equal(t, ir.Exact(1), interior.Pattern.At(0, -1))
	assert.Equal(t, []ir.Stamp{ir.SingleTile(100)}, interior.Stamps)

	fallback := walls.Rules[1]
	assert.Equal(t, 2, fallback.Weight)
	assert.Equal(t, []ir.Stamp{ir.SingleTile(200), ir.SingleTile(201)}, fallback.Stamps)

	decor := l.Groups[1]
	assert.False(t, decor.Active)
	moss := decor.Rules[0]
	assert.Equal(t, ir.NoneOf(0, 2), moss.Pattern.At(0, 0))
	assert.True(t, moss.AllowRotation)
	assert.True(t, moss.AllowMirrorX)
	assert.False(t, moss.AllowMirrorY)
	assert.True(t, moss.BreakOnMatch)
	assert.True(t, moss.Additive)
	assert.True(t, moss.TargetsEmpty)
	assert.False(t, moss.OrientationInvariant)
	assert.Equal(t, []int{1, 3}, moss.SourceValues)
	assert.Equal(t, []ir.Stamp{{
		Width: 2, Height: 2, OriginX: 0, OriginY: 1, Weight: 3,
		Tiles: []int{5, ir.NoTile, 6, 7},
	}}, moss.Stamps)
}

func TestCompileRuleSet_DefaultsRuleAndGroupNames(t *testing.T) {
	v := cuecontext.New().CompileString(`
		layer: "cave-floor": groups: [{rules: [{pattern: [["*"]], tile: 1}]}]
	`)
	rs, verrs, err := CompileRuleSet(v)
	require.NoError(t, err)
	assert.Empty(t, verrs)

	l := rs.Layers[0]
	assert.Equal(t, "cave-floor", l.Name)
	assert.Equal(t, "group0", l.Groups[0].Name)
	assert.Equal(t, "group0.0", l.Groups[0].Rules[0].ID)
}

func TestCompileRuleSet_MissingLayer(t *testing.T) {
	v := cuecontext.New().CompileString(`rules: []`)
	_, _, err := CompileRuleSet(v)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "layer", ce.Field)
}

func TestCompileRuleSet_MissingPatternDropsRule(t *testing.T) {
	v := cuecontext.New().CompileString(`
		layer: l: groups: [{name: "g", rules: [
			{id: "nopat", tile: 1},
			{id: "good", pattern: [["*"]], tile: 2},
		]}]
	`)
	rs, verrs, err := CompileRuleSet(v)
	require.NoError(t, err)

	rules := rs.Layers[0].Groups[0].Rules
	require.Len(t, rules, 1)
	assert.Equal(t, "good", rules[0].ID)

	require.Len(t, verrs, 1)
	assert.Equal(t, "nopat", verrs[0].RuleID)
	assert.Equal(t, "pattern", verrs[0].Field)
	assert.Equal(t, ErrMalformedField, verrs[0].Code)
	assert.Contains(t, verrs[0].Message, "pattern is required")
	assert.Positive(t, verrs[0].Line)
}

func TestCompileRuleSet_WrongTypedFieldsDropRule(t *testing.T) {
	tests := []struct {
		name  string
		bad   string
		field string
		code  string
	}{
		{"flat pattern", `{id: "bad", pattern: ["*"], tile: 1}`, "pattern[0]", ErrMalformedField},
		{"scalar pattern", `{id: "bad", pattern: "*", tile: 1}`, "pattern", ErrMalformedField},
		{"string weight", `{id: "bad", weight: "heavy", pattern: [["*"]], tile: 1}`, "weight", ErrMalformedField},
		{"float priority", `{id: "bad", priority: 1.5, pattern: [["*"]], tile: 1}`, "priority", ErrMalformedField},
		{"string flag", `{id: "bad", rotate: "yes", pattern: [["*"]], tile: 1}`, "rotate", ErrMalformedField},
		{"string source values", `{id: "bad", source_values: ["a"], pattern: [["*"]], tile: 1}`, "source_values[0]", ErrMalformedField},
		{"string tile", `{id: "bad", pattern: [["*"]], tile: "five"}`, "tile", ErrMalformedStamp},
		{"string stamp weight", `{id: "bad", pattern: [["*"]], stamps: [{tiles: [[1]], weight: "x"}]}`, "stamps[0].weight", ErrMalformedStamp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `layer: l: groups: [{name: "g", rules: [
				` + tt.bad + `,
				{id: "good", pattern: [["*"]], tile: 2},
			]}]`
			res, err := Load([]byte(src), "p.cue")
			require.NoError(t, err)

			rules := res.RuleSet.Layers[0].Groups[0].Rules
			require.Len(t, rules, 1)
			assert.Equal(t, "good", rules[0].ID)

			require.Len(t, res.Errors, 1)
			got := res.Errors[0]
			assert.Equal(t, "bad", got.RuleID)
			assert.Equal(t, tt.field, got.Field)
			assert.Equal(t, tt.code, got.Code)
			assert.Positive(t, got.Line)
		})
	}
}

func TestCompileRuleSet_BrokenGroupKeepsOtherGroups(t *testing.T) {
	v := cuecontext.New().CompileString(`
		layer: l: groups: [
			{name: "broken", active: "sometimes", rules: [{pattern: [["*"]], tile: 1}]},
			{name: "fine", rules: [{pattern: [["*"]], tile: 2}]},
		]
	`)
	rs, verrs, err := CompileRuleSet(v)
	require.NoError(t, err)

	groups := rs.Layers[0].Groups
	require.Len(t, groups, 1)
	assert.Equal(t, "fine", groups[0].Name)

	require.Len(t, verrs, 1)
	assert.Equal(t, "groups[0].active", verrs[0].Field)
	assert.Equal(t, ErrMalformedField, verrs[0].Code)
	assert.Empty(t, verrs[0].RuleID)
}

func TestCompileRuleSet_ShapeErrorsDropRule(t *testing.T) {
	v := cuecontext.New().CompileString(`
		layer: l: groups: [{
			name: "g"
			rules: [
				{id: "ragged", pattern: [["*", "*", "*"], ["*"], ["*", "*", "*", "*", "*"]], tile: 1},
				{id: "badcell", pattern: [["?"]], tile: 1},
				{id: "negcell", pattern: [[-2]], tile: 1},
				{id: "raggedstamp", pattern: [["*"]], stamps: [{tiles: [[1, 2], [3]]}]},
				{id: "floatstamp", pattern: [["*"]], stamps: [{tiles: [[1.5]]}]},
				{id: "ok", pattern: [["*"]], tile: 1},
			]
		}]
	`)
	require.NoError(t, v.Err())

	rs, verrs, err := CompileRuleSet(v)
	require.NoError(t, err)

	rules := rs.Layers[0].Groups[0].Rules
	require.Len(t, rules, 1)
	assert.Equal(t, "ok", rules[0].ID)

	codes := map[string]string{}
	for _, e := range verrs {
		codes[e.RuleID] = e.Code
		assert.Positive(t, e.Line, "%s carries a source line", e.RuleID)
	}
	assert.Equal(t, map[string]string{
		"ragged":      ErrPatternNotSquare,
		"badcell":     ErrInvalidMatcher,
		"negcell":     ErrInvalidMatcher,
		"raggedstamp": ErrMalformedStamp,
		"floatstamp":  ErrMalformedStamp,
	}, codes)
}

func TestCompileLayer_PathLookup(t *testing.T) {
	v := cuecontext.New().CompileString(terrainRules)
	l, verrs, err := CompileLayer(v.LookupPath(cue.ParsePath("layer.terrain")))
	require.NoError(t, err)
	assert.Empty(t, verrs)
	assert.Equal(t, "terrain", l.Name)
}

func TestLoad_PreparesLayers(t *testing.T) {
	src := `
		layer: l: groups: [{
			name: "g"
			rules: [
				{id: "even", pattern: [["*", "*"], ["*", "*"]], tile: 1},
				{id: "zero", pattern: [["*"]], tile: 1, weight: 0},
				{id: "good", pattern: [["*"]], tile: 2},
				{id: "good", pattern: [["*"]], tile: 3},
			]
		}]
	`
	res, err := Load([]byte(src), "rules.cue")
	require.NoError(t, err)

	rules := res.RuleSet.Layers[0].Groups[0].Rules
	require.Len(t, rules, 1)
	assert.Equal(t, []ir.Stamp{ir.SingleTile(2)}, rules[0].Stamps)

	var codes []string
	for _, e := range res.Errors {
		codes = append(codes, e.Code)
	}
	assert.ElementsMatch(t, []string{ErrPatternEven, ErrNonPositiveWeight, ErrDuplicateRuleID}, codes)
}

func TestLoad_SyntaxErrorHasPosition(t *testing.T) {
	_, err := Load([]byte("layer: {"), "broken.cue")
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "broken.cue", ce.Pos.Filename())
	assert.Contains(t, err.Error(), "broken.cue:")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terrain.cue")
	require.NoError(t, os.WriteFile(path, []byte(terrainRules), 0o644))

	res, err := LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	l, ok := res.RuleSet.Layer("terrain")
	require.True(t, ok)
	assert.Len(t, l.Groups, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)
}
