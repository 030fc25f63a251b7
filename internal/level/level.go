package level

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/roach88/autotile/internal/ir"
)

// Level load error codes (E300-E399)
const (
	ErrMissingEdge  = "E301" // no edge policy; defaulted unless strict
	ErrInvalidEdge  = "E302" // unknown edge kind
	ErrRaggedRows   = "E303" // rows of differing length
	ErrNegativeCell = "E304" // cell value below 0
)

// LoadError is a coded problem with a level file.
type LoadError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Format is a level file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported level file extension %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}
}

// Spec is the on-disk shape of a level.
//
//	name: cave
//	edge: clamp
//	rows:
//	  - [0, 1, 1]
//	  - [1, 1, 0]
type Spec struct {
	Name string  `yaml:"name" toml:"name" json:"name"`
	Edge string  `yaml:"edge,omitempty" toml:"edge,omitempty" json:"edge,omitempty"`
	Fill int     `yaml:"fill,omitempty" toml:"fill,omitempty" json:"fill,omitempty"`
	Rows [][]int `yaml:"rows" toml:"rows" json:"rows"`
}

// Options tunes level loading.
type Options struct {
	// StrictEdge turns a missing edge policy into an error.
	StrictEdge bool
}

// Level is an IntGrid together with the edge policy it is solved under.
type Level struct {
	Name string
	Edge ir.EdgePolicy
	Grid *IntGrid

	// EdgeDefaulted is set when the file declared no edge policy and
	// EdgeEmpty was assumed.
	EdgeDefaulted bool
}

// LoadFile reads a YAML or TOML level file.
func LoadFile(path string, opts Options) (*Level, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read level: %w", err)
	}
	lvl, err := Parse(data, format, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if lvl.Name == "" {
		lvl.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return lvl, nil
}

// Parse decodes a level in the given format.
func Parse(data []byte, format Format, opts Options) (*Level, error) {
	var spec Spec
	var lines []int

	switch format {
	case FormatYAML:
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		if len(doc.Content) > 0 {
			if err := doc.Decode(&spec); err != nil {
				return nil, fmt.Errorf("failed to decode level: %w", err)
			}
			lines = rowLines(&doc)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown level format %q", format)
	}

	return spec.build(opts, lines)
}

// Build turns a decoded spec into a Level.
func (s Spec) Build(opts Options) (*Level, error) {
	return s.build(opts, nil)
}

func (s Spec) build(opts Options, lines []int) (*Level, error) {
	lineOf := func(row int) int {
		if row < len(lines) {
			return lines[row]
		}
		return 0
	}

	edge, defaulted, err := ParseEdge(s.Edge, s.Fill)
	if err != nil {
		return nil, err
	}
	if defaulted && opts.StrictEdge {
		return nil, &LoadError{Code: ErrMissingEdge, Field: "edge", Message: "edge policy is required (strict_edge)"}
	}

	for y, row := range s.Rows {
		if len(row) != len(s.Rows[0]) {
			return nil, &LoadError{
				Code:    ErrRaggedRows,
				Field:   fmt.Sprintf("rows[%d]", y),
				Message: fmt.Sprintf("row has %d cells, expected %d", len(row), len(s.Rows[0])),
				Line:    lineOf(y),
			}
		}
		for x, v := range row {
			if v < 0 {
				return nil, &LoadError{
					Code:    ErrNegativeCell,
					Field:   fmt.Sprintf("rows[%d][%d]", y, x),
					Message: fmt.Sprintf("cell values are non-negative, got %d", v),
					Line:    lineOf(y),
				}
			}
		}
	}

	grid, err := FromRows(s.Rows)
	if err != nil {
		return nil, err
	}
	return &Level{Name: s.Name, Edge: edge, Grid: grid, EdgeDefaulted: defaulted}, nil
}

// ParseEdge resolves an edge kind name. An empty name defaults to
// EdgeEmpty and reports defaulted.
func ParseEdge(kind string, fill int) (policy ir.EdgePolicy, defaulted bool, err error) {
	if kind == "" {
		return ir.EdgePolicy{Kind: ir.EdgeEmpty}, true, nil
	}
	k := ir.EdgeKind(strings.ToLower(kind))
	if !ir.ValidEdgeKinds[k] {
		return ir.EdgePolicy{}, false, &LoadError{
			Code:    ErrInvalidEdge,
			Field:   "edge",
			Message: fmt.Sprintf("unknown edge policy %q (want empty, value or clamp)", kind),
		}
	}
	if k == ir.EdgeValue {
		if fill < 0 {
			return ir.EdgePolicy{}, false, &LoadError{
				Code:    ErrInvalidEdge,
				Field:   "fill",
				Message: fmt.Sprintf("edge fill is non-negative, got %d", fill),
			}
		}
		return ir.EdgePolicy{Kind: k, Fill: fill}, false, nil
	}
	return ir.EdgePolicy{Kind: k}, false, nil
}

// rowLines returns the source line of every entry of the top-level rows
// sequence.
func rowLines(doc *yaml.Node) []int {
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "rows" {
			continue
		}
		var lines []int
		for _, row := range root.Content[i+1].Content {
			lines = append(lines, row.Line)
		}
		return lines
	}
	return nil
}

// Spec returns the on-disk form of l.
func (l *Level) Spec() Spec {
	s := Spec{Name: l.Name, Rows: l.Grid.Rows()}
	if !l.EdgeDefaulted {
		s.Edge = string(l.Edge.Kind)
		s.Fill = l.Edge.Fill
	}
	return s
}

// Encode writes l in the given format.
func Encode(l *Level, format Format) ([]byte, error) {
	spec := l.Spec()
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(spec); err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}
		return buf.Bytes(), nil
	case FormatTOML:
		data, err := toml.Marshal(spec)
		if err != nil {
			return nil, fmt.Errorf("failed to encode TOML: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unknown level format %q", format)
	}
}

// WriteFile encodes l by the extension of path.
func WriteFile(path string, l *Level) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Encode(l, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write level: %w", err)
	}
	return nil
}
