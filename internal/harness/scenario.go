package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/autotile/internal/level"
)

// Scenario defines a solver test scenario.
// A scenario solves a level, paints a sequence of edits through the
// incremental scheduler and asserts on the final auto-layer result.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Rules is the path to the CUE rule file.
	// Relative paths are resolved against the scenario file location.
	Rules string `yaml:"rules,omitempty"`

	// RulesSource holds CUE rules inline. Exactly one of Rules and
	// RulesSource is set.
	RulesSource string `yaml:"rules_source,omitempty"`

	// Layer selects a layer of the rule file. May be empty when the file
	// declares exactly one layer.
	Layer string `yaml:"layer,omitempty"`

	// Seed overrides the layer's base seed.
	Seed *uint64 `yaml:"seed,omitempty"`

	// Level is the starting IntGrid and its edge policy.
	Level level.Spec `yaml:"level"`

	// Steps are painted in order, one scheduler flush per step.
	Steps []Step `yaml:"steps,omitempty"`

	// Assertions validate the final result.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one paint step.
type Step struct {
	// Set lists the cell edits applied together before the flush.
	Set []level.Edit `yaml:"set"`

	// ExpectChanges, when set, is the exact number of cells the flush
	// must report as changed.
	ExpectChanges *int `yaml:"expect_changes,omitempty"`
}

// Assertion validates the final result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "cell_tiles": the stack at Cell holds exactly Tiles (and Variants, if given)
	// - "cell_empty": nothing is written at Cell
	// - "tile_count": Tile appears Count times across all stacks
	// - "cell_count": exactly Count cells are written
	Type string `yaml:"type"`

	// Cell is the [x, y] coordinate (cell_tiles, cell_empty).
	Cell []int `yaml:"cell,omitempty"`

	// Tiles is the expected stack, bottom first (cell_tiles).
	Tiles []int `yaml:"tiles,omitempty"`

	// Variants optionally pins the symmetry variant of each tile (cell_tiles).
	Variants []string `yaml:"variants,omitempty"`

	// Tile is the counted tile id (tile_count).
	Tile int `yaml:"tile,omitempty"`

	// Count is the expected count (tile_count, cell_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertCellTiles = "cell_tiles"
	AssertCellEmpty = "cell_empty"
	AssertTileCount = "tile_count"
	AssertCellCount = "cell_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative Rules path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving a relative Rules path
// against baseDir.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Rules != "" && !filepath.IsAbs(scenario.Rules) && baseDir != "" {
		scenario.Rules = filepath.Join(baseDir, scenario.Rules)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Rules == "" && s.RulesSource == "":
		return fmt.Errorf("rules or rules_source is required")
	case s.Rules != "" && s.RulesSource != "":
		return fmt.Errorf("rules and rules_source are mutually exclusive")
	case s.Rules != "":
		if _, err := os.Stat(s.Rules); os.IsNotExist(err) {
			return fmt.Errorf("rules file not found: %s", s.Rules)
		}
	}

	if len(s.Level.Rows) == 0 {
		return fmt.Errorf("level.rows is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if len(step.Set) == 0 {
			return fmt.Errorf("steps[%d]: set is required and must be non-empty", i)
		}
		if step.ExpectChanges != nil && *step.ExpectChanges < 0 {
			return fmt.Errorf("steps[%d]: expect_changes must be non-negative", i)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCellTiles:
		if len(a.Cell) != 2 {
			return fmt.Errorf("assertions[%d]: cell must be [x, y] for cell_tiles", index)
		}
		if len(a.Tiles) == 0 {
			return fmt.Errorf("assertions[%d]: tiles is required for cell_tiles (use cell_empty for empty cells)", index)
		}
		if len(a.Variants) > 0 && len(a.Variants) != len(a.Tiles) {
			return fmt.Errorf("assertions[%d]: variants must match tiles in length", index)
		}
	case AssertCellEmpty:
		if len(a.Cell) != 2 {
			return fmt.Errorf("assertions[%d]: cell must be [x, y] for cell_empty", index)
		}
	case AssertTileCount, AssertCellCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
