package ir

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// MatcherKind tags the CellMatcher variant.
type MatcherKind string

const (
	MatchAny    MatcherKind = "any"     // any value, including empty
	MatchExact  MatcherKind = "exact"   // only Value
	MatchNot    MatcherKind = "not"     // anything but Value
	MatchNoneOf MatcherKind = "none_of" // anything outside Set
	MatchOneOf  MatcherKind = "one_of"  // only values in Set
	MatchEmpty  MatcherKind = "empty"   // only 0
)

// CellMatcher is a single pattern cell.
type CellMatcher struct {
	Kind  MatcherKind `json:"kind"`
	Value int         `json:"value,omitempty"`
	Set   []int       `json:"set,omitempty"`
}

// Any matches every value.
func Any() CellMatcher { return CellMatcher{Kind: MatchAny} }

// Exact matches v only.
func Exact(v int) CellMatcher { return CellMatcher{Kind: MatchExact, Value: v} }

// Not matches everything except v.
func Not(v int) CellMatcher { return CellMatcher{Kind: MatchNot, Value: v} }

// NoneOf matches every value outside set.
func NoneOf(set ...int) CellMatcher {
	s := slices.Clone(set)
	slices.Sort(s)
	return CellMatcher{Kind: MatchNoneOf, Set: slices.Compact(s)}
}

// OneOf matches only values in set.
func OneOf(set ...int) CellMatcher {
	s := slices.Clone(set)
	slices.Sort(s)
	return CellMatcher{Kind: MatchOneOf, Set: slices.Compact(s)}
}

// Empty matches 0 only.
func Empty() CellMatcher { return CellMatcher{Kind: MatchEmpty} }

// IsAny reports whether the matcher places no constraint.
func (m CellMatcher) IsAny() bool {
	return m.Kind == MatchAny
}

// Test reports whether v satisfies the matcher.
func (m CellMatcher) Test(v int) bool {
	switch m.Kind {
	case MatchAny:
		return true
	case MatchExact:
		return v == m.Value
	case MatchNot:
		return v != m.Value
	case MatchNoneOf:
		return !slices.Contains(m.Set, v)
	case MatchOneOf:
		return slices.Contains(m.Set, v)
	case MatchEmpty:
		return v == 0
	default:
		return false
	}
}

// Equal reports structural equality.
func (m CellMatcher) Equal(o CellMatcher) bool {
	return m.Kind == o.Kind && m.Value == o.Value && slices.Equal(m.Set, o.Set)
}

// String renders the matcher in rule-file notation.
func (m CellMatcher) String() string {
	switch m.Kind {
	case MatchAny:
		return "*"
	case MatchEmpty:
		return "."
	case MatchExact:
		return strconv.Itoa(m.Value)
	case MatchNot:
		return "!" + strconv.Itoa(m.Value)
	case MatchNoneOf:
		return "!" + formatSet(m.Set)
	case MatchOneOf:
		return formatSet(m.Set)
	default:
		return "?" + string(m.Kind)
	}
}

// ParseCellMatcher parses rule-file notation:
//
//	3       exact(3)
//	*       any
//	.       empty
//	!3      not(3)
//	!{1,2}  none_of(1, 2)
//	{1,2}   one_of(1, 2)
func ParseCellMatcher(s string) (CellMatcher, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "*":
		return Any(), nil
	case s == ".":
		return Empty(), nil
	case strings.HasPrefix(s, "!{") && strings.HasSuffix(s, "}"):
		set, err := parseSet(s, s[2:len(s)-1])
		if err != nil {
			return CellMatcher{}, err
		}
		return NoneOf(set...), nil
	case strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"):
		set, err := parseSet(s, s[1:len(s)-1])
		if err != nil {
			return CellMatcher{}, err
		}
		return OneOf(set...), nil
	case strings.HasPrefix(s, "!"):
		v, err := parseCellValue(s[1:])
		if err != nil {
			return CellMatcher{}, fmt.Errorf("matcher %q: %w", s, err)
		}
		return Not(v), nil
	default:
		v, err := parseCellValue(s)
		if err != nil {
			return CellMatcher{}, fmt.Errorf("matcher %q: %w", s, err)
		}
		return Exact(v), nil
	}
}

func parseSet(src, body string) ([]int, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("empty value set in %q", src)
	}
	var set []int
	for _, part := range strings.Split(body, ",") {
		v, err := parseCellValue(part)
		if err != nil {
			return nil, fmt.Errorf("matcher %q: %w", src, err)
		}
		set = append(set, v)
	}
	return set, nil
}

func formatSet(set []int) string {
	parts := make([]string, len(set))
	for i, v := range set {
		parts[i] = strconv.Itoa(v)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func parseCellValue(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid cell value %q", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("cell values are non-negative, got %d", v)
	}
	return v, nil
}
