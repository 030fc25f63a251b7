package compiler

import (
	"fmt"

	"github.com/roach88/autotile/internal/ir"
)

// ShadowWarning reports a rule that can never be selected.
//
// Shadowing is a warning, not an error: authors often park rules behind a
// catch-all while iterating on a layer.
type ShadowWarning struct {
	Group      string `json:"group"`
	RuleID     string `json:"rule_id"`
	ShadowedBy string `json:"shadowed_by"`
	Message    string `json:"message"`
	Level      string `json:"level"` // "warning" or "info"
}

// AnalyzeShadowing performs static reachability analysis on a layer.
//
// Inside a group the first priority tier with a candidate wins, so a
// catch-all rule (all-Any pattern, no source filter) hides every rule of a
// later tier whose anchors it also accepts. A break-on-match catch-all
// additionally hides every later group. Inactive groups are skipped.
//
// A layer without catch-alls returns an empty warning list.
func AnalyzeShadowing(layer *ir.AutoLayer) []ShadowWarning {
	warnings := []ShadowWarning{}
	var breaker *ir.Rule

	for gi := range layer.Groups {
		g := &layer.Groups[gi]
		if !g.Active {
			continue
		}

		if breaker != nil {
			for ri := range g.Rules {
				r := &g.Rules[ri]
				if covers(breaker, r) {
					warnings = append(warnings, ShadowWarning{
						Group:      g.Name,
						RuleID:     r.ID,
						ShadowedBy: breaker.ID,
						Message:    fmt.Sprintf("rule %s never fires: break-on-match catch-all %s in an earlier group finalizes every anchor it accepts", r.ID, breaker.ID),
						Level:      "warning",
					})
				}
			}
			continue
		}

		// rules behind a catch-all of an earlier tier
		for ri := range g.Rules {
			r := &g.Rules[ri]
			for ci := range g.Rules {
				c := &g.Rules[ci]
				if c.Priority >= r.Priority || !isCatchAll(c) || !covers(c, r) {
					continue
				}
				warnings = append(warnings, ShadowWarning{
					Group:      g.Name,
					RuleID:     r.ID,
					ShadowedBy: c.ID,
					Message:    fmt.Sprintf("rule %s (priority %d) never fires: catch-all %s (priority %d) wins first", r.ID, r.Priority, c.ID, c.Priority),
					Level:      "warning",
				})
				break
			}
		}

		breaker = soleBreaker(g)
	}
	return warnings
}

// soleBreaker returns the group's break-on-match catch-all if it always
// wins: it is alone in the group's first priority tier.
func soleBreaker(g *ir.RuleGroup) *ir.Rule {
	var first *ir.Rule
	alone := false
	for ri := range g.Rules {
		r := &g.Rules[ri]
		switch {
		case first == nil || r.Priority < first.Priority:
			first, alone = r, true
		case r.Priority == first.Priority:
			alone = false
		}
	}
	if first == nil || !alone || !first.BreakOnMatch || !isCatchAll(first) {
		return nil
	}
	return first
}

// isCatchAll reports whether c matches every anchor it accepts.
func isCatchAll(c *ir.Rule) bool {
	if len(c.SourceValues) > 0 {
		return false
	}
	for _, m := range c.Pattern.Cells {
		if !m.IsAny() {
			return false
		}
	}
	return true
}

// covers reports whether every anchor r accepts is also accepted by c.
func covers(c, r *ir.Rule) bool {
	return isCatchAll(c) && (c.TargetsEmpty || !r.TargetsEmpty)
}
