package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainLayer  = "autotile/layer/v1"
	DomainResult = "autotile/result/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// LayerHash identifies a compiled layer by content. Two layers with the same
// hash produce identical solves on identical grids.
func LayerHash(layer *AutoLayer) (string, error) {
	canonical, err := MarshalCanonical(CanonicalLayer(layer))
	if err != nil {
		return "", fmt.Errorf("LayerHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainLayer, canonical), nil
}

// ResultHash identifies a solve result by content.
func ResultHash(r SolveResult) (string, error) {
	canonical, err := MarshalCanonical(CanonicalResult(r))
	if err != nil {
		return "", fmt.Errorf("ResultHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainResult, canonical), nil
}

// MustResultHash is like ResultHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustResultHash(r SolveResult) string {
	h, err := ResultHash(r)
	if err != nil {
		panic(err)
	}
	return h
}

// CanonicalTiles converts a tile stack to canonical form.
func CanonicalTiles(tiles []TileRef) []any {
	out := make([]any, len(tiles))
	for i, t := range tiles {
		out[i] = map[string]any{
			"tile":    t.Tile,
			"variant": t.Variant.String(),
		}
	}
	return out
}

// CanonicalResult converts a result to canonical form, cells row-major.
func CanonicalResult(r SolveResult) []any {
	cells := make([]any, 0, len(r))
	for _, c := range r.SortedCoords() {
		cells = append(cells, map[string]any{
			"x":     c.X,
			"y":     c.Y,
			"tiles": CanonicalTiles(r[c]),
		})
	}
	return cells
}

// CanonicalDiff converts a diff to canonical form.
func CanonicalDiff(d Diff) []any {
	out := make([]any, len(d))
	for i, ch := range d {
		out[i] = map[string]any{
			"x":      ch.Coord.X,
			"y":      ch.Coord.Y,
			"kind":   string(ch.Kind),
			"before": CanonicalTiles(ch.Before),
			"after":  CanonicalTiles(ch.After),
		}
	}
	return out
}

// CanonicalLayer converts a layer to canonical form. Rule order is kept:
// it is semantically significant.
func CanonicalLayer(layer *AutoLayer) map[string]any {
	groups := make([]any, len(layer.Groups))
	for gi, g := range layer.Groups {
		rules := make([]any, len(g.Rules))
		for ri, r := range g.Rules {
			rules[ri] = canonicalRule(r)
		}
		groups[gi] = map[string]any{
			"name":   g.Name,
			"active": g.Active,
			"rules":  rules,
		}
	}
	return map[string]any{
		"name":   layer.Name,
		"seed":   layer.Seed,
		"groups": groups,
	}
}

func canonicalRule(r Rule) map[string]any {
	cells := make([]any, len(r.Pattern.Cells))
	for i, m := range r.Pattern.Cells {
		cells[i] = m.String()
	}
	stamps := make([]any, len(r.Stamps))
	for i, s := range r.Stamps {
		stamps[i] = map[string]any{
			"width":    s.Width,
			"height":   s.Height,
			"origin_x": s.OriginX,
			"origin_y": s.OriginY,
			"tiles":    s.Tiles,
			"weight":   s.Weight,
		}
	}
	sourceValues := r.SourceValues
	if sourceValues == nil {
		sourceValues = []int{}
	}
	return map[string]any{
		"id":                    r.ID,
		"name":                  r.Name,
		"priority":              r.Priority,
		"pattern":               map[string]any{"size": r.Pattern.Size, "cells": cells},
		"stamps":                stamps,
		"weight":                r.Weight,
		"allow_rotation":        r.AllowRotation,
		"allow_mirror_x":        r.AllowMirrorX,
		"allow_mirror_y":        r.AllowMirrorY,
		"break_on_match":        r.BreakOnMatch,
		"additive":              r.Additive,
		"orientation_invariant": r.OrientationInvariant,
		"targets_empty":         r.TargetsEmpty,
		"source_values":         sourceValues,
	}
}
