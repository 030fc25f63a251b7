package store

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/autotile/internal/ir"
)

// marshalTiles converts a tile stack to canonical JSON TEXT for storage.
func marshalTiles(tiles []ir.TileRef) (string, error) {
	data, err := ir.MarshalCanonical(ir.CanonicalTiles(tiles))
	if err != nil {
		return "", fmt.Errorf("marshal tiles: %w", err)
	}
	return string(data), nil
}

type storedTile struct {
	Tile    int    `json:"tile"`
	Variant string `json:"variant"`
}

// unmarshalTiles parses the canonical form written by marshalTiles.
// An empty stack decodes to nil.
func unmarshalTiles(data string) ([]ir.TileRef, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var stored []storedTile
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("unmarshal tiles: %w", err)
	}
	tiles := make([]ir.TileRef, len(stored))
	for i, st := range stored {
		v, ok := ir.ParseVariant(st.Variant)
		if !ok {
			return nil, fmt.Errorf("unmarshal tiles: unknown variant %q", st.Variant)
		}
		tiles[i] = ir.TileRef{Tile: st.Tile, Variant: v}
	}
	return tiles, nil
}

// marshalLayer stores the full compiled layer so a run can be replayed
// without the rule file it came from.
func marshalLayer(layer *ir.AutoLayer) (string, error) {
	data, err := json.Marshal(layer)
	if err != nil {
		return "", fmt.Errorf("marshal layer: %w", err)
	}
	return string(data), nil
}

func unmarshalLayer(data string) (*ir.AutoLayer, error) {
	var layer ir.AutoLayer
	if err := json.Unmarshal([]byte(data), &layer); err != nil {
		return nil, fmt.Errorf("unmarshal layer: %w", err)
	}
	return &layer, nil
}

// SQLite integers are signed 64-bit; seeds use the full uint64 range.
func formatSeed(seed uint64) string {
	return strconv.FormatUint(seed, 10)
}

func parseSeed(s string) (uint64, error) {
	seed, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse seed: %w", err)
	}
	return seed, nil
}
