package store

import (
	"github.com/roach88/autotile/internal/ir"
	"github.com/roach88/autotile/internal/level"
)

// Run is the header record of one recorded solve session.
type Run struct {
	ID         string        `json:"id"`
	Layer      string        `json:"layer"`
	LayerHash  string        `json:"layer_hash"`
	Level      string        `json:"level,omitempty"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Edge       ir.EdgePolicy `json:"edge"`
	Seed       uint64        `json:"seed"`
	ResultHash string        `json:"result_hash"`

	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`

	// CreatedSeq orders runs within one database. Assigned by CreateRun.
	CreatedSeq int64 `json:"created_seq"`
}

// Step is one flushed paint step: the edits applied, the diff the flush
// produced and the hash of the cumulative result after it.
type Step struct {
	Seq        int64        `json:"seq"`
	Edits      []level.Edit `json:"edits"`
	Diff       ir.Diff      `json:"diff"`
	ResultHash string       `json:"result_hash"`
}

// EditRecord is one stored edit with the step it belongs to.
type EditRecord struct {
	Seq  int64
	Edit level.Edit
}

// DiffRecord is one stored cell change with the step it belongs to.
type DiffRecord struct {
	Seq    int64
	Change ir.CellChange
}
