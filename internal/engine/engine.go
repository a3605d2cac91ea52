package engine

import (
	"go.uber.org/zap"

	"github.com/hejijunhao/candidates/internal/engine/consistency"
	"github.com/hejijunhao/candidates/internal/engine/extract"
	"github.com/hejijunhao/candidates/internal/engine/taxonomy"
	"github.com/hejijunhao/candidates/internal/model"
)

// Engine orchestrates the extract → group → tally pipeline for one
// identifier's record set.
type Engine struct {
	log *zap.Logger
}

// New creates an Engine. A nil logger disables logging.
func New(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log}
}

// Extract maps every raw record onto its annotation slots. The first
// malformed record aborts the batch.
func (e *Engine) Extract(raws []model.RawRecord) ([]model.AnnotationRecord, error) {
	records := make([]model.AnnotationRecord, 0, len(raws))
	for _, raw := range raws {
		rec, err := extract.Record(raw)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Process builds the consistency report block for one identifier. The
// reviewed count in the block is replaced by the number of records fetched.
func (e *Engine) Process(hits model.HitCounts, raws []model.RawRecord) (model.ReportBlock, error) {
	records, err := e.Extract(raws)
	if err != nil {
		e.log.Error("engine: extraction failed", zap.String("id", hits.ID), zap.Error(err))
		return model.ReportBlock{}, err
	}

	block := model.ReportBlock{Hits: hits}
	block.Hits.Reviewed = len(records)

	groups := taxonomy.GroupRecords(records)
	for _, g := range groups.All() {
		block.Lines = append(block.Lines, consistency.Lines(g.Key, g.Records)...)
	}

	e.log.Debug("engine: processed",
		zap.String("id", hits.ID),
		zap.Int("records", len(records)),
		zap.Int("groups", groups.Len()),
		zap.Int("lines", len(block.Lines)),
	)
	return block, nil
}
