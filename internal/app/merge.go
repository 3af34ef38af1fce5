package app

import (
	"encoding/json"
	"sort"

	"medlearn-service/internal/domain"
)

// MergeBatches collapses stored upload batches (oldest first) plus an
// optional incoming batch into the deduplicated, latest-wins step view.
// Within a batch, records apply in their stored order; a later record
// fully replaces an earlier one sharing its step number. The result is
// ordered ascending by step number and contains each number at most once.
//
// Pure function: persistence of the incoming batch is the caller's job,
// and the merged view is recomputed on every read.
func MergeBatches(stored []domain.UploadBatch, incoming *domain.UploadBatch) []domain.Step {
	byNumber := make(map[int]domain.Step)
	for _, batch := range stored {
		for _, step := range batch.Steps {
			byNumber[step.Number] = step
		}
	}
	if incoming != nil {
		for _, step := range incoming.Steps {
			byNumber[step.Number] = step
		}
	}

	merged := make([]domain.Step, 0, len(byNumber))
	for _, step := range byNumber {
		merged = append(merged, step)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Number < merged[j].Number
	})
	return merged
}

// rawStep mirrors the incoming wire shape; Number is a pointer so a
// missing or non-numeric step field is detectable.
type rawStep struct {
	Number  *int            `json:"step"`
	Content json.RawMessage `json:"content"`
}

// ParseSteps validates an incoming steps payload before any storage
// write: it must be a JSON array and every entry must carry a numeric
// step field of at least 1. Step numbers need not be contiguous.
func ParseSteps(raw json.RawMessage) ([]domain.Step, error) {
	if len(raw) == 0 {
		return nil, domain.Validationf("steps payload missing")
	}
	var entries []rawStep
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, domain.Validationf("steps must be a JSON array: %v", err)
	}
	steps := make([]domain.Step, 0, len(entries))
	for i, entry := range entries {
		if entry.Number == nil {
			return nil, domain.Validationf("step entry %d lacks a numeric step field", i)
		}
		if *entry.Number < 1 {
			return nil, domain.Validationf("step entry %d has step %d; step numbers start at 1", i, *entry.Number)
		}
		steps = append(steps, domain.Step{Number: *entry.Number, Content: entry.Content})
	}
	return steps, nil
}
