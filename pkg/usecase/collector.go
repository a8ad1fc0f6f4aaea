package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/smodinst/pkg/domain/interfaces"
	"github.com/m-mizutani/smodinst/pkg/domain/model"
)

type indexedOutcome struct {
	index   int
	outcome model.Outcome
}

// collector is the append-only result set shared by batch workers. Progress
// events are published while holding the lock so that Completed increases
// strictly from the sink's point of view.
type collector struct {
	mu      sync.Mutex
	batchID string
	total   int
	sink    interfaces.ProgressSink
	entries []indexedOutcome
}

func newCollector(batchID string, total int, sink interfaces.ProgressSink) *collector {
	return &collector{
		batchID: batchID,
		total:   total,
		sink:    sink,
		entries: make([]indexedOutcome, 0, total),
	}
}

func (c *collector) add(ctx context.Context, index int, outcome model.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, indexedOutcome{index: index, outcome: outcome})
	if c.sink == nil {
		return
	}
	c.sink.OnProgress(ctx, model.ProgressEvent{
		BatchID:   c.batchID,
		Index:     index,
		Package:   outcome.Package,
		Outcome:   outcome,
		Completed: len(c.entries),
		Total:     c.total,
	})
}

// ordered returns the outcomes sorted back into input order
func (c *collector) ordered() []model.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	sorted := append([]indexedOutcome(nil), c.entries...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].index < sorted[j].index
	})

	out := make([]model.Outcome, len(sorted))
	for i, e := range sorted {
		out[i] = e.outcome
	}
	return out
}
