package agents

import (
	"sync"

	"equitydesk/internal/adapters/ai"
)

// UsageTracker accumulates token usage per model across agent calls
type UsageTracker struct {
	mu    sync.RWMutex
	usage map[string]*ModelUsage
}

// ModelUsage tracks usage for a specific model
type ModelUsage struct {
	Model        string
	InputTokens  int64
	OutputTokens int64
	CallCount    int64
}

// NewUsageTracker creates a new usage tracker
func NewUsageTracker() *UsageTracker {
	return &UsageTracker{
		usage: make(map[string]*ModelUsage),
	}
}

// RecordUsage records token usage for a model
func (t *UsageTracker) RecordUsage(model string, u ai.Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.usage[model]
	if !ok {
		entry = &ModelUsage{Model: model}
		t.usage[model] = entry
	}
	entry.InputTokens += int64(u.PromptTokens)
	entry.OutputTokens += int64(u.CompletionTokens)
	entry.CallCount++
}

// Get returns usage for one model
func (t *UsageTracker) Get(model string) (ModelUsage, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.usage[model]
	if !ok {
		return ModelUsage{}, false
	}
	return *entry, true
}

// TotalTokens returns input plus output tokens across all models
func (t *UsageTracker) TotalTokens() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var total int64
	for _, entry := range t.usage {
		total += entry.InputTokens + entry.OutputTokens
	}
	return total
}
