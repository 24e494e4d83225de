// Package costtracker turns token usage into dollars. A Tracker accumulates
// per-run, per-model usage as completions finish and reports totals against a
// pricing table.
package costtracker

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/strixlabs/strix/internal/shorttermmemory"
)

// Pricing is USD per million tokens for one model.
type Pricing struct {
	InputPerMillion  float64 `json:"input_per_million"`
	OutputPerMillion float64 `json:"output_per_million"`

	// CachedInputPerMillion applies to prompt tokens served from the
	// provider's cache. Zero means cached tokens bill at the input rate.
	CachedInputPerMillion float64 `json:"cached_input_per_million,omitempty"`
}

// Cost computes the dollar cost of usage under this pricing.
func (p Pricing) Cost(usage shorttermmemory.Usage) float64 {
	fresh := usage.PromptTokens - usage.CachedPromptTokens
	if fresh < 0 {
		fresh = 0
	}
	cachedRate := p.CachedInputPerMillion
	if cachedRate == 0 {
		cachedRate = p.InputPerMillion
	}

	cost := float64(fresh) / 1e6 * p.InputPerMillion
	cost += float64(usage.CachedPromptTokens) / 1e6 * cachedRate
	cost += float64(usage.CompletionTokens) / 1e6 * p.OutputPerMillion
	return cost
}

// defaultPricing covers the models the provider packages register, per the
// public price sheets as of early 2025.
var defaultPricing = map[string]Pricing{
	"gpt-4o":                 {InputPerMillion: 2.50, OutputPerMillion: 10.00, CachedInputPerMillion: 1.25},
	"gpt-4o-mini":            {InputPerMillion: 0.15, OutputPerMillion: 0.60, CachedInputPerMillion: 0.075},
	"o1":                     {InputPerMillion: 15.00, OutputPerMillion: 60.00, CachedInputPerMillion: 7.50},
	"o1-mini":                {InputPerMillion: 1.10, OutputPerMillion: 4.40, CachedInputPerMillion: 0.55},
	"gpt-4-turbo":            {InputPerMillion: 10.00, OutputPerMillion: 30.00},
	"claude-3-7-sonnet":      {InputPerMillion: 3.00, OutputPerMillion: 15.00, CachedInputPerMillion: 0.30},
	"claude-3-5-sonnet":      {InputPerMillion: 3.00, OutputPerMillion: 15.00, CachedInputPerMillion: 0.30},
	"claude-3-5-haiku":       {InputPerMillion: 0.80, OutputPerMillion: 4.00, CachedInputPerMillion: 0.08},
	"claude-3-opus":          {InputPerMillion: 15.00, OutputPerMillion: 75.00, CachedInputPerMillion: 1.50},
	"text-embedding-3-small": {InputPerMillion: 0.02},
	"text-embedding-3-large": {InputPerMillion: 0.13},
}

// Lookup resolves pricing for a model name. Versioned and "-latest" names
// fall back to their base model entry.
func Lookup(model string) (Pricing, bool) {
	return resolve(defaultPricing, model)
}

func resolve(table map[string]Pricing, model string) (Pricing, bool) {
	if p, ok := table[model]; ok {
		return p, true
	}
	// claude-3-5-haiku-latest, gpt-4o-2024-08-06 and friends
	name := model
	for {
		idx := strings.LastIndex(name, "-")
		if idx < 0 {
			return Pricing{}, false
		}
		name = name[:idx]
		if p, ok := table[name]; ok {
			return p, true
		}
	}
}

// Line is the accumulated spend for one run/model pair.
type Line struct {
	RunID string                `json:"run_id"`
	Model string                `json:"model"`
	Usage shorttermmemory.Usage `json:"usage"`
	USD   float64               `json:"usd"`

	// Unpriced is set when the model has no pricing entry. Usage is still
	// tracked, the dollar amount stays zero.
	Unpriced bool `json:"unpriced,omitempty"`
}

// Summary totals a tracker's lines.
type Summary struct {
	Lines        []Line                `json:"lines"`
	TotalUsage   shorttermmemory.Usage `json:"total_usage"`
	TotalUSD     float64               `json:"total_usd"`
	UnpricedRuns int                   `json:"unpriced_runs,omitempty"`
}

func (s Summary) String() string {
	return fmt.Sprintf("%d tokens across %d entries, $%.6f", s.TotalUsage.TotalTokens, len(s.Lines), s.TotalUSD)
}

type lineKey struct {
	runID string
	model string
}

// Tracker accumulates usage. Safe for concurrent use. The zero value is not
// usable, construct with New.
type Tracker struct {
	mu      sync.Mutex
	lines   map[lineKey]*Line
	pricing map[string]Pricing
}

// New creates a tracker with the default pricing table. Overrides replace or
// add entries for individual models.
func New(overrides ...map[string]Pricing) *Tracker {
	pricing := make(map[string]Pricing, len(defaultPricing))
	for name, p := range defaultPricing {
		pricing[name] = p
	}
	for _, override := range overrides {
		for name, p := range override {
			pricing[name] = p
		}
	}
	return &Tracker{
		lines:   make(map[lineKey]*Line),
		pricing: pricing,
	}
}

// Record adds usage for a run/model pair.
func (t *Tracker) Record(runID, model string, usage shorttermmemory.Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := lineKey{runID: runID, model: model}
	line, ok := t.lines[key]
	if !ok {
		line = &Line{RunID: runID, Model: model}
		t.lines[key] = line
	}
	line.Usage.Add(&usage)

	if pricing, ok := resolve(t.pricing, model); ok {
		line.USD = pricing.Cost(line.Usage)
		line.Unpriced = false
	} else {
		line.Unpriced = true
	}
}

// Run totals the spend for a single run across models.
func (t *Tracker) Run(runID string) Summary {
	return t.summarize(func(l *Line) bool { return l.RunID == runID })
}

// Model totals the spend for a single model across runs.
func (t *Tracker) Model(model string) Summary {
	return t.summarize(func(l *Line) bool { return l.Model == model })
}

// Summary totals everything recorded so far.
func (t *Tracker) Summary() Summary {
	return t.summarize(func(*Line) bool { return true })
}

func (t *Tracker) summarize(match func(*Line) bool) Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	var summary Summary
	for _, line := range t.lines {
		if !match(line) {
			continue
		}
		summary.Lines = append(summary.Lines, *line)
		summary.TotalUsage.Add(&line.Usage)
		summary.TotalUSD += line.USD
		if line.Unpriced {
			summary.UnpricedRuns++
		}
	}
	sort.Slice(summary.Lines, func(i, j int) bool {
		if summary.Lines[i].RunID != summary.Lines[j].RunID {
			return summary.Lines[i].RunID < summary.Lines[j].RunID
		}
		return summary.Lines[i].Model < summary.Lines[j].Model
	})
	return summary
}

// Reset drops all recorded lines, keeping the pricing table.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = make(map[lineKey]*Line)
}
