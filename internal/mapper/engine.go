// Package mapper joins threats to candidate rules by normalized description
// key, expands required IEC tokens, cross-references them against the
// requirement matrix, applies the asset gate, and resolves a coverage status
// per threat.
package mapper

import (
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/assets"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/catalog"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/matrix"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/rules"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/threat"
)

// Options are the run parameters.
type Options struct {
	TargetLevel int
	Mode        rules.Mode
	Families    map[string]bool
	Synonyms    assets.Synonyms
	// Workers bounds the per-threat fan-out; 0 means GOMAXPROCS.
	Workers int
}

// Validate checks the parameters before any input-dependent work.
func (o *Options) Validate() error {
	if o.TargetLevel < 1 || o.TargetLevel > 4 {
		return fmt.Errorf("target level must be 1..4, got %d", o.TargetLevel)
	}
	if o.Mode != rules.ModeCascade && o.Mode != rules.ModeExact {
		return fmt.Errorf("unknown expansion mode %q", o.Mode)
	}
	if len(o.Families) == 0 {
		return fmt.Errorf("allowed-family set is empty")
	}
	return nil
}

// Result is one output row per successfully keyed threat. Never mutated
// after creation.
type Result struct {
	ThreatID    string
	ThreatTitle string
	Description string
	Source      string
	Src         string
	Tgt         string

	Required  []string // stable expansion order
	Traceable []string // sorted requirement ids
	Mapped    []string // sorted, always a subset of Traceable
	Stray     []string // mapped \ traceable; non-empty means a defect
	Missing   []string // sorted required tokens with zero traced requirements
	Status    Status
}

// Unmapped records a threat with no rule sharing its description key.
type Unmapped struct {
	ThreatID    string
	ThreatTitle string
	DescKey     string
}

// Exclusion records one requirement rejected by the asset gate, with the
// concrete sets compared, for operator review.
type Exclusion struct {
	ThreatID     string
	ThreatTitle  string
	Token        string
	RID          string
	Required     []string
	RecordAssets []string
	Allocation   []string
}

// Output is the complete result of one run: either fully produced or nothing.
type Output struct {
	Results     []Result
	Diagnostics Diagnostics
}

// Engine holds the frozen inputs of one run. All fields are immutable for
// the run's duration, so per-threat mapping needs no locking.
type Engine struct {
	rules   *rules.Set
	matrix  *matrix.Matrix
	catalog *catalog.Catalog
	opts    Options
	log     *slog.Logger
}

// New validates the options and builds an engine. catalog may be nil.
func New(rs *rules.Set, m *matrix.Matrix, cat *catalog.Catalog, opts Options, log *slog.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{rules: rs, matrix: m, catalog: cat, opts: opts, log: log}, nil
}

type perThreat struct {
	result     *Result
	unmapped   *Unmapped
	exclusions []Exclusion
}

// Run maps every threat and assembles results in original threat order.
// It returns either a complete output or an error before any row.
func (e *Engine) Run(threats []threat.Threat) (*Output, error) {
	slots := make([]perThreat, len(threats))

	workers := e.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i := range threats {
		i := i
		g.Go(func() error {
			slots[i] = e.mapOne(&threats[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Output{}
	var unmapped []Unmapped
	var exclusions []Exclusion
	for _, slot := range slots {
		if slot.unmapped != nil {
			unmapped = append(unmapped, *slot.unmapped)
			continue
		}
		out.Results = append(out.Results, *slot.result)
		exclusions = append(exclusions, slot.exclusions...)
	}

	for _, r := range out.Results {
		if len(r.Stray) > 0 {
			e.log.Error("stray requirement ids: mapped set escaped traceable set",
				"threat", r.ThreatID, "stray", r.Stray)
		}
	}

	out.Diagnostics = e.buildDiagnostics(threats, out.Results, unmapped, exclusions)
	return out, nil
}

// mapOne processes a single threat against the frozen rule index and matrix.
func (e *Engine) mapOne(th *threat.Threat) perThreat {
	idxs := e.rules.Match(th.DescKey)
	if len(idxs) == 0 {
		return perThreat{unmapped: &Unmapped{
			ThreatID:    th.ID,
			ThreatTitle: th.Title,
			DescKey:     th.DescKey,
		}}
	}

	// Expand required tokens across all matching rules, stable-deduplicated.
	var required []string
	seen := make(map[string]struct{})
	for _, ri := range idxs {
		for _, tok := range e.rules.Rules[ri].Tokens(e.opts.TargetLevel, e.opts.Mode, e.opts.Families) {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			required = append(required, tok)
		}
	}

	// The first matching rule's allocation governs gating for the threat.
	first := &e.rules.Rules[idxs[0]]
	syn := e.opts.Synonyms
	alloc := syn.Fold(assets.ResolveAllocation(first.Allocation, th.Src, th.Tgt))
	threatAssets := syn.Fold(th.Assets)
	requiredAssets := assets.RequiredForThreat(
		syn.Canon(th.Src), syn.Canon(th.Tgt), threatAssets, alloc, first.Category)

	traceable := make(map[string]struct{})
	mapped := make(map[string]struct{})
	var missing []string
	var exclusions []Exclusion

	for _, tok := range required {
		rids := e.matrix.RIDsFor(tok)
		if len(rids) == 0 {
			missing = append(missing, tok)
			continue
		}
		for _, rid := range rids {
			traceable[rid] = struct{}{}
			recordAssets := syn.Fold(e.matrix.AssetsFor(rid))
			if assets.Passes(requiredAssets, recordAssets, alloc) {
				mapped[rid] = struct{}{}
				continue
			}
			exclusions = append(exclusions, Exclusion{
				ThreatID:     th.ID,
				ThreatTitle:  th.Title,
				Token:        tok,
				RID:          rid,
				Required:     requiredAssets.Sorted(),
				RecordAssets: recordAssets.Sorted(),
				Allocation:   alloc.Sorted(),
			})
		}
	}

	var stray []string
	for rid := range mapped {
		if _, ok := traceable[rid]; !ok {
			stray = append(stray, rid)
		}
	}

	res := &Result{
		ThreatID:    th.ID,
		ThreatTitle: th.Title,
		Description: th.Description,
		Source:      th.Source,
		Src:         th.Src,
		Tgt:         th.Tgt,
		Required:    required,
		Traceable:   sortedKeys(traceable),
		Mapped:      sortedKeys(mapped),
		Stray:       sortStrings(stray),
		Missing:     sortStrings(dedup(missing)),
		Status:      ResolveStatus(len(required), len(traceable), len(mapped)),
	}
	return perThreat{result: res, exclusions: exclusions}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortStrings(s []string) []string {
	sort.Strings(s)
	return s
}

func dedup(s []string) []string {
	seen := make(map[string]struct{}, len(s))
	out := s[:0]
	for _, v := range s {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
