package mapper

import (
	"fmt"
	"sort"

	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/threat"
)

const (
	alignmentSampleCap = 100
	keyPreviewCap      = 10
	descSampleCap      = 20
	exclusionCap       = 200
)

// Stats are the run counters.
type Stats struct {
	Threats    int
	Rules      int
	Results    int
	Unmapped   int
	Exclusions int
}

// Alignment is the symmetric comparison between every token required by some
// threat and every token mentioned anywhere in the matrix. Samples are
// capped and sorted.
type Alignment struct {
	RequiredCount     int
	MatrixCount       int
	IntersectionCount int
	OnlyRequired      []string
	OnlyMatrix        []string
	Intersection      []string
}

// KeyPreview shows how one input row keyed, for operator inspection.
type KeyPreview struct {
	ID       string
	Title    string
	DescKey  string
	TitleKey string
}

// MissingControl annotates a missing token with its catalog entry, when a
// catalog was supplied.
type MissingControl struct {
	Token string
	Title string
	Level int
}

// Diagnostics is the read-only provenance bundle. It never influences the
// result rows.
type Diagnostics struct {
	Stats     Stats
	Alignment Alignment

	ThreatKeyPreviews []KeyPreview
	RuleKeyPreviews   []KeyPreview

	DescIntersectionSample []string
	DescOnlyThreatsSample  []string
	DescOnlyRulesSample    []string

	Unmapped   []Unmapped
	Exclusions []Exclusion // capped
	Missing    []MissingControl

	// StrayThreatIDs lists threats whose mapped set escaped the traceable
	// set. Always empty unless the engine's own contract is violated.
	StrayThreatIDs []string

	// Err carries a diagnostics-pass failure; the mapping output stands
	// regardless.
	Err error
}

// buildDiagnostics runs the independent read-only pass. A failure here is
// reported on the bundle, never aborting the mapping run.
func (e *Engine) buildDiagnostics(threats []threat.Threat, results []Result, unmapped []Unmapped, exclusions []Exclusion) (d Diagnostics) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("diagnostics pass failed", "panic", r)
			d.Err = panicError{r}
		}
	}()

	d.Stats = Stats{
		Threats:    len(threats),
		Rules:      len(e.rules.Rules),
		Results:    len(results),
		Unmapped:   len(unmapped),
		Exclusions: len(exclusions),
	}
	d.Unmapped = unmapped
	if len(exclusions) > exclusionCap {
		exclusions = exclusions[:exclusionCap]
	}
	d.Exclusions = exclusions

	// Token alignment: required-anywhere vs mentioned-anywhere.
	requiredAll := make(map[string]struct{})
	missingAll := make(map[string]struct{})
	for _, r := range results {
		for _, tok := range r.Required {
			requiredAll[tok] = struct{}{}
		}
		for _, tok := range r.Missing {
			missingAll[tok] = struct{}{}
		}
		if len(r.Stray) > 0 {
			d.StrayThreatIDs = append(d.StrayThreatIDs, r.ThreatID)
		}
	}
	matrixAll := e.matrix.Tokens(e.opts.Families)

	d.Alignment.RequiredCount = len(requiredAll)
	d.Alignment.MatrixCount = len(matrixAll)
	for tok := range requiredAll {
		if _, ok := matrixAll[tok]; ok {
			d.Alignment.Intersection = append(d.Alignment.Intersection, tok)
		} else {
			d.Alignment.OnlyRequired = append(d.Alignment.OnlyRequired, tok)
		}
	}
	for tok := range matrixAll {
		if _, ok := requiredAll[tok]; !ok {
			d.Alignment.OnlyMatrix = append(d.Alignment.OnlyMatrix, tok)
		}
	}
	d.Alignment.IntersectionCount = len(d.Alignment.Intersection)
	d.Alignment.OnlyRequired = capSorted(d.Alignment.OnlyRequired, alignmentSampleCap)
	d.Alignment.OnlyMatrix = capSorted(d.Alignment.OnlyMatrix, alignmentSampleCap)
	d.Alignment.Intersection = capSorted(d.Alignment.Intersection, alignmentSampleCap)

	// Catalog annotation for every token missing somewhere.
	for _, tok := range capSorted(keys(missingAll), alignmentSampleCap) {
		mc := MissingControl{Token: tok}
		if entry, ok := e.catalog.Lookup(tok); ok {
			mc.Title = entry.Title
			mc.Level = entry.Level
		}
		d.Missing = append(d.Missing, mc)
	}

	// Key previews.
	for i, th := range threats {
		if i >= keyPreviewCap {
			break
		}
		d.ThreatKeyPreviews = append(d.ThreatKeyPreviews, KeyPreview{
			ID: th.ID, Title: th.Title, DescKey: th.DescKey, TitleKey: th.TitleKey,
		})
	}
	for i, r := range e.rules.Rules {
		if i >= keyPreviewCap {
			break
		}
		d.RuleKeyPreviews = append(d.RuleKeyPreviews, KeyPreview{
			Title: r.ShortTitle, DescKey: r.DescKey, TitleKey: r.TitleKey,
		})
	}

	// Description-key overlap samples.
	threatKeys := make(map[string]struct{}, len(threats))
	for _, th := range threats {
		threatKeys[th.DescKey] = struct{}{}
	}
	ruleKeys := e.rules.DescKeys()
	var both, onlyThreats, onlyRules []string
	for k := range threatKeys {
		if _, ok := ruleKeys[k]; ok {
			both = append(both, k)
		} else {
			onlyThreats = append(onlyThreats, k)
		}
	}
	for k := range ruleKeys {
		if _, ok := threatKeys[k]; !ok {
			onlyRules = append(onlyRules, k)
		}
	}
	d.DescIntersectionSample = capSorted(both, descSampleCap)
	d.DescOnlyThreatsSample = capSorted(onlyThreats, descSampleCap)
	d.DescOnlyRulesSample = capSorted(onlyRules, descSampleCap)

	return d
}

type panicError struct{ v any }

func (p panicError) Error() string { return fmt.Sprintf("diagnostics pass panicked: %v", p.v) }

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func capSorted(s []string, n int) []string {
	sort.Strings(s)
	if len(s) > n {
		s = s[:n]
	}
	return s
}
