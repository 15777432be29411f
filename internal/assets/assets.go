// Package assets implements the asset-allocation gate: deciding whether a
// requirement record's allocated assets make a traced mitigation applicable
// to a threat's topology.
package assets

import (
	"regexp"
	"sort"
	"strings"
)

var splitRE = regexp.MustCompile(`[;,/|]`)

// Set is a canonical asset-name set (case-folded, trimmed).
type Set map[string]struct{}

// NewSet builds a set from the given names, dropping empties.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

// ParseSet splits a free-text allocation cell on ";,/|" into a canonical set.
func ParseSet(text string) Set {
	return NewSet(splitRE.Split(text, -1)...)
}

func (s Set) Has(name string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// SubsetOf reports whether every member of s is in other.
func (s Set) SubsetOf(other Set) bool {
	for k := range s {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}

// Disjoint reports whether s and other share no member.
func (s Set) Disjoint(other Set) bool {
	for k := range s {
		if _, ok := other[k]; ok {
			return false
		}
	}
	return true
}

// Intersect returns the members common to s and other.
func (s Set) Intersect(other Set) Set {
	out := make(Set)
	for k := range s {
		if _, ok := other[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

// Sorted returns the members in lexical order, for stable logs and output.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Synonyms folds configured synonym spellings onto their canonical asset
// name. The zero value passes names through unchanged.
type Synonyms map[string]string

// NewSynonyms builds the fold table from canonical name → alternate
// spellings, canonicalizing both sides.
func NewSynonyms(table map[string][]string) Synonyms {
	syn := make(Synonyms)
	for canon, alts := range table {
		ck := strings.ToLower(strings.TrimSpace(canon))
		if ck == "" {
			continue
		}
		for _, alt := range alts {
			ak := strings.ToLower(strings.TrimSpace(alt))
			if ak != "" {
				syn[ak] = ck
			}
		}
	}
	return syn
}

// Canon returns the canonical spelling of one asset name.
func (syn Synonyms) Canon(name string) string {
	k := strings.ToLower(strings.TrimSpace(name))
	if canon, ok := syn[k]; ok {
		return canon
	}
	return k
}

// Fold rewrites every member of s onto its canonical spelling.
func (syn Synonyms) Fold(s Set) Set {
	if len(syn) == 0 {
		return s
	}
	out := make(Set, len(s))
	for k := range s {
		if canon, ok := syn[k]; ok {
			k = canon
		}
		out[k] = struct{}{}
	}
	return out
}

// ResolveAllocation substitutes the threat's source/target names into a rule's
// allocation expression and returns the canonical asset set.
func ResolveAllocation(expr, src, tgt string) Set {
	if expr == "" {
		return NewSet()
	}
	if src != "" {
		expr = strings.ReplaceAll(expr, "{source.Name}", src)
	}
	if tgt != "" {
		expr = strings.ReplaceAll(expr, "{target.Name}", tgt)
	}
	return ParseSet(expr)
}

// SideForCategory is the fixed category → topology-role fallback used when a
// rule declares no allocation: tampering, disclosure, and denial-of-service
// mitigations sit on the target; repudiation on the source; spoofing,
// elevation, and anything unclassified require both.
func SideForCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	switch {
	case strings.Contains(c, "tamper"), c == "t":
		return "target"
	case strings.Contains(c, "spoof"), c == "s":
		return "both"
	case strings.Contains(c, "elevation"), strings.Contains(c, "imperson"):
		return "both"
	case strings.Contains(c, "information disclosure"), c == "i":
		return "target"
	case strings.Contains(c, "denial of service"), strings.Contains(c, "dos"), c == "d":
		return "target"
	case strings.Contains(c, "repudiation"), c == "r":
		return "source"
	}
	return "both"
}

// RequiredForThreat decides which asset names a requirement must cover for
// this threat. An explicit rule allocation is authoritative: its overlap with
// the threat's source/target names wins, then its overlap with the full
// threat asset set, then the full set. Without an allocation the category
// policy picks the side.
func RequiredForThreat(src, tgt string, threatAssets Set, allocation Set, category string) Set {
	srcC := strings.ToLower(strings.TrimSpace(src))
	tgtC := strings.ToLower(strings.TrimSpace(tgt))

	if len(allocation) > 0 {
		sides := make(Set)
		if srcC != "" && allocation.Has(srcC) {
			sides[srcC] = struct{}{}
		}
		if tgtC != "" && allocation.Has(tgtC) {
			sides[tgtC] = struct{}{}
		}
		if len(sides) > 0 {
			return sides
		}
		if inter := threatAssets.Intersect(allocation); len(inter) > 0 {
			return inter
		}
		return threatAssets
	}

	switch SideForCategory(category) {
	case "target":
		return NewSet(tgtC)
	case "source":
		return NewSet(srcC)
	}
	return threatAssets
}

// Passes is the gate predicate for one traced requirement record:
// the required threat assets must not be disjoint from the record's allocated
// assets (when both are non-empty), and the rule's resolved allocation must
// be a subset of the record's allocated assets (when the allocation is
// non-empty). Either clause failing keeps the record traceable but unmapped.
func Passes(required, recordAssets, allocation Set) bool {
	if len(required) > 0 && len(recordAssets) > 0 && required.Disjoint(recordAssets) {
		return false
	}
	if len(allocation) > 0 && !allocation.SubsetOf(recordAssets) {
		return false
	}
	return true
}
