// Package rules loads the curated candidate rule table and expands rule rows
// into required IEC identifier tokens for a target security level.
package rules

import (
	"fmt"
	"strings"

	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/iec"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/normalize"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/table"
)

const (
	// ColDescription is the only required column of the rule table.
	ColDescription = "Threat_Description"
	ColShortTitle  = "Threat_ShortTitle"
	ColCategory    = "Threat_Category"
	ColAllocation  = "PCyA allocated to"
)

// Cells carrying these sentinels contribute no tokens at that level.
var sentinels = map[string]struct{}{
	"not applicable": {},
	"check manually": {},
}

// Mode selects how security levels expand into token sets.
type Mode string

const (
	// ModeCascade unions the SL1..SLn cells for target level n, reflecting
	// the standard's monotonic requirement growth.
	ModeCascade Mode = "cascade"
	// ModeExact uses only the SLn cell, for auditing one level in isolation.
	ModeExact Mode = "exact"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeCascade:
		return ModeCascade, nil
	case ModeExact:
		return ModeExact, nil
	}
	return "", fmt.Errorf("unknown expansion mode %q (want cascade or exact)", s)
}

// Rule is one curated candidate: a threat-description template with
// per-security-level identifier cells and an optional allocation expression.
type Rule struct {
	ShortTitle  string
	Category    string
	Description string
	Allocation  string
	DescKey     string
	TitleKey    string

	// levels[1..4] hold the SL1..SL4 cell text; index 0 is unused.
	levels [5]string
}

// LevelCell returns the raw cell text for level 1..4.
func (r *Rule) LevelCell(level int) string {
	if level < 1 || level > 4 {
		return ""
	}
	return r.levels[level]
}

// Tokens expands the rule into its required identifier tokens for the target
// level under the given mode, keeping only tokens whose family is allowed.
// The result is deduplicated in first-seen order across levels.
func (r *Rule) Tokens(level int, mode Mode, families map[string]bool) []string {
	lo := 1
	if mode == ModeExact {
		lo = level
	}

	var out []string
	seen := make(map[string]struct{})
	for sl := lo; sl <= level; sl++ {
		cell := strings.TrimSpace(r.levels[sl])
		if cell == "" {
			continue
		}
		if _, skip := sentinels[strings.ToLower(cell)]; skip {
			continue
		}
		for _, tok := range iec.ExtractAll(cell) {
			if !families[iec.Family(tok)] {
				continue
			}
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	return out
}

// Set is the loaded rule table with its description-key index and the
// per-level column resolution built once at load time.
type Set struct {
	Rules []Rule

	byDesc   map[string][]int
	slColumn [5]string
}

// Load validates the rule table schema and derives comparison keys per row.
// A missing description column is a table.SchemaError; every other column
// defaults to empty.
func Load(tab *table.Table) (*Set, error) {
	if err := tab.EnsureColumn(ColDescription, true); err != nil {
		return nil, err
	}
	for _, col := range []string{ColShortTitle, ColCategory, ColAllocation} {
		if err := tab.EnsureColumn(col, false); err != nil {
			return nil, err
		}
	}

	s := &Set{byDesc: make(map[string][]int)}

	// Resolve which header holds each SLn cell once per table, not per row.
	for level := 1; level <= 4; level++ {
		prefix := fmt.Sprintf("SL%d", level)
		s.slColumn[level] = tab.FindColumn(func(h string) bool {
			return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(h)), prefix)
		})
	}

	for _, row := range tab.Rows {
		r := Rule{
			ShortTitle:  row[ColShortTitle],
			Category:    row[ColCategory],
			Description: row[ColDescription],
			Allocation:  row[ColAllocation],
		}
		r.DescKey = normalize.DescKeyFromTemplate(r.Description)
		r.TitleKey = normalize.TitleKeyFromTemplate(r.ShortTitle)
		for level := 1; level <= 4; level++ {
			if col := s.slColumn[level]; col != "" {
				r.levels[level] = row[col]
			}
		}
		s.byDesc[r.DescKey] = append(s.byDesc[r.DescKey], len(s.Rules))
		s.Rules = append(s.Rules, r)
	}
	return s, nil
}

// Match returns the indices of rules sharing the normalized description key.
// Key equality is the only criterion that associates a threat with a rule.
func (s *Set) Match(descKey string) []int {
	return s.byDesc[descKey]
}

// LevelColumn reports which header was resolved for level 1..4 ("" if none).
func (s *Set) LevelColumn(level int) string {
	if level < 1 || level > 4 {
		return ""
	}
	return s.slColumn[level]
}

// DescKeys returns the set of distinct description keys in the table.
func (s *Set) DescKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(s.byDesc))
	for k := range s.byDesc {
		keys[k] = struct{}{}
	}
	return keys
}
