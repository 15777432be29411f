// Package matrix loads the requirement matrix and answers exact-token
// traceability lookups against it.
package matrix

import (
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/assets"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/iec"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/table"
)

// Columns names the three caller-configurable matrix columns. RID and Trace
// are mandatory; Assets defaults to empty when absent.
type Columns struct {
	RID    string
	Trace  string
	Assets string
}

// DefaultColumns returns the conventional matrix column names.
func DefaultColumns() Columns {
	return Columns{
		RID:    "Requirement ID",
		Trace:  "TIS Source",
		Assets: "Assets Allocated to",
	}
}

// Record is one requirement row: its identifier, the traceability free text,
// the exact tokens that text mentions, and the allocated asset set.
type Record struct {
	RID    string
	Trace  string
	Tokens []string
	Assets assets.Set
}

// Matrix is the loaded requirement matrix with its exact-token trace index.
type Matrix struct {
	Records []Record

	byToken     map[string][]string // canonical token → RIDs mentioning it
	assetsByRID map[string]assets.Set
}

// Load resolves the configured columns case-insensitively (renaming where
// needed), fails with a table.SchemaError when RID or Trace is absent, and
// builds the token index once. Rows with an empty requirement id are kept in
// Records but never contribute to traceability.
func Load(tab *table.Table, cols Columns) (*Matrix, error) {
	if err := tab.EnsureColumn(cols.RID, true); err != nil {
		return nil, err
	}
	if err := tab.EnsureColumn(cols.Trace, true); err != nil {
		return nil, err
	}
	if err := tab.EnsureColumn(cols.Assets, false); err != nil {
		return nil, err
	}

	m := &Matrix{
		byToken:     make(map[string][]string),
		assetsByRID: make(map[string]assets.Set),
	}
	for _, row := range tab.Rows {
		rec := Record{
			RID:    row[cols.RID],
			Trace:  row[cols.Trace],
			Tokens: iec.ExtractAll(row[cols.Trace]),
			Assets: assets.ParseSet(row[cols.Assets]),
		}
		m.Records = append(m.Records, rec)
		if rec.RID == "" {
			continue
		}
		// First row wins when a requirement id repeats.
		if _, dup := m.assetsByRID[rec.RID]; !dup {
			m.assetsByRID[rec.RID] = rec.Assets
		}
		for _, tok := range rec.Tokens {
			if !contains(m.byToken[tok], rec.RID) {
				m.byToken[tok] = append(m.byToken[tok], rec.RID)
			}
		}
	}
	return m, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// RIDsFor returns the requirement ids whose trace text mentions the EXACT
// token (never substring-fuzzy), in record order.
func (m *Matrix) RIDsFor(token string) []string {
	return m.byToken[token]
}

// AssetsFor returns the allocated asset set of a requirement id (first
// occurrence when duplicated), or an empty set.
func (m *Matrix) AssetsFor(rid string) assets.Set {
	if s, ok := m.assetsByRID[rid]; ok {
		return s
	}
	return assets.NewSet()
}

// Tokens returns every token mentioned anywhere in the matrix whose family
// is allowed. Diagnostic view; the engine always re-checks exact per-token
// membership through RIDsFor.
func (m *Matrix) Tokens(families map[string]bool) map[string]struct{} {
	out := make(map[string]struct{})
	for tok := range m.byToken {
		if families[iec.Family(tok)] {
			out[tok] = struct{}{}
		}
	}
	return out
}
