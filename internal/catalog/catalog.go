// Package catalog loads the IEC 62443-4-2 control catalog workbook. The
// catalog is optional: when supplied, diagnostics annotate missing tokens
// with the control title and capability level.
package catalog

import (
	"regexp"
	"strings"

	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/iec"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/table"
)

// Entry is one catalog control.
type Entry struct {
	ID     string // canonical token, e.g. "CR 3.1 RE(1)"
	Title  string
	Detail string
	SLC    string // raw SL-C cell
	Level  int    // capability level 1..4 parsed from SLC, 0 when absent
}

// Catalog indexes catalog entries by canonical token.
type Catalog struct {
	Entries []Entry

	byID map[string]int
}

var slcAliases = []string{"sl-c", "sl c", "slc", "sl - c"}

var levelRE = regexp.MustCompile(`[1-4]`)

func parseLevel(s string) int {
	if m := levelRE.FindString(s); m != "" {
		return int(m[0] - '0')
	}
	return 0
}

func canonicalID(s string) string {
	if tok := iec.Normalize(s); tok != "" {
		return tok
	}
	s = strings.ReplaceAll(s, " ", " ")
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// Load reads the catalog sheet. The Id column is required; Title and Detail
// default to empty; the SL-C column is resolved by alias. Duplicate ids keep
// the row with a non-empty SL-C cell.
func Load(tab *table.Table) (*Catalog, error) {
	if err := tab.EnsureColumn("Id", true); err != nil {
		return nil, err
	}
	for _, col := range []string{"Title", "Detail"} {
		if err := tab.EnsureColumn(col, false); err != nil {
			return nil, err
		}
	}

	slcCol := tab.FindColumn(func(h string) bool {
		lh := strings.ToLower(strings.TrimSpace(h))
		for _, alias := range slcAliases {
			if lh == alias {
				return true
			}
		}
		return false
	})

	c := &Catalog{byID: make(map[string]int)}
	for _, row := range tab.Rows {
		id := canonicalID(row["Id"])
		if id == "" {
			continue
		}
		e := Entry{
			ID:     id,
			Title:  row["Title"],
			Detail: row["Detail"],
		}
		if slcCol != "" {
			e.SLC = row[slcCol]
			e.Level = parseLevel(e.SLC)
		}
		if prev, dup := c.byID[id]; dup {
			// Prefer the duplicate carrying an SL-C value.
			if c.Entries[prev].SLC == "" && e.SLC != "" {
				c.Entries[prev] = e
			}
			continue
		}
		c.byID[id] = len(c.Entries)
		c.Entries = append(c.Entries, e)
	}
	return c, nil
}

// Lookup returns the catalog entry for a canonical token.
func (c *Catalog) Lookup(token string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	if i, ok := c.byID[token]; ok {
		return c.Entries[i], true
	}
	return Entry{}, false
}
