// Package threat loads the threat-modeling export and derives each row's
// comparison keys and topology.
package threat

import (
	"strconv"
	"strings"

	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/assets"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/normalize"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/table"
)

// Threat is one parsed threat row. Immutable after Load; consumed read-only
// by the mapping engine.
type Threat struct {
	ID          string
	Title       string
	Description string
	Category    string
	Source      string

	// Src/Tgt are parsed from the "<Source> to <Target>: ..." description
	// shape; empty when the description lacks it.
	Src string
	Tgt string

	DescKey  string
	TitleKey string
	Assets   assets.Set
}

// Load validates the export schema and parses every row. A description
// column (matched by substring, case-insensitive) is required; Id, Title,
// Category, and Source default to empty. Rows whose description lacks the
// topology shape degrade to empty Src/Tgt rather than failing.
func Load(tab *table.Table) ([]Threat, error) {
	if !tab.HasColumn("Description") {
		found := tab.FindColumn(func(h string) bool {
			return strings.Contains(strings.ToLower(h), "description")
		})
		if found == "" {
			return nil, &table.SchemaError{Input: tab.Name, Column: "Description"}
		}
		for _, row := range tab.Rows {
			row["Description"] = row[found]
		}
	}
	for _, col := range []string{"Id", "Title", "Category", "Source"} {
		if err := tab.EnsureColumn(col, false); err != nil {
			return nil, err
		}
	}

	out := make([]Threat, 0, len(tab.Rows))
	for i, row := range tab.Rows {
		th := Threat{
			ID:          row["Id"],
			Title:       row["Title"],
			Description: row["Description"],
			Category:    row["Category"],
			Source:      row["Source"],
		}
		if th.ID == "" {
			th.ID = strconv.Itoa(i)
		}
		th.Src, th.Tgt, _ = normalize.ParseSourceTarget(th.Description)
		th.DescKey = normalize.DescKeyFromThreat(th.Description, th.Src, th.Tgt)
		th.TitleKey = normalize.TitleKeyFromThreat(th.Title, th.Source)
		th.Assets = assets.NewSet(th.Src, th.Tgt)
		out = append(out, th)
	}
	return out, nil
}
