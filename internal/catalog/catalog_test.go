package catalog

import (
	"strings"
	"testing"

	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/table"
)

func load(t *testing.T, csv string) *Catalog {
	t.Helper()
	tab, err := table.ReadCSV(strings.NewReader(csv), "catalog")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	c, err := Load(tab)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return c
}

func TestLoad_CanonicalIDsAndLevels(t *testing.T) {
	c := load(t, `Id,Title,Detail,SL-C
cr 3.1,Communication integrity,Protect integrity,SL-C 2
CR 3.1 RE (1),Cryptographic integrity,Use crypto,3
`)
	e, ok := c.Lookup("CR 3.1")
	if !ok || e.Title != "Communication integrity" || e.Level != 2 {
		t.Errorf("base lookup: %+v ok=%v", e, ok)
	}
	e, ok = c.Lookup("CR 3.1 RE(1)")
	if !ok || e.Level != 3 {
		t.Errorf("enhancement lookup: %+v ok=%v", e, ok)
	}
}

func TestLoad_SLCAliasResolution(t *testing.T) {
	c := load(t, "Id,Title,slc\nCR 1.1,Identification,SL 4\n")
	if e, _ := c.Lookup("CR 1.1"); e.Level != 4 {
		t.Errorf("alias slc not resolved: %+v", e)
	}
}

func TestLoad_DuplicatePrefersNonEmptySLC(t *testing.T) {
	c := load(t, `Id,Title,SL-C
CR 1.1,First,
CR 1.1,Second,2
`)
	e, _ := c.Lookup("CR 1.1")
	if e.Title != "Second" || e.Level != 2 {
		t.Errorf("expected SL-C-bearing duplicate to win: %+v", e)
	}
	if len(c.Entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(c.Entries))
	}
}

func TestLookup_NilCatalog(t *testing.T) {
	var c *Catalog
	if _, ok := c.Lookup("CR 1.1"); ok {
		t.Error("nil catalog lookup should miss")
	}
}
