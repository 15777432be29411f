package threat

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/table"
)

func load(t *testing.T, csv string) []Threat {
	t.Helper()
	tab, err := table.ReadCSV(strings.NewReader(csv), "threats")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	ths, err := Load(tab)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return ths
}

func TestLoad_TopologyAndKeys(t *testing.T) {
	ths := load(t, `Id,Title,Description,Category
7,PLC spoofing,PLC to HMI: An attacker may impersonate the HMI,Spoofing
`)
	if len(ths) != 1 {
		t.Fatalf("expected 1 threat, got %d", len(ths))
	}
	th := ths[0]
	if th.Src != "PLC" || th.Tgt != "HMI" {
		t.Errorf("topology: src=%q tgt=%q", th.Src, th.Tgt)
	}
	if th.DescKey != "an attacker may impersonate the" {
		t.Errorf("desc key: %q", th.DescKey)
	}
	if got := th.Assets.Sorted(); !reflect.DeepEqual(got, []string{"hmi", "plc"}) {
		t.Errorf("assets: %v", got)
	}
}

func TestLoad_DescriptionColumnBySubstring(t *testing.T) {
	ths := load(t, `Id,Threat Description
1,PLC to HMI: tampering with data
`)
	if ths[0].Description != "PLC to HMI: tampering with data" {
		t.Errorf("description not resolved: %+v", ths[0])
	}
}

func TestLoad_MissingDescriptionColumn(t *testing.T) {
	tab, _ := table.ReadCSV(strings.NewReader("Id,Title\n1,x\n"), "threats")
	_, err := Load(tab)
	var se *table.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestLoad_ShapelessDescriptionDegrades(t *testing.T) {
	ths := load(t, `Id,Description
1,Generic tampering with stored data
`)
	th := ths[0]
	if th.Src != "" || th.Tgt != "" {
		t.Errorf("expected empty topology, got %q/%q", th.Src, th.Tgt)
	}
	if len(th.Assets) != 0 {
		t.Errorf("expected empty asset set, got %v", th.Assets.Sorted())
	}
	if th.DescKey != "generic tampering with stored data" {
		t.Errorf("desc key: %q", th.DescKey)
	}
}

func TestLoad_RowIndexID(t *testing.T) {
	ths := load(t, "Description\nPLC to HMI: a\nPLC to HMI: b\n")
	if ths[0].ID != "0" || ths[1].ID != "1" {
		t.Errorf("fallback ids: %q, %q", ths[0].ID, ths[1].ID)
	}
}
