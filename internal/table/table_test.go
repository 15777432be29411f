package table

import (
	"errors"
	"strings"
	"testing"
)

func TestReadCSV_HeaderAndPadding(t *testing.T) {
	in := "Id,Title,Description\n1,Spoofing,PLC to HMI: impersonation\n2,Short\n"

	tab, err := ReadCSV(strings.NewReader(in), "threats")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tab.Headers) != 3 || tab.Headers[2] != "Description" {
		t.Errorf("unexpected headers %v", tab.Headers)
	}
	if len(tab.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tab.Rows))
	}
	if tab.Rows[0]["Description"] != "PLC to HMI: impersonation" {
		t.Errorf("unexpected cell %q", tab.Rows[0]["Description"])
	}
	if tab.Rows[1]["Description"] != "" {
		t.Errorf("short record not padded: %q", tab.Rows[1]["Description"])
	}
}

func TestReadCSV_EmptyInput(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader(""), "threats"); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestEnsureColumn_CaseInsensitiveRename(t *testing.T) {
	in := "requirement id,TIS Source\nREQ-001,CR 1.1\n"
	tab, err := ReadCSV(strings.NewReader(in), "matrix")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tab.EnsureColumn("Requirement ID", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tab.Rows[0]["Requirement ID"] != "REQ-001" {
		t.Errorf("rename did not carry cell: %v", tab.Rows[0])
	}
	if _, stale := tab.Rows[0]["requirement id"]; stale {
		t.Error("old header key still present after rename")
	}
}

func TestEnsureColumn_MissingRequired(t *testing.T) {
	tab, _ := ReadCSV(strings.NewReader("A\nx\n"), "matrix")

	err := tab.EnsureColumn("Requirement ID", true)
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if se.Column != "Requirement ID" || se.Input != "matrix" {
		t.Errorf("unexpected SchemaError fields: %+v", se)
	}
}

func TestEnsureColumn_MissingOptionalDefaultsEmpty(t *testing.T) {
	tab, _ := ReadCSV(strings.NewReader("A\nx\n"), "matrix")

	if err := tab.EnsureColumn("Assets Allocated to", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := tab.Rows[0]["Assets Allocated to"]; !ok || v != "" {
		t.Errorf("optional column not defaulted: %v", tab.Rows[0])
	}
}

func TestOpen_MissingPath(t *testing.T) {
	_, err := Open("", "threats")
	var ime *InputMissingError
	if !errors.As(err, &ime) {
		t.Fatalf("expected InputMissingError, got %v", err)
	}
}
