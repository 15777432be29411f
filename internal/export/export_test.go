package export

import (
	"encoding/csv"
	"reflect"
	"strings"
	"testing"

	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/mapper"
)

func TestWriteCSV(t *testing.T) {
	results := []mapper.Result{
		{
			ThreatID:    "0",
			ThreatTitle: "HMI impersonation",
			Description: "PLC to HMI: An attacker may impersonate the HMI",
			Src:         "PLC",
			Tgt:         "HMI",
			Traceable:   []string{"REQ-010", "REQ-011"},
			Mapped:      []string{"REQ-010"},
			Missing:     []string{"CR 1.2 RE(1)"},
			Status:      mapper.StatusMitigated,
		},
	}

	var sb strings.Builder
	if err := WriteCSV(&sb, results); err != nil {
		t.Fatalf("write: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(sb.String())).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d records", len(records))
	}
	if !reflect.DeepEqual(records[0], Columns) {
		t.Errorf("header: %v", records[0])
	}
	row := records[1]
	if row[0] != "0" || row[4] != "PLC" || row[5] != "HMI" {
		t.Errorf("identity cells: %v", row)
	}
	if row[6] != "REQ-010; REQ-011" || row[7] != "REQ-010" {
		t.Errorf("rid cells: %v", row)
	}
	if row[9] != "Mitigated" || row[10] != "CR 1.2 RE(1)" {
		t.Errorf("status/missing cells: %v", row)
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	var sb strings.Builder
	if err := WriteCSV(&sb, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := strings.TrimSpace(sb.String()); got != strings.Join(Columns, ",") {
		t.Errorf("expected header only, got %q", got)
	}
}
