package iec

import (
	"reflect"
	"testing"
)

func TestNormalize_CanonicalForms(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"CR 3.1", "CR 3.1"},
		{"cr-3.1", "CR 3.1"},
		{"CR3.1", "CR 3.1"},
		{"CR_3.1", "CR 3.1"},
		{"HDR 2 RE(1)", "HDR 2 RE(1)"},
		{"hdr2 re (1)", "HDR 2 RE(1)"},
		{"hdr 2 re[1]", "HDR 2 RE(1)"},
		{"NDR 1.13 RE( 2 )", "NDR 1.13 RE(2)"},
		{"sar 4", "SAR 4"},
		{"no identifier here", ""},
		{"XYZ 3.1", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.expected {
			t.Errorf("Normalize(%q): expected %q, got %q", tt.in, tt.expected, got)
		}
	}
}

func TestNormalize_EnhancementNeverCollapses(t *testing.T) {
	base := Normalize("HDR 2")
	enhanced := Normalize("HDR 2 RE(1)")
	if base == enhanced {
		t.Errorf("enhancement variant collapsed into base token: %q", base)
	}
	if base != "HDR 2" || enhanced != "HDR 2 RE(1)" {
		t.Errorf("unexpected canonical forms: %q, %q", base, enhanced)
	}
}

func TestExtractAll_ConjunctionLists(t *testing.T) {
	tests := []struct {
		in       string
		expected []string
	}{
		{"CR 1.1 and CR 1.2 RE(1)", []string{"CR 1.1", "CR 1.2 RE(1)"}},
		{"CR 1.1; CR 1.2, EDR 3 / NDR 5.2", []string{"CR 1.1", "CR 1.2", "EDR 3", "NDR 5.2"}},
		{"Use CR 2.1 and cr2.1 again", []string{"CR 2.1"}},
		{"not applicable", nil},
		{"", nil},
	}

	for _, tt := range tests {
		if got := ExtractAll(tt.in); !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("ExtractAll(%q): expected %v, got %v", tt.in, tt.expected, got)
		}
	}
}

func TestExtractAll_StableFirstSeenOrder(t *testing.T) {
	got := ExtractAll("SAR 2, CR 1.1 and SAR 2 and CR 1.1")
	expected := []string{"SAR 2", "CR 1.1"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
}

func TestFamily(t *testing.T) {
	tests := []struct {
		token    string
		expected string
	}{
		{"CR 3.1", "CR"},
		{"HDR 2 RE(1)", "HDR"},
		{"SAR", "SAR"},
	}

	for _, tt := range tests {
		if got := Family(tt.token); got != tt.expected {
			t.Errorf("Family(%q): expected %q, got %q", tt.token, tt.expected, got)
		}
	}
}

func TestIsFamily(t *testing.T) {
	for _, fam := range []string{"CR", "sar", "Edr", "HDR", "NDR"} {
		if !IsFamily(fam) {
			t.Errorf("expected %q to be a family", fam)
		}
	}
	for _, fam := range []string{"", "SL", "IEC", "CRX"} {
		if IsFamily(fam) {
			t.Errorf("expected %q not to be a family", fam)
		}
	}
}
