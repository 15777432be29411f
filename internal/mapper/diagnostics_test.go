package mapper

import (
	"reflect"
	"strings"
	"testing"

	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/catalog"
	"github.com/AshwaSec21/Threat2PCyA-Deterministic/internal/table"
)

func TestDiagnostics_AlignmentAndStats(t *testing.T) {
	ths, rs, m := loadFixtures(t, impersonationThreats, impersonationRules, `Requirement ID,TIS Source,Assets Allocated to
REQ-010,CR 1.1 and NDR 7,HMI
`)
	eng, _ := New(rs, m, nil, defaultOptions(), nil)
	out, err := eng.Run(ths)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	d := out.Diagnostics
	if d.Err != nil {
		t.Fatalf("diagnostics error: %v", d.Err)
	}
	if d.Stats.Threats != 1 || d.Stats.Rules != 1 || d.Stats.Results != 1 {
		t.Errorf("stats: %+v", d.Stats)
	}
	if !reflect.DeepEqual(d.Alignment.Intersection, []string{"CR 1.1"}) {
		t.Errorf("intersection: %v", d.Alignment.Intersection)
	}
	if !reflect.DeepEqual(d.Alignment.OnlyRequired, []string{"CR 1.2 RE(1)"}) {
		t.Errorf("only required: %v", d.Alignment.OnlyRequired)
	}
	if !reflect.DeepEqual(d.Alignment.OnlyMatrix, []string{"NDR 7"}) {
		t.Errorf("only matrix: %v", d.Alignment.OnlyMatrix)
	}
	if len(d.ThreatKeyPreviews) != 1 || d.ThreatKeyPreviews[0].DescKey == "" {
		t.Errorf("threat key previews: %+v", d.ThreatKeyPreviews)
	}
	if len(d.RuleKeyPreviews) != 1 {
		t.Errorf("rule key previews: %+v", d.RuleKeyPreviews)
	}
	if len(d.StrayThreatIDs) != 0 {
		t.Errorf("stray threat ids: %v", d.StrayThreatIDs)
	}
}

func TestDiagnostics_MissingAnnotatedFromCatalog(t *testing.T) {
	ths, rs, m := loadFixtures(t, impersonationThreats, impersonationRules, `Requirement ID,TIS Source,Assets Allocated to
REQ-010,CR 1.1,HMI
`)
	ctab, err := table.ReadCSV(strings.NewReader(`Id,Title,Detail,SL-C
CR 1.2 RE(1),Multifactor authentication,Use MFA,SL-C 2
`), "catalog")
	if err != nil {
		t.Fatalf("catalog read: %v", err)
	}
	cat, err := catalog.Load(ctab)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	eng, _ := New(rs, m, cat, defaultOptions(), nil)
	out, _ := eng.Run(ths)

	d := out.Diagnostics
	if len(d.Missing) != 1 {
		t.Fatalf("expected 1 missing annotation, got %+v", d.Missing)
	}
	mc := d.Missing[0]
	if mc.Token != "CR 1.2 RE(1)" || mc.Title != "Multifactor authentication" || mc.Level != 2 {
		t.Errorf("annotation: %+v", mc)
	}
}

func TestDiagnostics_DescKeySamples(t *testing.T) {
	ths, rs, m := loadFixtures(t, `Id,Title,Description,Category
1,A,PLC to HMI: An attacker may impersonate the HMI,Spoofing
2,B,PLC to HMI: a narrative no rule knows,Tampering
`, impersonationRules, "Requirement ID,TIS Source\nREQ-001,CR 1.1\n")
	eng, _ := New(rs, m, nil, defaultOptions(), nil)
	out, _ := eng.Run(ths)

	d := out.Diagnostics
	if !reflect.DeepEqual(d.DescIntersectionSample, []string{"an attacker may impersonate the"}) {
		t.Errorf("intersection sample: %v", d.DescIntersectionSample)
	}
	if !reflect.DeepEqual(d.DescOnlyThreatsSample, []string{"a narrative no rule knows"}) {
		t.Errorf("only-threats sample: %v", d.DescOnlyThreatsSample)
	}
	if len(d.Unmapped) != 1 {
		t.Errorf("unmapped: %+v", d.Unmapped)
	}
}
