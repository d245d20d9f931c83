package catalog

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func testVariables() []Variable {
	return []Variable{
		{Ruleblock: "ckd", Variable: "egfr_last", StatementType: Functional, Label: "Last eGFR", IsReportable: "1", ReferencedInTemplates: "ckd.txt"},
		{Ruleblock: "ckd", Variable: "ckd_stage", StatementType: Conditional, Description: "KDIGO stage"},
		{Ruleblock: "dm", Variable: "hba1c", StatementType: Functional, Label: "HbA1c", IsReportable: "0"},
		{Ruleblock: "dm", Variable: "dm_dx", StatementType: Conditional},
	}
}

func TestCalculateStats(t *testing.T) {
	got := CalculateStats(testVariables())
	want := Stats{
		TotalVariables:              4,
		FunctionalCount:             2,
		ConditionalCount:            2,
		WithMetadataCount:           2,
		WithoutMetadataCount:        2,
		TotalRuleblocks:             2,
		WithTemplateReferencesCount: 1,
	}
	if got != want {
		t.Errorf("CalculateStats = %+v, want %+v", got, want)
	}
}

func TestCalculateStatsEmpty(t *testing.T) {
	if got := CalculateStats(nil); got != (Stats{}) {
		t.Errorf("CalculateStats(nil) = %+v, want zero", got)
	}
}

func TestCalculateStatsInvariants(t *testing.T) {
	vars := testVariables()
	for n := 0; n <= len(vars); n++ {
		s := CalculateStats(vars[:n])
		if s.FunctionalCount+s.ConditionalCount != s.TotalVariables {
			t.Errorf("n=%d: functional+conditional = %d, total %d", n, s.FunctionalCount+s.ConditionalCount, s.TotalVariables)
		}
		if s.WithMetadataCount+s.WithoutMetadataCount != s.TotalVariables {
			t.Errorf("n=%d: with+without metadata = %d, total %d", n, s.WithMetadataCount+s.WithoutMetadataCount, s.TotalVariables)
		}
	}
}

func TestVariableAccessors(t *testing.T) {
	v := Variable{
		Ruleblock:             "ckd",
		Variable:              "acr",
		DependsOn:             "rout_dm.hba1c,egfr",
		EadvAttributes:        "lab_ua_acr",
		ReferencedInTemplates: "a.txt, b.txt",
		IsReportable:          "1",
	}
	if v.Key() != "ckd.acr" {
		t.Errorf("Key = %q", v.Key())
	}
	if got := v.Dependencies(); !reflect.DeepEqual(got, []string{"rout_dm.hba1c", "egfr"}) {
		t.Errorf("Dependencies = %v", got)
	}
	if got := v.EadvAttributeList(); !reflect.DeepEqual(got, []string{"lab_ua_acr"}) {
		t.Errorf("EadvAttributeList = %v", got)
	}
	if got := v.TemplateList(); !reflect.DeepEqual(got, []string{"a.txt", "b.txt"}) {
		t.Errorf("TemplateList = %v", got)
	}
	if !v.Reportable() {
		t.Error("Reportable = false, want true")
	}
	if got := (&Variable{}).Dependencies(); got != nil {
		t.Errorf("empty Dependencies = %v, want nil", got)
	}
}

func TestSnapshotFindByKey(t *testing.T) {
	vars := testVariables()
	vars = append(vars, Variable{Ruleblock: "ckd", Variable: "egfr_last", StatementType: Functional})
	snap := &Snapshot{Variables: vars}

	if got := snap.FindByKey("ckd.egfr_last"); len(got) != 2 {
		t.Errorf("FindByKey returned %d records, want 2", len(got))
	}
	if got := snap.FindByKey("ckd.none"); len(got) != 0 {
		t.Errorf("FindByKey(missing) returned %d records", len(got))
	}
}

func TestParseTristate(t *testing.T) {
	tests := []struct {
		in     string
		want   Tristate
		wantOK bool
	}{
		{"", Any, true},
		{"all", Any, true},
		{"YES", Yes, true},
		{"false", No, true},
		{"maybe", Any, false},
	}
	for _, tt := range tests {
		got, ok := ParseTristate(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseTristate(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFilterApply(t *testing.T) {
	vars := testVariables()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"zero filter", Filter{}, []string{"egfr_last", "ckd_stage", "hba1c", "dm_dx"}},
		{"search variable", Filter{Search: "EGFR"}, []string{"egfr_last"}},
		{"search description", Filter{Search: "kdigo"}, []string{"ckd_stage"}},
		{"search ruleblock", Filter{Search: "dm"}, []string{"hba1c", "dm_dx"}},
		{"ruleblock", Filter{Ruleblock: "ckd"}, []string{"egfr_last", "ckd_stage"}},
		{"statement type", Filter{StatementType: Conditional}, []string{"ckd_stage", "dm_dx"}},
		{"has metadata", Filter{HasMetadata: Yes}, []string{"egfr_last", "hba1c"}},
		{"no metadata", Filter{HasMetadata: No}, []string{"ckd_stage", "dm_dx"}},
		{"reportable", Filter{IsReportable: Yes}, []string{"egfr_last"}},
		{"templates", Filter{HasTemplates: Yes, Ruleblock: "dm"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make([]string, 0)
			for _, v := range tt.filter.Apply(vars) {
				got = append(got, v.Variable)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRuleblockOptions(t *testing.T) {
	if got := RuleblockOptions(testVariables()); !reflect.DeepEqual(got, []string{"ckd", "dm"}) {
		t.Errorf("RuleblockOptions = %v", got)
	}
}

func TestNopCache(t *testing.T) {
	var c Cache = NopCache{}
	ctx := context.Background()

	if err := c.Save(ctx, CacheVersion, &Snapshot{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := c.Load(ctx, CacheVersion); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Load error = %v, want ErrCacheMiss", err)
	}
}
