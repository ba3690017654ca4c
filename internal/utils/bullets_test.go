package utils

import (
	"gorm.io/datatypes"
	"testing"
)

func TestExtractBulletTextsStrings(t *testing.T) {
	in := datatypes.JSON(`["Led trading desk tooling", "Built risk reports"]`)
	got := ExtractBulletTexts(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 bullets, got %d", len(got))
	}
	if got[0] != "Led trading desk tooling" {
		t.Errorf("unexpected first bullet: %q", got[0])
	}
}

func TestExtractBulletTextsObjects(t *testing.T) {
	in := datatypes.JSON(`[{"text":"Automated reconciliation","domain_tags":["finance"]},{"text":"Shipped dashboards"}]`)
	got := ExtractBulletTexts(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 bullets, got %d", len(got))
	}
	if got[1] != "Shipped dashboards" {
		t.Errorf("unexpected second bullet: %q", got[1])
	}
}

func TestExtractBulletTextsMixedAndEmpty(t *testing.T) {
	if got := ExtractBulletTexts(nil); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
	if got := ExtractBulletTexts(datatypes.JSON(`{"not":"a list"}`)); got != nil {
		t.Errorf("expected nil for non-list input, got %v", got)
	}
	in := datatypes.JSON(`["plain", {"text":"object"}, 42]`)
	got := ExtractBulletTexts(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 bullets from mixed input, got %d", len(got))
	}
}
