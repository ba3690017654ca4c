package services

import (
	"testing"

	"github.com/rq1234/cv-tailor/internal/models"
)

func TestClassifyDomain(t *testing.T) {
	cases := []struct {
		name string
		jd   models.ParsedJD
		want DomainLabel
	}{
		{
			name: "software role",
			jd:   models.ParsedJD{Domain: "Software Engineering", RoleSummary: "Backend engineer"},
			want: DomainTech,
		},
		{
			name: "consulting role",
			jd:   models.ParsedJD{Domain: "Management Consulting", RoleSummary: "Strategy analyst"},
			want: DomainConsultingFinance,
		},
		{
			name: "banking role",
			jd:   models.ParsedJD{Domain: "Investment Banking", RoleSummary: "M&A analyst"},
			want: DomainConsultingFinance,
		},
		{
			name: "marketing role",
			jd:   models.ParsedJD{Domain: "Marketing", RoleSummary: "Brand manager"},
			want: DomainDefault,
		},
		{
			// "fintech" matches both term sets; tech wins by precedence.
			name: "fintech role",
			jd:   models.ParsedJD{Domain: "Fintech", RoleSummary: "Payments product analyst at a bank"},
			want: DomainTech,
		},
		{
			name: "keywords only",
			jd:   models.ParsedJD{Keywords: []string{"machine learning", "python"}},
			want: DomainTech,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyDomain(&tc.jd); got != tc.want {
				t.Errorf("ClassifyDomain() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSectionQuotas(t *testing.T) {
	cases := []struct {
		label                  DomainLabel
		maxPages               int
		wantProj, wantActivity int
	}{
		{DomainTech, 1, 3, 0},
		{DomainTech, 2, 5, 1},
		{DomainConsultingFinance, 1, 0, 3},
		{DomainConsultingFinance, 2, 2, 5},
		{DomainDefault, 1, 2, 1},
		{DomainDefault, 2, 4, 2},
	}
	for _, tc := range cases {
		proj, act := sectionQuotas(tc.label, tc.maxPages)
		if proj != tc.wantProj || act != tc.wantActivity {
			t.Errorf("sectionQuotas(%q, %d) = (%d, %d), want (%d, %d)",
				tc.label, tc.maxPages, proj, act, tc.wantProj, tc.wantActivity)
		}
	}
}

func TestExperienceCap(t *testing.T) {
	if got := experienceCap(1); got != 4 {
		t.Errorf("experienceCap(1) = %d, want 4", got)
	}
	if got := experienceCap(2); got != 6 {
		t.Errorf("experienceCap(2) = %d, want 6", got)
	}
}

func TestDomainKeywords(t *testing.T) {
	keys := domainKeywords("Software Engineering")
	if !keys["software engineering"] {
		t.Error("expected full domain string in keyword set")
	}
	if !keys["software"] || !keys["engineer"] {
		t.Error("expected seed terms contained in the domain string")
	}
	if keys["finance"] {
		t.Error("unrelated seed term leaked into keyword set")
	}

	if got := domainKeywords("  "); len(got) != 0 {
		t.Errorf("blank domain produced %d keywords, want 0", len(got))
	}
}
