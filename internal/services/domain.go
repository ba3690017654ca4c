package services

import (
	"strings"

	"github.com/rq1234/cv-tailor/internal/models"
)

// DomainLabel is the coarse JD category driving section quotas.
type DomainLabel string

const (
	DomainTech              DomainLabel = "tech"
	DomainConsultingFinance DomainLabel = "consulting_finance"
	DomainDefault           DomainLabel = "default"
)

// Literal keyword membership, not a learned classifier. Tech terms are
// checked first: words like "technology" and "software" show up in JDs from
// every industry, so the precedence order is load-bearing for quota outcomes.
var (
	techTerms = []string{
		"tech", "software", "engineer", "data", "quant", "trading",
		"fintech", "machine learning", "developer", "analytics",
	}
	consultingTerms = []string{"consult", "strategy", "advisory"}
	financeTerms    = []string{
		"financ", "bank", "investment", "equity", "asset", "wealth", "portfolio",
	}

	// Terms that, when present in the JD's domain string, seed the keyword
	// set used for the domain-tag boost.
	boostSeedTerms = []string{
		"tech", "software", "engineer", "data", "quant", "trading", "fintech",
		"consult", "strategy", "finance", "bank", "investment",
	}
)

func ClassifyDomain(jd *models.ParsedJD) DomainLabel {
	context := strings.ToLower(
		jd.Domain + " " + jd.RoleSummary + " " + strings.Join(jd.Keywords, " "),
	)

	if containsAny(context, techTerms) {
		return DomainTech
	}
	if containsAny(context, consultingTerms) || containsAny(context, financeTerms) {
		return DomainConsultingFinance
	}
	return DomainDefault
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// sectionQuotas maps (domain label, page budget) to (projects, activities).
// Tech leans on projects, consulting/finance on leadership activities; the
// 2-page budget roughly doubles the 1-page quotas.
func sectionQuotas(label DomainLabel, maxPages int) (projectLimit, activityLimit int) {
	twoPage := maxPages >= 2
	switch label {
	case DomainTech:
		if twoPage {
			return 5, 1
		}
		return 3, 0
	case DomainConsultingFinance:
		if twoPage {
			return 2, 5
		}
		return 0, 3
	default:
		if twoPage {
			return 4, 2
		}
		return 2, 1
	}
}

func experienceCap(maxPages int) int {
	if maxPages >= 2 {
		return 6
	}
	return 4
}

// domainKeywords builds the lowercase keyword set a candidate's domain tags
// are matched against for the flat boost.
func domainKeywords(jdDomain string) map[string]bool {
	domain := strings.ToLower(strings.TrimSpace(jdDomain))
	keys := make(map[string]bool)
	if domain != "" {
		keys[domain] = true
	}
	for _, t := range boostSeedTerms {
		if strings.Contains(domain, t) {
			keys[t] = true
		}
	}
	return keys
}
