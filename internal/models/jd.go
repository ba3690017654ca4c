package models

// ParsedJD is the structured form of a job description, produced upstream by
// the JD parsing agent. Immutable once produced; the selection engine reads it
// and never writes it back.
type ParsedJD struct {
	RequiredSkills         []string `json:"required_skills" bson:"required_skills"`
	NiceToHaveSkills       []string `json:"nice_to_have_skills" bson:"nice_to_have_skills"`
	ToolsAndTechnologies   []string `json:"tools_and_technologies" bson:"tools_and_technologies"`
	KeyResponsibilities    []string `json:"key_responsibilities" bson:"key_responsibilities"`
	Keywords               []string `json:"keywords" bson:"keywords"`
	OutcomeSignals         []string `json:"outcome_signals" bson:"outcome_signals"`
	SeniorityLevel         string   `json:"seniority_level" bson:"seniority_level"`
	Domain                 string   `json:"domain" bson:"domain"`
	CompanyValuesMentioned []string `json:"company_values_mentioned,omitempty" bson:"company_values_mentioned,omitempty"`
	RoleSummary            string   `json:"role_summary" bson:"role_summary"`
}
