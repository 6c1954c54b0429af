package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/build-flow-labs/repoaudit/internal/audit/schema"
)

// Outcomes collects every deep-audit analyzer's terminal state for one
// run.
type Outcomes struct {
	Profile  Outcome[schema.RepositoryProfile]
	History  Outcome[schema.GitInsight]
	Static   Outcome[schema.StaticFindings]
	Deps     Outcome[schema.DependencyAudit]
	Coverage Outcome[schema.TestCoverageReport]
}

// Merge assembles the composite audit record. It is a structural merge
// with no computation: health is always present, every other section is
// carried only when its analyzer completed. The merge is total — it
// succeeds even when every optional section is absent.
func Merge(ref Ref, health schema.HealthAssessment, outcomes Outcomes) *schema.AuditResult {
	return &schema.AuditResult{
		ID:              uuid.NewString(),
		Repository:      ref.String(),
		GeneratedAt:     time.Now().UTC(),
		Health:          health,
		Profile:         outcomes.Profile.value(),
		GitInsight:      outcomes.History.value(),
		StaticFindings:  outcomes.Static.value(),
		DependencyAudit: outcomes.Deps.value(),
		TestCoverage:    outcomes.Coverage.value(),
	}
}
