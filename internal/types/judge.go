package types

// IssueKind enumerates the six classes of response defect the Judge detects.
type IssueKind string

const (
	IssueFabricatedGap    IssueKind = "fabricated_gap"
	IssueHallucination    IssueKind = "hallucination"
	IssueRelevanceFailure IssueKind = "relevance_failure"
	IssueCompletenessGap  IssueKind = "completeness_gap"
	IssueMissedInfo       IssueKind = "missed_information"
	IssueContradiction    IssueKind = "internal_contradiction"
)

// IssueSeverity gates whether an issue is worth a correction pass.
type IssueSeverity string

const (
	SeverityLow    IssueSeverity = "low"
	SeverityMedium IssueSeverity = "medium"
	SeverityHigh   IssueSeverity = "high"
)

// Issue is one defect found by Judge.Validate against the retrieved context.
type Issue struct {
	Kind        IssueKind     `json:"kind"`
	Severity    IssueSeverity `json:"severity"`
	Description string        `json:"description"`
}

// FactSheet is the structured extraction produced by Judge.PreAnalyze.
type FactSheet struct {
	Dates           []string `json:"dates"`
	Names           []string `json:"names"`
	Numbers         []string `json:"numbers"`
	Claims          []string `json:"claims"`
	Responsibilities []string `json:"responsibilities"`
}

// Empty reports whether no facts were extracted, in which case validation is
// skipped with a fixed confidence of 0.7.
func (f *FactSheet) Empty() bool {
	if f == nil {
		return true
	}
	return len(f.Dates) == 0 && len(f.Names) == 0 && len(f.Numbers) == 0 &&
		len(f.Claims) == 0 && len(f.Responsibilities) == 0
}

// ValidationResult is the transient outcome of Judge.Validate: a list of
// typed issues, confidence, relevance, completeness, and whether a correction
// pass is warranted.
type ValidationResult struct {
	Issues          []Issue `json:"issues"`
	Confidence      float64 `json:"confidence"`
	Relevance       float64 `json:"relevance"`
	Completeness    float64 `json:"completeness"`
	NeedsCorrection bool    `json:"needs_correction"`
}

// HasSignificantIssues reports whether any issue is severe enough to warrant
// a correction pass (severity medium or high).
func (v *ValidationResult) HasSignificantIssues() bool {
	for _, issue := range v.Issues {
		if issue.Severity == SeverityMedium || issue.Severity == SeverityHigh {
			return true
		}
	}
	return false
}
