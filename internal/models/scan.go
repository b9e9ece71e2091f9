package models

import "time"

// RiskLevel is the three-tier ordinal classification derived from a risk score.
type RiskLevel string

const (
	RiskSafe       RiskLevel = "safe"
	RiskSuspicious RiskLevel = "suspicious"
	RiskHighRisk   RiskLevel = "high-risk"
)

// ScanResult is one completed assessment. Results are immutable once created;
// a re-scan produces a new record rather than editing an old one.
type ScanResult struct {
	ID             string    `json:"id"`
	URL            string    `json:"url"`
	Timestamp      time.Time `json:"timestamp"`
	RiskScore      int       `json:"riskScore"`
	RiskLevel      RiskLevel `json:"riskLevel"`
	Indicators     []string  `json:"indicators"`
	Recommendation string    `json:"recommendation"`
	Analysis       string    `json:"analysis"`
}

// Assessment is the wire shape exchanged with the analyze endpoint and the AI
// backend: a ScanResult minus the locally generated id/url/timestamp fields.
// RiskLevel is attached server-side from RiskScore.
type Assessment struct {
	RiskScore      int       `json:"riskScore"`
	RiskLevel      RiskLevel `json:"riskLevel,omitempty"`
	Indicators     []string  `json:"indicators"`
	Recommendation string    `json:"recommendation"`
	Analysis       string    `json:"analysis"`
}

// DegradedAssessment returns the fixed placeholder verdict used whenever a real
// assessment cannot be obtained. Both the assess client and the analyze handler
// fall back to this same record, so callers always receive a well-formed
// assessment and cannot distinguish degraded mode from a genuine low-confidence
// verdict.
func DegradedAssessment() Assessment {
	return Assessment{
		RiskScore:      50,
		RiskLevel:      RiskSuspicious,
		Indicators:     []string{"Analysis failed due to network error"},
		Recommendation: "Proceed with extreme caution. Manual verification required.",
		Analysis:       "We were unable to complete the AI-powered deep scan at this time.",
	}
}

// Fixed text for the synthetic verdict produced when a URL is already on the
// block list. The score-100 record represents the cached verdict, not a fresh
// classification.
const (
	BlockedIndicator      = "This URL was previously blocked due to high security risks."
	BlockedRecommendation = "Do not visit this URL. It was flagged as dangerous in a previous scan."
	BlockedAnalysis       = "This URL is on your blocked list. It was classified as high-risk by an earlier assessment and scanning it again is not required."
)
