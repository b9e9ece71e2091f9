// Package risk holds the score-to-level classifier. It is the single shared
// implementation for mapping a score to a level, so the service boundary and
// any client code path that needs the mapping cannot drift apart.
package risk

import "qrshield/internal/models"

// Thresholds for the three risk tiers.
const (
	suspiciousFloor = 30
	highRiskFloor   = 70
)

// Classify maps a risk score to its level. Total over all integers: anything
// below the suspicious floor is safe, anything at or above the high-risk floor
// is high-risk.
func Classify(score int) models.RiskLevel {
	switch {
	case score < suspiciousFloor:
		return models.RiskSafe
	case score < highRiskFloor:
		return models.RiskSuspicious
	default:
		return models.RiskHighRisk
	}
}
