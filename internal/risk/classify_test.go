package risk

import (
	"testing"

	"qrshield/internal/models"
)

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		score int
		want  models.RiskLevel
	}{
		{0, models.RiskSafe},
		{15, models.RiskSafe},
		{29, models.RiskSafe},
		{30, models.RiskSuspicious},
		{50, models.RiskSuspicious},
		{69, models.RiskSuspicious},
		{70, models.RiskHighRisk},
		{85, models.RiskHighRisk},
		{100, models.RiskHighRisk},
	}
	for _, tt := range tests {
		if got := Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
