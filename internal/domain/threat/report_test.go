package threat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SatvikDB/aegis/internal/domain/detect"
)

func det(class string, risk detect.RiskTier, conf float64) detect.Detection {
	return detect.Detection{ClassName: class, Risk: risk, Confidence: conf}
}

func TestAssessLevels(t *testing.T) {
	cases := []struct {
		name       string
		detections []detect.Detection
		want       Level
	}{
		{"no detections", nil, LevelClear},
		{"two high", []detect.Detection{
			det("tank", detect.RiskHigh, 0.9),
			det("warship", detect.RiskHigh, 0.8),
		}, LevelCritical},
		{"one high", []detect.Detection{
			det("tank", detect.RiskHigh, 0.9),
			det("person", detect.RiskMedium, 0.5),
		}, LevelHigh},
		{"two medium", []detect.Detection{
			det("person", detect.RiskMedium, 0.5),
			det("person", detect.RiskMedium, 0.6),
		}, LevelElevated},
		{"one medium", []detect.Detection{
			det("person", detect.RiskMedium, 0.5),
		}, LevelLow},
		{"only low", []detect.Detection{
			det("tree", detect.RiskLow, 0.99),
			det("rock", detect.RiskLow, 0.98),
		}, LevelLow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report := Assess(tc.detections)
			assert.Equal(t, tc.want, report.Level)
			meta := MetaFor(tc.want)
			assert.Equal(t, meta.Label, report.Label)
			assert.Equal(t, meta.Color, report.Color)
		})
	}
}

func TestAssessHighRiskHits(t *testing.T) {
	report := Assess([]detect.Detection{
		det("tank", detect.RiskHigh, 0.9),
		det("person", detect.RiskMedium, 0.5),
		det("warship", detect.RiskHigh, 0.7),
	})
	assert.Equal(t, []string{"tank", "warship"}, report.HighRiskHits)
}

func TestAssessStats(t *testing.T) {
	report := Assess([]detect.Detection{
		det("tank", detect.RiskHigh, 0.9),
		det("person", detect.RiskMedium, 0.6),
		det("person", detect.RiskMedium, 0.5),
		det("tree", detect.RiskLow, 0.2),
	})

	stats := report.Stats
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.HighRisk)
	assert.Equal(t, 2, stats.MediumRisk)
	assert.Equal(t, 1, stats.LowRisk)
	assert.Equal(t, 0.55, stats.AvgConfidence)
	assert.Equal(t, 0.9, stats.MaxConfidence)
	assert.Equal(t, map[string]int{"tank": 1, "person": 2, "tree": 1}, stats.ClassCounts)
}

func TestAssessEmptyStats(t *testing.T) {
	report := Assess(nil)
	require.NotNil(t, report.Stats.ClassCounts)
	assert.Empty(t, report.Stats.ClassCounts)
	assert.Zero(t, report.Stats.Total)
	assert.Zero(t, report.Stats.AvgConfidence)
	assert.Empty(t, report.HighRiskHits)
	assert.NotNil(t, report.HighRiskHits)
}

func TestAssessDeterministic(t *testing.T) {
	input := []detect.Detection{
		det("tank", detect.RiskHigh, 0.9),
		det("person", detect.RiskMedium, 0.6),
	}
	assert.Equal(t, Assess(input), Assess(input))
}

func TestMetaTableComplete(t *testing.T) {
	for _, level := range Levels {
		meta := MetaFor(level)
		assert.NotEmpty(t, meta.Label, "label for %s", level)
		assert.NotEmpty(t, meta.Description, "description for %s", level)
		assert.NotEmpty(t, meta.Color, "color for %s", level)
		assert.NotEmpty(t, meta.Icon, "icon for %s", level)
	}
}
