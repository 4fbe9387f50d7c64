package eventlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SatvikDB/aegis/internal/domain/detect"
	"github.com/SatvikDB/aegis/internal/domain/threat"
)

func TestBuildRowsSentinel(t *testing.T) {
	ts := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	report := threat.Assess(nil)

	rows := BuildRows(ts, "empty.jpg", report, nil, 42.5)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.True(t, row.IsSentinel())
	assert.Equal(t, SentinelClass, row.ClassName)
	assert.Equal(t, SentinelRisk, row.RiskLevel)
	assert.Equal(t, "CLEAR", row.ThreatLevel)
	assert.Zero(t, row.TotalDetections)
	assert.Zero(t, row.Confidence)
	assert.Equal(t, 42.5, row.InferenceMS)
}

func TestBuildRowsPerDetection(t *testing.T) {
	ts := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	detections := []detect.Detection{
		{ClassName: "tank", Confidence: 0.9, Risk: detect.RiskHigh,
			Box: detect.NewBox(10, 20, 110, 220)},
		{ClassName: "person", Confidence: 0.6, Risk: detect.RiskMedium,
			Box: detect.NewBox(5, 5, 50, 80)},
	}
	report := threat.Assess(detections)

	rows := BuildRows(ts, "scan.jpg", report, detections, 17.3)
	require.Len(t, rows, 2)

	for _, row := range rows {
		assert.False(t, row.IsSentinel())
		assert.Equal(t, "scan.jpg", row.ImageFilename)
		assert.Equal(t, "HIGH", row.ThreatLevel)
		assert.Equal(t, 2, row.TotalDetections)
		assert.Equal(t, 1, row.HighRiskCount)
		assert.Equal(t, 17.3, row.InferenceMS)
	}

	assert.Equal(t, "tank", rows[0].ClassName)
	assert.Equal(t, "high", rows[0].RiskLevel)
	assert.Equal(t, 10, rows[0].BoxX1)
	assert.Equal(t, 220, rows[0].BoxY2)
	assert.Equal(t, "person", rows[1].ClassName)
	assert.Equal(t, "medium", rows[1].RiskLevel)
}
