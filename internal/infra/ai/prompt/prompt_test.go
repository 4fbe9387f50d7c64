package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SatvikDB/aegis/internal/domain/detect"
	"github.com/SatvikDB/aegis/internal/domain/threat"
)

func TestBuildDetectionContextEmpty(t *testing.T) {
	got := BuildDetectionContext(nil, threat.Assess(nil), 640, 480, 12.3)

	assert.Contains(t, got, "Resolution: 640x480 pixels")
	assert.Contains(t, got, "Inference time: 12.3ms")
	assert.Contains(t, got, "Level: CLEAR")
	assert.Contains(t, got, "DETECTED OBJECTS: None")
}

func TestBuildDetectionContextDetections(t *testing.T) {
	detections := []detect.Detection{
		{ClassName: "tank", Confidence: 0.9124, Risk: detect.RiskHigh,
			Box: detect.NewBox(0, 0, 100, 100)}, // center (50,50) → top-left
		{ClassName: "person", Confidence: 0.55, Risk: detect.RiskMedium,
			Box: detect.NewBox(270, 190, 370, 290)}, // center (320,240) → center
	}
	report := threat.Assess(detections)

	got := BuildDetectionContext(detections, report, 640, 480, 20)

	assert.Contains(t, got, "DETECTED OBJECTS (2 total):")
	assert.Contains(t, got, "1. TANK [HIGH RISK]")
	assert.Contains(t, got, "Confidence: 91.2%")
	assert.Contains(t, got, "Position: top-left of frame")
	assert.Contains(t, got, "Size: 100x100 pixels")
	assert.Contains(t, got, "2. PERSON [MEDIUM RISK]")
	assert.Contains(t, got, "Position: center of frame")
	assert.Contains(t, got, "High-risk: 1")
}

func TestFramePosition(t *testing.T) {
	cases := []struct {
		cx, cy int
		want   string
	}{
		{50, 50, "top-left"},
		{320, 50, "top-center"},
		{600, 50, "top-right"},
		{50, 240, "middle-left"},
		{320, 240, "center"},
		{600, 240, "middle-right"},
		{50, 450, "bottom-left"},
		{320, 450, "bottom-center"},
		{600, 450, "bottom-right"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, framePosition(tc.cx, tc.cy, 640, 480),
			"center (%d,%d)", tc.cx, tc.cy)
	}
}

func TestChatSystemPromptEmbedsScan(t *testing.T) {
	got := ChatSystemPrompt("scan-123", "CONTEXT BLOCK", "SITREP BLOCK")

	assert.True(t, strings.HasPrefix(got, SystemPrompt))
	assert.Contains(t, got, "Scan ID: scan-123")
	assert.Contains(t, got, "CONTEXT BLOCK")
	assert.Contains(t, got, "SITREP BLOCK")
}

func TestSitrepRequest(t *testing.T) {
	got := SitrepRequest("CONTEXT")
	assert.Contains(t, got, "Generate a tactical SITREP")
	assert.Contains(t, got, "CONTEXT")
}
