package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVocab() Vocabulary {
	return NewVocabulary([]string{"tank"}, []string{"person"})
}

func TestNormalizeEmpty(t *testing.T) {
	got := Normalize(nil, testVocab())
	require.NotNil(t, got)
	assert.Empty(t, got)

	got = Normalize(&RawResult{}, testVocab())
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNormalizeDerivesBoxAndRisk(t *testing.T) {
	raw := &RawResult{
		Detections: []RawDetection{
			{X1: 10.9, Y1: 20.7, X2: 110.2, Y2: 220.6, Confidence: 0.91236, ClassID: 0},
		},
		ClassNames:  map[int]string{0: "tank"},
		ImageWidth:  640,
		ImageHeight: 480,
	}

	got := Normalize(raw, testVocab())
	require.Len(t, got, 1)

	d := got[0]
	assert.Equal(t, 0, d.ID)
	assert.Equal(t, "tank", d.ClassName)
	assert.Equal(t, RiskHigh, d.Risk)
	assert.Equal(t, 0.9124, d.Confidence)

	// coordinates are truncated, the rest is derived
	assert.Equal(t, 10, d.Box.X1)
	assert.Equal(t, 20, d.Box.Y1)
	assert.Equal(t, 110, d.Box.X2)
	assert.Equal(t, 220, d.Box.Y2)
	assert.Equal(t, 100, d.Box.Width)
	assert.Equal(t, 200, d.Box.Height)
	assert.Equal(t, 60, d.Box.CX)
	assert.Equal(t, 120, d.Box.CY)
}

func TestNormalizeUnknownClassFallback(t *testing.T) {
	raw := &RawResult{
		Detections: []RawDetection{{Confidence: 0.5, ClassID: 42}},
		ClassNames: map[int]string{},
	}
	got := Normalize(raw, testVocab())
	require.Len(t, got, 1)
	assert.Equal(t, "class_42", got[0].ClassName)
	assert.Equal(t, RiskLow, got[0].Risk)
}

func TestNormalizeOrdering(t *testing.T) {
	raw := &RawResult{
		Detections: []RawDetection{
			{Confidence: 0.95, ClassID: 2}, // low
			{Confidence: 0.50, ClassID: 1}, // medium
			{Confidence: 0.30, ClassID: 0}, // high
			{Confidence: 0.80, ClassID: 1}, // medium
			{Confidence: 0.90, ClassID: 0}, // high
		},
		ClassNames: map[int]string{0: "tank", 1: "person", 2: "tree"},
	}

	got := Normalize(raw, testVocab())
	require.Len(t, got, 5)

	// tier priority ascending, confidence descending within a tier
	assert.Equal(t, []float64{0.9, 0.3, 0.8, 0.5, 0.95},
		[]float64{got[0].Confidence, got[1].Confidence, got[2].Confidence, got[3].Confidence, got[4].Confidence})
	assert.Equal(t, RiskHigh, got[0].Risk)
	assert.Equal(t, RiskHigh, got[1].Risk)
	assert.Equal(t, RiskMedium, got[2].Risk)
	assert.Equal(t, RiskMedium, got[3].Risk)
	assert.Equal(t, RiskLow, got[4].Risk)
}

func TestNormalizeStableForEqualKeys(t *testing.T) {
	// same tier and confidence keeps input order, via assigned IDs
	raw := &RawResult{
		Detections: []RawDetection{
			{Confidence: 0.7, ClassID: 1},
			{Confidence: 0.7, ClassID: 1},
			{Confidence: 0.7, ClassID: 1},
		},
		ClassNames: map[int]string{1: "person"},
	}
	got := Normalize(raw, testVocab())
	require.Len(t, got, 3)
	assert.Equal(t, 0, got[0].ID)
	assert.Equal(t, 1, got[1].ID)
	assert.Equal(t, 2, got[2].ID)
}

func TestNormalizeIdempotent(t *testing.T) {
	raw := &RawResult{
		Detections: []RawDetection{
			{X1: 1, Y1: 2, X2: 3, Y2: 4, Confidence: 0.6, ClassID: 0},
			{X1: 5, Y1: 6, X2: 7, Y2: 8, Confidence: 0.4, ClassID: 1},
		},
		ClassNames: map[int]string{0: "tank", 1: "person"},
	}
	first := Normalize(raw, testVocab())
	second := Normalize(raw, testVocab())
	assert.Equal(t, first, second)
}
