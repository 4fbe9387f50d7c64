package threat

import (
	"math"

	"github.com/SatvikDB/aegis/internal/domain/detect"
)

// Level is the five-valued aggregate severity classification for one image.
type Level string

const (
	LevelCritical Level = "CRITICAL"
	LevelHigh     Level = "HIGH"
	LevelElevated Level = "ELEVATED"
	LevelLow      Level = "LOW"
	LevelClear    Level = "CLEAR"
)

// Levels lists all threat levels, most severe first.
var Levels = []Level{LevelCritical, LevelHigh, LevelElevated, LevelLow, LevelClear}

// Meta is fixed presentation metadata bound to a level.
type Meta struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

var levelMeta = map[Level]Meta{
	LevelCritical: {
		Label:       "CRITICAL THREAT",
		Description: "High-risk military target(s) detected. Immediate action required.",
		Color:       "#ff1744",
		Icon:        "☢",
	},
	LevelHigh: {
		Label:       "HIGH ALERT",
		Description: "Multiple concerning objects detected in the area.",
		Color:       "#ff6d00",
		Icon:        "⚠",
	},
	LevelElevated: {
		Label:       "ELEVATED RISK",
		Description: "Suspicious activity or equipment detected. Monitor closely.",
		Color:       "#ffd600",
		Icon:        "🔶",
	},
	LevelLow: {
		Label:       "LOW RISK",
		Description: "No immediate threats detected. Routine surveillance.",
		Color:       "#00e676",
		Icon:        "✔",
	},
	LevelClear: {
		Label:       "ALL CLEAR",
		Description: "No objects detected in image.",
		Color:       "#40c4ff",
		Icon:        "✔",
	},
}

// MetaFor returns the static presentation metadata for a level.
func MetaFor(level Level) Meta {
	return levelMeta[level]
}

// Stats summarizes one detection set.
type Stats struct {
	Total         int            `json:"total"`
	HighRisk      int            `json:"high_risk"`
	MediumRisk    int            `json:"medium_risk"`
	LowRisk       int            `json:"low_risk"`
	AvgConfidence float64        `json:"avg_confidence"`
	MaxConfidence float64        `json:"max_confidence"`
	ClassCounts   map[string]int `json:"class_counts"`
}

// Report is the aggregate verdict for one image. It is a pure function of
// the detection set: recomputing from the same detections always yields
// the same report.
type Report struct {
	Level        Level    `json:"threat_level"`
	Label        string   `json:"label"`
	Description  string   `json:"description"`
	Color        string   `json:"color"`
	Icon         string   `json:"icon"`
	HighRiskHits []string `json:"high_risk_hits"`
	Stats        Stats    `json:"stats"`
}

// Assess evaluates a detection set against the fixed escalation rules:
// no detections → CLEAR; high≥2 → CRITICAL; high==1 → HIGH;
// medium≥2 → ELEVATED; otherwise LOW.
func Assess(detections []detect.Detection) Report {
	highHits := []string{}
	mediumCount := 0
	for _, d := range detections {
		switch d.Risk {
		case detect.RiskHigh:
			highHits = append(highHits, d.ClassName)
		case detect.RiskMedium:
			mediumCount++
		}
	}

	var level Level
	switch {
	case len(detections) == 0:
		level = LevelClear
	case len(highHits) >= 2:
		level = LevelCritical
	case len(highHits) == 1:
		level = LevelHigh
	case mediumCount >= 2:
		level = LevelElevated
	default:
		level = LevelLow
	}

	meta := levelMeta[level]
	return Report{
		Level:        level,
		Label:        meta.Label,
		Description:  meta.Description,
		Color:        meta.Color,
		Icon:         meta.Icon,
		HighRiskHits: highHits,
		Stats:        computeStats(detections),
	}
}

func computeStats(detections []detect.Detection) Stats {
	stats := Stats{ClassCounts: map[string]int{}}
	if len(detections) == 0 {
		return stats
	}

	var sum, max float64
	for _, d := range detections {
		stats.Total++
		stats.ClassCounts[d.ClassName]++
		switch d.Risk {
		case detect.RiskHigh:
			stats.HighRisk++
		case detect.RiskMedium:
			stats.MediumRisk++
		default:
			stats.LowRisk++
		}
		sum += d.Confidence
		if d.Confidence > max {
			max = d.Confidence
		}
	}
	stats.AvgConfidence = round4(sum / float64(len(detections)))
	stats.MaxConfidence = round4(max)
	return stats
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
