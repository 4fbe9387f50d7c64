package eventlog

import (
	"time"

	"github.com/SatvikDB/aegis/internal/domain/detect"
	"github.com/SatvikDB/aegis/internal/domain/threat"
)

// Columns is the fixed persisted schema, in order. Confidence is stored
// with 4 decimal places at the boundary.
var Columns = []string{
	"timestamp",
	"image_filename",
	"threat_level",
	"total_detections",
	"high_risk_count",
	"class_name",
	"confidence",
	"risk_level",
	"box_x1",
	"box_y1",
	"box_x2",
	"box_y2",
	"inference_ms",
}

// TimeFormat is the timestamp layout used at the persistence boundary.
const TimeFormat = "2006-01-02 15:04:05"

// Sentinel values for the "no objects detected" row. The sentinel keeps
// zero-detection uploads in the audit trail.
const (
	SentinelClass = "NONE"
	SentinelRisk  = "none"
)

// Row is one persisted detection event record.
type Row struct {
	Timestamp       time.Time `json:"timestamp"`
	ImageFilename   string    `json:"image_filename"`
	ThreatLevel     string    `json:"threat_level"`
	TotalDetections int       `json:"total_detections"`
	HighRiskCount   int       `json:"high_risk_count"`
	ClassName       string    `json:"class_name"`
	Confidence      float64   `json:"confidence"`
	RiskLevel       string    `json:"risk_level"`
	BoxX1           int       `json:"box_x1"`
	BoxY1           int       `json:"box_y1"`
	BoxX2           int       `json:"box_x2"`
	BoxY2           int       `json:"box_y2"`
	InferenceMS     float64   `json:"inference_ms"`
}

// IsSentinel reports whether the row records a zero-detection event.
func (r Row) IsSentinel() bool {
	return r.ClassName == SentinelClass
}

// BuildRows flattens one detection event into its log rows: one row per
// detection, or a single sentinel row when nothing was found. Every image
// upload therefore produces at least one row.
func BuildRows(ts time.Time, imageFilename string, report threat.Report, detections []detect.Detection, inferenceMS float64) []Row {
	base := Row{
		Timestamp:       ts,
		ImageFilename:   imageFilename,
		ThreatLevel:     string(report.Level),
		TotalDetections: report.Stats.Total,
		HighRiskCount:   report.Stats.HighRisk,
		InferenceMS:     inferenceMS,
	}

	if len(detections) == 0 {
		base.ClassName = SentinelClass
		base.RiskLevel = SentinelRisk
		return []Row{base}
	}

	rows := make([]Row, 0, len(detections))
	for _, d := range detections {
		row := base
		row.ClassName = d.ClassName
		row.Confidence = d.Confidence
		row.RiskLevel = string(d.Risk)
		row.BoxX1 = d.Box.X1
		row.BoxY1 = d.Box.Y1
		row.BoxX2 = d.Box.X2
		row.BoxY2 = d.Box.Y2
		rows = append(rows, row)
	}
	return rows
}
