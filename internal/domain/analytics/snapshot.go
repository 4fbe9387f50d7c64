package analytics

import (
	"fmt"
	"time"

	"github.com/SatvikDB/aegis/internal/domain/eventlog"
	"github.com/SatvikDB/aegis/internal/domain/threat"
)

// Weekdays are the fixed heatmap row keys, Monday first.
var Weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

const (
	timeSeriesDays = 30
	topClassLimit  = 10
	histogramBins  = 10
	recentRowLimit = 25

	// NoDetectionsClass is the most-detected-class placeholder when the
	// log holds no real detections.
	NoDetectionsClass = "None"
)

// Summary is the dashboard headline block.
type Summary struct {
	TotalScans        int    `json:"total_scans"`
	TotalDetections   int    `json:"total_detections"`
	CriticalToday     int    `json:"critical_today"`
	MostDetectedClass string `json:"most_detected_class"`
}

// TimePoint is one calendar day in the trailing detection series.
type TimePoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// TopClass is one entry of the most-detected-classes ranking.
type TopClass struct {
	ClassName string `json:"class_name"`
	Count     int    `json:"count"`
	Risk      string `json:"risk"`
}

// HistogramBin is one fixed-width confidence bucket.
type HistogramBin struct {
	Bin   string `json:"bin"`
	Count int    `json:"count"`
}

// Snapshot is the full read-only dashboard aggregate.
type Snapshot struct {
	Summary             Summary          `json:"summary"`
	ThreatDistribution  map[string]int   `json:"threat_distribution"`
	DetectionsOverTime  []TimePoint      `json:"detections_over_time"`
	TopClasses          []TopClass       `json:"top_classes"`
	HourlyHeatmap       map[string][]int `json:"hourly_heatmap"`
	ConfidenceHistogram []HistogramBin   `json:"confidence_histogram"`
	RecentRows          []eventlog.Row   `json:"recent_rows"`
}

// EmptySnapshot returns the well-defined zero-valued snapshot: zeroed
// summary, zero-filled 30-day series ending at now, all five threat
// buckets, a zero 7×24 grid and a zero 10-bin histogram. The dashboard
// never has to special-case an absent log.
func EmptySnapshot(now time.Time) Snapshot {
	return Snapshot{
		Summary: Summary{
			MostDetectedClass: NoDetectionsClass,
		},
		ThreatDistribution:  emptyDistribution(),
		DetectionsOverTime:  emptyTimeSeries(now),
		TopClasses:          []TopClass{},
		HourlyHeatmap:       emptyHeatmap(),
		ConfidenceHistogram: emptyHistogram(),
		RecentRows:          []eventlog.Row{},
	}
}

func emptyDistribution() map[string]int {
	dist := make(map[string]int, len(threat.Levels))
	for _, level := range threat.Levels {
		dist[string(level)] = 0
	}
	return dist
}

func emptyTimeSeries(now time.Time) []TimePoint {
	series := make([]TimePoint, 0, timeSeriesDays)
	start := now.AddDate(0, 0, -(timeSeriesDays - 1))
	for i := 0; i < timeSeriesDays; i++ {
		series = append(series, TimePoint{
			Date: start.AddDate(0, 0, i).Format("2006-01-02"),
		})
	}
	return series
}

func emptyHeatmap() map[string][]int {
	grid := make(map[string][]int, len(Weekdays))
	for _, day := range Weekdays {
		grid[day] = make([]int, 24)
	}
	return grid
}

func emptyHistogram() []HistogramBin {
	bins := make([]HistogramBin, 0, histogramBins)
	for i := 0; i < histogramBins; i++ {
		bins = append(bins, HistogramBin{Bin: binLabel(i)})
	}
	return bins
}

func binLabel(i int) string {
	return fmt.Sprintf("%.1f-%.1f", float64(i)/10, float64(i+1)/10)
}
