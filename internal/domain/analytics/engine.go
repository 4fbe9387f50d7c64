package analytics

import (
	"sort"
	"time"

	"github.com/SatvikDB/aegis/internal/domain/detect"
	"github.com/SatvikDB/aegis/internal/domain/eventlog"
	"github.com/SatvikDB/aegis/internal/domain/threat"
)

// Engine recomputes dashboard aggregates from an event log snapshot.
// Compute is a side-effect-free fold: same rows, same snapshot.
type Engine struct {
	Vocab detect.Vocabulary
}

// Compute folds one linear scan of the log into a Snapshot. Sentinel
// "no object" rows count toward scan totals and threat distribution but
// are excluded from detection aggregates.
func (e Engine) Compute(rows []eventlog.Row, now time.Time) Snapshot {
	snap := EmptySnapshot(now)
	if len(rows) == 0 {
		return snap
	}

	today := now.Format("2006-01-02")
	seriesIndex := make(map[string]int, len(snap.DetectionsOverTime))
	for i, pt := range snap.DetectionsOverTime {
		seriesIndex[pt.Date] = i
	}

	images := map[string]struct{}{}
	criticalToday := map[string]struct{}{}
	imageLevel := map[string]string{}
	classCounts := map[string]int{}

	for _, row := range rows {
		images[row.ImageFilename] = struct{}{}

		// One threat level per image: its first recorded level wins.
		if _, seen := imageLevel[row.ImageFilename]; !seen {
			imageLevel[row.ImageFilename] = row.ThreatLevel
		}
		if row.ThreatLevel == string(threat.LevelCritical) && row.Timestamp.Format("2006-01-02") == today {
			criticalToday[row.ImageFilename] = struct{}{}
		}

		if row.IsSentinel() {
			continue
		}

		snap.Summary.TotalDetections++
		classCounts[row.ClassName]++

		if i, ok := seriesIndex[row.Timestamp.Format("2006-01-02")]; ok {
			snap.DetectionsOverTime[i].Count++
		}

		day := row.Timestamp.Weekday().String()[:3]
		snap.HourlyHeatmap[day][row.Timestamp.Hour()]++

		snap.ConfidenceHistogram[confidenceBin(row.Confidence)].Count++
	}

	snap.Summary.TotalScans = len(images)
	snap.Summary.CriticalToday = len(criticalToday)
	snap.Summary.MostDetectedClass = mostFrequent(classCounts)

	for _, level := range imageLevel {
		if _, ok := snap.ThreatDistribution[level]; ok {
			snap.ThreatDistribution[level]++
		}
	}

	snap.TopClasses = e.topClasses(classCounts)
	snap.RecentRows = recentRows(rows)
	return snap
}

// confidenceBin maps a confidence to its histogram bucket: bin i covers
// (i/10, (i+1)/10], with 0.0 counted into the first bin.
func confidenceBin(c float64) int {
	if c <= 0 {
		return 0
	}
	bin := int(c * 10)
	if float64(bin)/10 == c {
		bin--
	}
	if bin >= histogramBins {
		bin = histogramBins - 1
	}
	return bin
}

func mostFrequent(counts map[string]int) string {
	best, bestCount := NoDetectionsClass, 0
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if counts[name] > bestCount {
			best, bestCount = name, counts[name]
		}
	}
	return best
}

func (e Engine) topClasses(counts map[string]int) []TopClass {
	top := make([]TopClass, 0, len(counts))
	for name, count := range counts {
		top = append(top, TopClass{
			ClassName: name,
			Count:     count,
			Risk:      string(e.Vocab.Classify(name)),
		})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].ClassName < top[j].ClassName
	})
	if len(top) > topClassLimit {
		top = top[:topClassLimit]
	}
	return top
}

func recentRows(rows []eventlog.Row) []eventlog.Row {
	n := len(rows)
	limit := recentRowLimit
	if n < limit {
		limit = n
	}
	recent := make([]eventlog.Row, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		recent = append(recent, rows[i])
	}
	return recent
}
