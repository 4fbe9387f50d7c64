package detect

import (
	"fmt"
	"math"
	"sort"
)

// Normalize converts raw model output into the canonical ordered Detection
// list. Risk is assigned here, once, and the final ordering is a stable
// sort by tier priority ascending then confidence descending: downstream
// consumers rely on "most dangerous, most confident first".
func Normalize(raw *RawResult, vocab Vocabulary) []Detection {
	if raw == nil || len(raw.Detections) == 0 {
		return []Detection{}
	}

	out := make([]Detection, 0, len(raw.Detections))
	for i, rd := range raw.Detections {
		className, ok := raw.ClassNames[rd.ClassID]
		if !ok {
			className = fmt.Sprintf("class_%d", rd.ClassID)
		}
		out = append(out, Detection{
			ID:         i,
			ClassName:  className,
			Confidence: roundConfidence(rd.Confidence),
			Risk:       vocab.Classify(className),
			Box:        NewBox(rd.X1, rd.Y1, rd.X2, rd.Y2),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Risk.Priority(), out[j].Risk.Priority()
		if pi != pj {
			return pi < pj
		}
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

func roundConfidence(c float64) float64 {
	return math.Round(c*10000) / 10000
}
