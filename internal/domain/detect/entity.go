package detect

// RiskTier classifies a single detection by its class vocabulary.
type RiskTier string

const (
	RiskHigh   RiskTier = "high"
	RiskMedium RiskTier = "medium"
	RiskLow    RiskTier = "low"
)

// tierPriority orders tiers for rendering: most dangerous first.
var tierPriority = map[RiskTier]int{
	RiskHigh:   0,
	RiskMedium: 1,
	RiskLow:    2,
}

// Priority returns the sort rank of the tier (high=0, medium=1, low=2).
func (t RiskTier) Priority() int {
	if p, ok := tierPriority[t]; ok {
		return p
	}
	return len(tierPriority)
}

// Box is an axis-aligned bounding box in pixel coordinates.
// Width, Height, CX and CY are derived from the corners, never supplied.
type Box struct {
	X1     int `json:"x1"`
	Y1     int `json:"y1"`
	X2     int `json:"x2"`
	Y2     int `json:"y2"`
	Width  int `json:"width"`
	Height int `json:"height"`
	CX     int `json:"cx"`
	CY     int `json:"cy"`
}

// NewBox truncates float coordinates to integers and derives the rest.
func NewBox(x1, y1, x2, y2 float64) Box {
	b := Box{X1: int(x1), Y1: int(y1), X2: int(x2), Y2: int(y2)}
	b.Width = b.X2 - b.X1
	b.Height = b.Y2 - b.Y1
	b.CX = (b.X1 + b.X2) / 2
	b.CY = (b.Y1 + b.Y2) / 2
	return b
}

// Detection is one recognized object instance within one image.
// Created once at normalization time and immutable thereafter.
type Detection struct {
	ID         int      `json:"id"`
	ClassName  string   `json:"class_name"`
	Confidence float64  `json:"confidence"`
	Risk       RiskTier `json:"risk_level"`
	Box        Box      `json:"box"`
}
