package detect

import "strings"

// Vocabulary holds the two disjoint risk sets of the active model profile.
// Anything in neither set is low risk.
type Vocabulary struct {
	high   map[string]struct{}
	medium map[string]struct{}
}

// NewVocabulary builds a vocabulary from high- and medium-risk class names.
// Names are stored normalized, so callers may pass them in any casing.
func NewVocabulary(high, medium []string) Vocabulary {
	v := Vocabulary{
		high:   make(map[string]struct{}, len(high)),
		medium: make(map[string]struct{}, len(medium)),
	}
	for _, name := range high {
		v.high[normalizeClass(name)] = struct{}{}
	}
	for _, name := range medium {
		v.medium[normalizeClass(name)] = struct{}{}
	}
	return v
}

// Classify maps a class name to its risk tier. Total over any string.
func (v Vocabulary) Classify(className string) RiskTier {
	name := normalizeClass(className)
	if _, ok := v.high[name]; ok {
		return RiskHigh
	}
	if _, ok := v.medium[name]; ok {
		return RiskMedium
	}
	return RiskLow
}

func normalizeClass(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}
