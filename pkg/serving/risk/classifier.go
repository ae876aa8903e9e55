// Package risk buckets progression scores into risk tiers.
package risk

type Level string

const (
	Low    Level = "LOW"
	Medium Level = "MEDIUM"
	High   Level = "HIGH"
)

// Lower bounds are inclusive: 120 is MEDIUM and 200 is HIGH.
const (
	MediumThreshold = 120.0
	HighThreshold   = 200.0
)

func Classify(score float64) Level {
	switch {
	case score < MediumThreshold:
		return Low
	case score < HighThreshold:
		return Medium
	default:
		return High
	}
}

func (l Level) Valid() bool {
	switch l {
	case Low, Medium, High:
		return true
	}
	return false
}

func (l Level) String() string {
	return string(l)
}

// Levels lists every tier in ascending order.
func Levels() []Level {
	return []Level{Low, Medium, High}
}
