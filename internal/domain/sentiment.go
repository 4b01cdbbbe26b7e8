package domain

// SentimentLabel classifies a sentiment score
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "Positive"
	SentimentNeutral  SentimentLabel = "Neutral"
	SentimentNegative SentimentLabel = "Negative"
)

// String returns string representation
func (l SentimentLabel) String() string {
	return string(l)
}

// Valid checks if the label is one of the known values
func (l SentimentLabel) Valid() bool {
	switch l {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Label thresholds on the canonical [0,1] score scale.
// Scores at or above the positive bound read Positive, at or below the
// negative bound read Negative, anything between reads Neutral.
const (
	PositiveBound = 0.6
	NegativeBound = 0.4
)

// LabelForScore derives the sentiment label from a [0,1] score.
// The same rule labels individual posts and the overall stats average.
func LabelForScore(score float64) SentimentLabel {
	switch {
	case score >= PositiveBound:
		return SentimentPositive
	case score <= NegativeBound:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
