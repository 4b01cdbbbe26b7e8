// Package sentiment implements the naive keyword-based sentiment scorer.
// It is a pure, total function: any input text maps to a score in [0,1]
// and a label, with no failure modes.
package sentiment

import (
	"strings"

	"coinwhisperer/internal/domain"
)

// NeutralScore is returned when the text contains no sentiment keywords
const NeutralScore = 0.5

var positiveKeywords = []string{
	"bullish", "moon", "gains", "profit", "up", "rising", "soar", "skyrocket",
	"great", "good", "excellent", "amazing", "awesome", "fantastic", "wonderful",
	"incredible", "potential", "opportunity", "strong", "growth", "buy", "hodl",
	"hold", "diamond hands", "green", "rally", "support", "success", "winning",
	"breakthrough", "surge", "rocket", "🚀", "💎", "👍", "💪", "🔥", "💰",
}

var negativeKeywords = []string{
	"bearish", "crash", "dump", "fall", "drop", "plummet", "collapse", "tank",
	"bad", "terrible", "horrible", "awful", "disappointing", "weak", "sell",
	"selling", "sold", "scam", "fraud", "fake", "ponzi", "bubble", "fear",
	"worried", "worry", "concern", "red", "loss", "losing", "fail", "failure",
	"down", "bear", "death", "broke", "worthless", "👎", "😱", "💩",
}

// Score analyzes text and returns a sentiment score in [0,1] together with
// its label. Matching is case-insensitive substring containment, so "update"
// fires the keyword "up" and "incredible" fires both "incredible" and "red".
// Each distinct keyword counts at most once regardless of how many times it
// occurs.
func Score(text string) (float64, domain.SentimentLabel) {
	lower := strings.ToLower(text)

	positive := countMatches(lower, positiveKeywords)
	negative := countMatches(lower, negativeKeywords)

	total := positive + negative
	if total == 0 {
		return NeutralScore, domain.SentimentNeutral
	}

	score := float64(positive) / float64(total)
	return score, domain.LabelForScore(score)
}

// countMatches counts distinct keywords contained in the text
func countMatches(lower string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	return count
}
