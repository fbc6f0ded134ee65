// Package scoring turns a finished quiz into a score summary.
package scoring

import "math"

// Summary aggregates one playthrough.
type Summary struct {
	Score      int `json:"score"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
	Unanswered int `json:"unanswered"`
	BestStreak int `json:"best_streak"`
}

// Summarize compares the recorded answers with the canonical ones position by
// position. An empty answer means the question timed out. Matching is exact.
func Summarize(answers, canonical []string) Summary {
	s := Summary{Total: len(canonical)}
	streak := 0
	for i, want := range canonical {
		var got string
		if i < len(answers) {
			got = answers[i]
		}
		if got == "" {
			s.Unanswered++
		}
		if got == want {
			s.Score++
			streak++
			s.BestStreak = max(s.BestStreak, streak)
			continue
		}
		streak = 0
	}
	s.Percentage = Percentage(s.Score, s.Total)
	return s
}

// Percentage rounds score/total to the nearest whole percent.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}
