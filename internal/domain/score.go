package domain

import "math"

// Score counts correct answers. The score is always derived from the answer
// records, never stored independently.
func Score(answers []AnswerRecord) int {
	n := 0
	for _, a := range answers {
		if a.IsCorrect {
			n++
		}
	}
	return n
}

// Percentage returns the rounded percentage of correct answers out of total.
// A total of zero is treated as 0%.
func Percentage(answers []AnswerRecord, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(Score(answers)) / float64(total)))
}
