package service

import "math"

// AggregateRating averages parent-given ratings to one decimal place, matching the
// rounding the user store applies when it recomputes a rating in SQL.
// It returns (0, 0) when there is nothing to aggregate.
func AggregateRating(parentRatings []int) (float64, int) {
	if len(parentRatings) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range parentRatings {
		sum += r
	}
	mean := float64(sum) / float64(len(parentRatings))
	return math.Round(mean*10) / 10, len(parentRatings)
}
