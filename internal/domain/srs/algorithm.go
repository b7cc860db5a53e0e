package srs

import (
	"math"
	"time"

	"github.com/phrazzld/recall-api/internal/domain"
)

// calculateNewEaseFactor applies the SM-2 ease adjustment for quality.
//
// The adjustment is 0.1 - (5-q)*(0.08 + (5-q)*0.02): +0.10 for a perfect
// recall, 0 for quality 4, and increasingly negative below that. The result is
// clamped to params.MinEaseFactor and rounded to params.EasePrecision places.
func calculateNewEaseFactor(currentEF float64, quality domain.Quality, params *Params) float64 {
	miss := float64(domain.MaxQuality - quality)
	newEF := currentEF + (0.1 - miss*(0.08+miss*0.02))

	if params.EasePrecision >= 0 {
		newEF = roundTo(newEF, params.EasePrecision)
	}

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}

	return newEF
}

// calculateNewInterval derives the next interval in days from the current state.
//
// Successful reviews use the fixed first and second intervals, then grow the
// previous interval by the previous ease factor. Failed reviews always fall
// back to params.LapseInterval. The interval is never incremented in place and
// never exceeds params.MaxInterval.
func calculateNewInterval(
	currentInterval int,
	repetitions int,
	easeFactor float64,
	quality domain.Quality,
	params *Params,
) int {
	if quality < params.PassThreshold {
		return params.LapseInterval
	}

	var interval int
	switch repetitions {
	case 0:
		interval = params.FirstInterval
	case 1:
		interval = params.SecondInterval
	default:
		interval = int(math.Round(float64(currentInterval) * easeFactor))
	}

	if params.MaxInterval > 0 && interval > params.MaxInterval {
		interval = params.MaxInterval
	}
	return interval
}

// calculateNewRepetitions counts consecutive successful reviews.
func calculateNewRepetitions(repetitions int, quality domain.Quality, params *Params) int {
	if quality < params.PassThreshold {
		return 0
	}
	return repetitions + 1
}

// calculateNextReviewDate returns midnight UTC of the day interval days after now.
func calculateNextReviewDate(interval int, now time.Time) time.Time {
	return domain.StartOfUTCDay(now.UTC().AddDate(0, 0, interval))
}

// calculateNextSchedule computes the full next state without touching current.
// The interval is derived from the ease factor in effect before this review.
func calculateNextSchedule(
	current domain.Schedule,
	quality domain.Quality,
	now time.Time,
	params *Params,
) domain.Schedule {
	interval := calculateNewInterval(current.IntervalDays, current.Repetitions, current.EaseFactor, quality, params)

	return domain.Schedule{
		EaseFactor:     calculateNewEaseFactor(current.EaseFactor, quality, params),
		IntervalDays:   interval,
		Repetitions:    calculateNewRepetitions(current.Repetitions, quality, params),
		NextReviewDate: calculateNextReviewDate(interval, now),
	}
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
