package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/recall-api/internal/domain"
)

// Common errors
var (
	ErrInvalidQuality    = errors.New("review quality must be between 0 and 5")
	ErrInvalidEaseFactor = errors.New("ease factor below minimum")
	ErrInvalidState      = errors.New("interval and repetitions cannot be negative")
)

// Service defines the interface for SM-2 scheduling operations
type Service interface {
	// NextState computes the schedule that follows a review graded quality at now.
	// It is pure: the same inputs always yield the same schedule.
	NextState(current domain.Schedule, quality domain.Quality, now time.Time) (domain.Schedule, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{
		params: params,
	}
}

// NextState implements the Service interface
func (s *defaultService) NextState(
	current domain.Schedule,
	quality domain.Quality,
	now time.Time,
) (domain.Schedule, error) {
	if quality < domain.MinQuality || quality > domain.MaxQuality {
		return domain.Schedule{}, ErrInvalidQuality
	}
	if current.EaseFactor < s.params.MinEaseFactor {
		return domain.Schedule{}, ErrInvalidEaseFactor
	}
	if current.IntervalDays < 0 || current.Repetitions < 0 {
		return domain.Schedule{}, ErrInvalidState
	}

	return calculateNextSchedule(current, quality, now, s.params), nil
}
