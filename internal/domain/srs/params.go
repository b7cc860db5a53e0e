package srs

import "github.com/phrazzld/recall-api/internal/domain"

// DefaultMaxInterval caps the review interval at roughly one hundred years so
// next review dates stay inside the range Postgres timestamps can store.
const DefaultMaxInterval = 36500

// Params defines all configurable parameters for the SM-2 algorithm
type Params struct {
	// Ease factor floor applied after every adjustment
	MinEaseFactor float64

	// Fixed intervals for the first two successful reviews
	FirstInterval  int
	SecondInterval int

	// Interval after any failed review
	LapseInterval int

	// Lowest quality that counts as a successful recall
	PassThreshold domain.Quality

	// Decimal places the ease factor is rounded to; negative disables rounding
	EasePrecision int

	// Upper bound on any computed interval, in days
	MaxInterval int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	MinEaseFactor  float64
	FirstInterval  int
	SecondInterval int
	LapseInterval  int
	PassThreshold  domain.Quality
	EasePrecision  *int
	MaxInterval    int
}

// NewDefaultParams creates a new Params instance with the classic SM-2 values
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:  domain.MinEaseFactor,
		FirstInterval:  1,
		SecondInterval: 6,
		LapseInterval:  1,
		PassThreshold:  domain.PassQuality,
		EasePrecision:  2,
		MaxInterval:    DefaultMaxInterval,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.FirstInterval > 0 {
		params.FirstInterval = config.FirstInterval
	}
	if config.SecondInterval > 0 {
		params.SecondInterval = config.SecondInterval
	}
	if config.LapseInterval > 0 {
		params.LapseInterval = config.LapseInterval
	}
	if config.PassThreshold > 0 && config.PassThreshold <= domain.MaxQuality {
		params.PassThreshold = config.PassThreshold
	}
	if config.MaxInterval > 0 {
		params.MaxInterval = config.MaxInterval
	}
	if config.EasePrecision != nil {
		params.EasePrecision = *config.EasePrecision
	}

	return params
}
