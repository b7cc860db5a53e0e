package domain

// Quality is the learner's 0-5 grading of how well an item was recalled.
type Quality int

// Quality bounds and the pass threshold used by SM-2.
const (
	MinQuality  Quality = 0
	MaxQuality  Quality = 5
	PassQuality Quality = 3
)

// Validate returns a ValidationError naming the quality field when q is
// outside [0,5].
func (q Quality) Validate() error {
	if q < MinQuality || q > MaxQuality {
		return NewValidationError("quality", "must be between 0 and 5", ErrInvalidQuality)
	}
	return nil
}
