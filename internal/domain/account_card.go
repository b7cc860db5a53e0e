package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MinEaseFactor is the floor SM-2 clamps every ease factor to.
const MinEaseFactor = 1.3

// DefaultEaseFactor is the ease factor a freshly distributed card starts with.
const DefaultEaseFactor = 2.5

// AccountCard validation errors
var (
	ErrAccountCardIDEmpty        = errors.New("account card ID cannot be empty")
	ErrAccountCardAccountIDEmpty = errors.New("account card account ID cannot be empty")
	ErrAccountCardKnowledgeEmpty = errors.New("account card knowledge code cannot be empty")
	ErrAccountCardCardTypeEmpty  = errors.New("account card card type code cannot be empty")
	ErrEaseFactorTooLow          = errors.New("ease factor must be at least 1.3")
	ErrNegativeInterval          = errors.New("interval days cannot be negative")
	ErrNegativeRepetitions       = errors.New("repetitions cannot be negative")
)

// AccountCard is one learner's relationship to one (knowledge item, card type)
// pair, together with its SM-2 scheduling state.
type AccountCard struct {
	ID             uuid.UUID  `json:"id"`
	AccountID      uuid.UUID  `json:"account_id"`
	KnowledgeCode  string     `json:"knowledge_code"`
	CardTypeCode   string     `json:"card_type_code"`
	EaseFactor     float64    `json:"ease_factor"`
	IntervalDays   int        `json:"interval_days"`
	Repetitions    int        `json:"repetitions"`
	NextReviewDate time.Time  `json:"next_review_date"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewAccountCard creates a card that is due immediately with the default
// scheduling state. Card distribution happens outside this service; the
// constructor exists for seeding and tests.
func NewAccountCard(accountID uuid.UUID, knowledgeCode, cardTypeCode string, now time.Time) (*AccountCard, error) {
	now = now.UTC()
	card := &AccountCard{
		ID:             uuid.New(),
		AccountID:      accountID,
		KnowledgeCode:  knowledgeCode,
		CardTypeCode:   cardTypeCode,
		EaseFactor:     DefaultEaseFactor,
		IntervalDays:   0,
		Repetitions:    0,
		NextReviewDate: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}
	return card, nil
}

// Validate checks the identity fields and the scheduling invariants.
func (c *AccountCard) Validate() error {
	if c.ID == uuid.Nil {
		return ErrAccountCardIDEmpty
	}
	if c.AccountID == uuid.Nil {
		return ErrAccountCardAccountIDEmpty
	}
	if c.KnowledgeCode == "" {
		return ErrAccountCardKnowledgeEmpty
	}
	if c.CardTypeCode == "" {
		return ErrAccountCardCardTypeEmpty
	}
	if c.EaseFactor < MinEaseFactor {
		return ErrEaseFactorTooLow
	}
	if c.IntervalDays < 0 {
		return ErrNegativeInterval
	}
	if c.Repetitions < 0 {
		return ErrNegativeRepetitions
	}
	return nil
}

// ReviewedOn reports whether the card's last grading falls inside day.
func (c *AccountCard) ReviewedOn(day UTCDay) bool {
	return c.LastReviewedAt != nil && day.Contains(*c.LastReviewedAt)
}

// ApplySchedule copies a computed schedule onto the card and stamps the
// review time. The receiver is modified in place.
func (c *AccountCard) ApplySchedule(s Schedule, reviewedAt time.Time) {
	reviewedAt = reviewedAt.UTC()
	c.EaseFactor = s.EaseFactor
	c.IntervalDays = s.IntervalDays
	c.Repetitions = s.Repetitions
	c.NextReviewDate = s.NextReviewDate
	c.LastReviewedAt = &reviewedAt
	c.UpdatedAt = reviewedAt
}

// Schedule returns the card's current scheduling state.
func (c *AccountCard) Schedule() Schedule {
	return Schedule{
		EaseFactor:     c.EaseFactor,
		IntervalDays:   c.IntervalDays,
		Repetitions:    c.Repetitions,
		NextReviewDate: c.NextReviewDate,
	}
}

// Schedule is the SM-2 state carried between reviews.
type Schedule struct {
	EaseFactor     float64
	IntervalDays   int
	Repetitions    int
	NextReviewDate time.Time
}
