package review

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
)

// DueCardFilter narrows the due-card query.
type DueCardFilter struct {
	// CardTypeCode restricts the result to one card type when non-empty.
	CardTypeCode string
}

// DueCard is a due account card with both sides rendered.
type DueCard struct {
	Card  *domain.AccountCard
	Front string
	Back  string
}

// DueCards is the due-card selection for one request.
type DueCards struct {
	// ReviewedCount is how many distinct cards the account reviewed today,
	// capped at the daily limit.
	ReviewedCount int
	Cards         []DueCard
}

// ReviewResult is the outcome of a committed review.
type ReviewResult struct {
	Success        bool
	NextReviewDate time.Time
	Card           *domain.AccountCard
}

// Stats summarises an account's cards and today's review budget.
type Stats struct {
	TotalCards    int
	NewCards      int
	LearningCards int
	DueToday      int
	ReviewedToday int
	DailyLimit    int
	ByCardType    map[string]int
}

// Service selects due cards and records reviews.
type Service interface {
	// GetDueCards returns the cards the account may review now, at most the
	// remaining daily budget, oldest-due first, with front and back rendered.
	//
	// Cards whose knowledge item or card type cannot be resolved are left out
	// and logged. A card type without a template for a side renders an inline
	// error fragment for that side.
	GetDueCards(ctx context.Context, accountID uuid.UUID, filter DueCardFilter) (*DueCards, error)

	// SubmitReview grades a card, advances its SM-2 schedule and appends a
	// history row, all in one transaction.
	//
	// Returns:
	//   - a domain.ValidationError when quality is outside [0,5]
	//   - ErrCardNotFound when the card does not exist or is not owned by accountID
	//   - a *DailyLimitError when the card was not reviewed today and the budget is spent
	SubmitReview(
		ctx context.Context,
		accountID uuid.UUID,
		cardID uuid.UUID,
		quality domain.Quality,
	) (*ReviewResult, error)

	// GetCard returns one of the account's cards.
	// Returns ErrCardNotFound when the card does not exist or is not owned by accountID.
	GetCard(ctx context.Context, accountID, cardID uuid.UUID) (*domain.AccountCard, error)

	// GetStats returns card counts and today's budget usage for the account.
	GetStats(ctx context.Context, accountID uuid.UUID) (*Stats, error)
}

// Renderer renders one side of a card.
type Renderer interface {
	Render(tpl domain.Template, knowledge domain.Knowledge, related []domain.Knowledge) string
}
