package api

import (
	"time"

	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/service/review"
)

// SubmitReviewRequest is the body of POST /api/cards/{id}/review.
type SubmitReviewRequest struct {
	Quality *int `json:"quality" validate:"required,min=0,max=5"`
}

// SubmitReviewResponse is returned after a committed review.
type SubmitReviewResponse struct {
	Success    bool   `json:"success"`
	NextReview string `json:"nextReview"`
}

// CardResponse represents an account card without rendered content.
type CardResponse struct {
	ID             string     `json:"id"`
	KnowledgeCode  string     `json:"knowledgeCode"`
	CardTypeCode   string     `json:"cardTypeCode"`
	EaseFactor     float64    `json:"easeFactor"`
	IntervalDays   int        `json:"intervalDays"`
	Repetitions    int        `json:"repetitions"`
	NextReviewDate time.Time  `json:"nextReviewDate"`
	LastReviewedAt *time.Time `json:"lastReviewedAt"`
}

// CardTemplates holds the rendered sides of a due card.
type CardTemplates struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// DueCardResponse is a due card with its rendered sides.
type DueCardResponse struct {
	CardResponse
	Templates CardTemplates `json:"templates"`
}

// DueCardsResponse is the body of GET /api/cards/due.
type DueCardsResponse struct {
	ReviewedCount int               `json:"reviewedCount"`
	Cards         []DueCardResponse `json:"cards"`
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	TotalCards    int            `json:"totalCards"`
	NewCards      int            `json:"newCards"`
	LearningCards int            `json:"learningCards"`
	DueToday      int            `json:"dueToday"`
	ReviewedToday int            `json:"reviewedToday"`
	DailyLimit    int            `json:"dailyLimit"`
	ByCardType    map[string]int `json:"byCardType"`
}

func cardToResponse(card *domain.AccountCard) CardResponse {
	return CardResponse{
		ID:             card.ID.String(),
		KnowledgeCode:  card.KnowledgeCode,
		CardTypeCode:   card.CardTypeCode,
		EaseFactor:     card.EaseFactor,
		IntervalDays:   card.IntervalDays,
		Repetitions:    card.Repetitions,
		NextReviewDate: card.NextReviewDate.UTC(),
		LastReviewedAt: card.LastReviewedAt,
	}
}

func dueCardsToResponse(due *review.DueCards) DueCardsResponse {
	resp := DueCardsResponse{
		ReviewedCount: due.ReviewedCount,
		Cards:         make([]DueCardResponse, 0, len(due.Cards)),
	}
	for _, c := range due.Cards {
		resp.Cards = append(resp.Cards, DueCardResponse{
			CardResponse: cardToResponse(c.Card),
			Templates:    CardTemplates{Front: c.Front, Back: c.Back},
		})
	}
	return resp
}

func statsToResponse(stats *review.Stats) StatsResponse {
	return StatsResponse{
		TotalCards:    stats.TotalCards,
		NewCards:      stats.NewCards,
		LearningCards: stats.LearningCards,
		DueToday:      stats.DueToday,
		ReviewedToday: stats.ReviewedToday,
		DailyLimit:    stats.DailyLimit,
		ByCardType:    stats.ByCardType,
	}
}
