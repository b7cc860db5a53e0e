package store

import (
	"context"

	"github.com/phrazzld/recall-api/internal/domain"
)

// KnowledgeStore is the read-only view of the knowledge catalog.
type KnowledgeStore interface {
	// GetByCodes returns the knowledge items for codes keyed by code.
	// Unknown codes are absent from the map; this is not an error.
	GetByCodes(ctx context.Context, codes []string) (map[string]domain.Knowledge, error)

	// GetRelated returns, for each source code, the items it links to through
	// knowledge relationships, in one query for all codes.
	GetRelated(ctx context.Context, codes []string) (map[string][]domain.Knowledge, error)
}

// CardTypeStore is the read-only view of the card catalog.
type CardTypeStore interface {
	// GetByCode returns the card type with its role to template mapping.
	// Returns ErrCardTypeNotFound if the card type does not exist.
	GetByCode(ctx context.Context, code string) (*domain.CardType, error)

	// GetByCodes returns card types keyed by code. Unknown codes are absent.
	GetByCodes(ctx context.Context, codes []string) (map[string]*domain.CardType, error)
}
