package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/cardtemplate"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/domain/srs"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/store"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxRetries is how many transactions SubmitReview starts before giving
// up on a serialization conflict.
const DefaultMaxRetries = 3

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

// Stores groups the persistence dependencies of the service.
type Stores struct {
	AccountCards  store.AccountCardStore
	ReviewHistory store.ReviewHistoryStore
	Knowledge     store.KnowledgeStore
	CardTypes     store.CardTypeStore
}

// Config holds the tunables of the service.
type Config struct {
	DailyLimit int
	MaxRetries int
}

// Option customises a service at construction.
type Option func(*serviceImpl)

// WithClock replaces time.Now as the source of the current time.
func WithClock(clock func() time.Time) Option {
	return func(s *serviceImpl) {
		if clock != nil {
			s.clock = clock
		}
	}
}

type serviceImpl struct {
	db         *sql.DB
	cards      store.AccountCardStore
	history    store.ReviewHistoryStore
	knowledge  store.KnowledgeStore
	cardTypes  store.CardTypeStore
	renderer   Renderer
	srsService srs.Service
	guard      *DailyLimitGuard
	maxRetries int
	clock      func() time.Time
	logger     *slog.Logger
}

// NewService creates a review Service.
func NewService(
	db *sql.DB,
	stores Stores,
	renderer Renderer,
	srsService srs.Service,
	cfg Config,
	logger *slog.Logger,
	opts ...Option,
) Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if stores.AccountCards == nil {
		panic("account card store cannot be nil")
	}
	if stores.ReviewHistory == nil {
		panic("review history store cannot be nil")
	}
	if stores.Knowledge == nil {
		panic("knowledge store cannot be nil")
	}
	if stores.CardTypes == nil {
		panic("card type store cannot be nil")
	}
	if renderer == nil {
		panic("renderer cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	s := &serviceImpl{
		db:         db,
		cards:      stores.AccountCards,
		history:    stores.ReviewHistory,
		knowledge:  stores.Knowledge,
		cardTypes:  stores.CardTypes,
		renderer:   renderer,
		srsService: srsService,
		maxRetries: cfg.MaxRetries,
		clock:      time.Now,
		logger:     logger.With(slog.String("component", "review_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.guard = NewDailyLimitGuard(s.cards, cfg.DailyLimit, s.clock)

	return s
}

// GetDueCards implements Service.GetDueCards.
func (s *serviceImpl) GetDueCards(
	ctx context.Context,
	accountID uuid.UUID,
	filter DueCardFilter,
) (*DueCards, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := s.clock().UTC()
	limit := s.guard.Limit()

	reviewed, err := s.guard.ReviewedToday(ctx, accountID)
	if err != nil {
		log.Error("failed to count today's reviews",
			slog.String("error", err.Error()),
			slog.String("account_id", accountID.String()))
		return nil, NewGetDueCardsError("failed to count today's reviews", err)
	}

	if reviewed >= limit {
		log.Debug("daily review limit reached",
			slog.String("account_id", accountID.String()),
			slog.Int("reviewed_today", reviewed),
			slog.Int("daily_limit", limit))
		return &DueCards{ReviewedCount: limit, Cards: []DueCard{}}, nil
	}

	cards, err := s.cards.ListDue(ctx, store.DueCardQuery{
		AccountID:    accountID,
		Now:          now,
		Limit:        limit - reviewed,
		CardTypeCode: filter.CardTypeCode,
	})
	if err != nil {
		log.Error("failed to list due cards",
			slog.String("error", err.Error()),
			slog.String("account_id", accountID.String()))
		return nil, NewGetDueCardsError("failed to list due cards", err)
	}

	result := &DueCards{ReviewedCount: reviewed, Cards: make([]DueCard, 0, len(cards))}
	if len(cards) == 0 {
		return result, nil
	}

	catalog, err := s.loadCatalog(ctx, cards)
	if err != nil {
		log.Error("failed to load catalog entries",
			slog.String("error", err.Error()),
			slog.String("account_id", accountID.String()))
		return nil, NewGetDueCardsError("failed to load catalog entries", err)
	}

	for _, card := range cards {
		k, ok := catalog.knowledge[card.KnowledgeCode]
		if !ok {
			log.Warn("skipping due card with unknown knowledge item",
				slog.String("card_id", card.ID.String()),
				slog.String("knowledge_code", card.KnowledgeCode))
			continue
		}
		ct, ok := catalog.cardTypes[card.CardTypeCode]
		if !ok || ct == nil {
			log.Warn("skipping due card with unknown card type",
				slog.String("card_id", card.ID.String()),
				slog.String("card_type_code", card.CardTypeCode))
			continue
		}

		related := catalog.related[card.KnowledgeCode]
		result.Cards = append(result.Cards, DueCard{
			Card:  card,
			Front: s.renderSide(ct, domain.TemplateRoleFront, k, related),
			Back:  s.renderSide(ct, domain.TemplateRoleBack, k, related),
		})
	}

	log.Debug("selected due cards",
		slog.String("account_id", accountID.String()),
		slog.Int("reviewed_today", reviewed),
		slog.Int("due", len(result.Cards)))

	return result, nil
}

type catalogEntries struct {
	knowledge map[string]domain.Knowledge
	related   map[string][]domain.Knowledge
	cardTypes map[string]*domain.CardType
}

// loadCatalog fetches every knowledge item, related item list and card type
// referenced by cards, one batch query each, concurrently.
func (s *serviceImpl) loadCatalog(ctx context.Context, cards []*domain.AccountCard) (*catalogEntries, error) {
	knowledgeCodes := make([]string, 0, len(cards))
	cardTypeCodes := make([]string, 0, len(cards))
	seenK := make(map[string]struct{}, len(cards))
	seenT := make(map[string]struct{}, len(cards))
	for _, c := range cards {
		if _, ok := seenK[c.KnowledgeCode]; !ok {
			seenK[c.KnowledgeCode] = struct{}{}
			knowledgeCodes = append(knowledgeCodes, c.KnowledgeCode)
		}
		if _, ok := seenT[c.CardTypeCode]; !ok {
			seenT[c.CardTypeCode] = struct{}{}
			cardTypeCodes = append(cardTypeCodes, c.CardTypeCode)
		}
	}

	var entries catalogEntries
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries.knowledge, err = s.knowledge.GetByCodes(gctx, knowledgeCodes)
		if err != nil {
			return fmt.Errorf("failed to load knowledge: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		entries.related, err = s.knowledge.GetRelated(gctx, knowledgeCodes)
		if err != nil {
			return fmt.Errorf("failed to load related knowledge: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		entries.cardTypes, err = s.cardTypes.GetByCodes(gctx, cardTypeCodes)
		if err != nil {
			return fmt.Errorf("failed to load card types: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &entries, nil
}

func (s *serviceImpl) renderSide(
	ct *domain.CardType,
	role domain.TemplateRole,
	k domain.Knowledge,
	related []domain.Knowledge,
) string {
	tpl, ok := ct.Template(role)
	if !ok {
		return cardtemplate.MissingTemplateFragment(ct.Code, role)
	}
	return s.renderer.Render(tpl, k, related)
}

// SubmitReview implements Service.SubmitReview.
func (s *serviceImpl) SubmitReview(
	ctx context.Context,
	accountID uuid.UUID,
	cardID uuid.UUID,
	quality domain.Quality,
) (*ReviewResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("processing review",
		slog.String("account_id", accountID.String()),
		slog.String("card_id", cardID.String()),
		slog.Int("quality", int(quality)))

	if err := quality.Validate(); err != nil {
		log.Warn("invalid review quality",
			slog.String("card_id", cardID.String()),
			slog.Int("quality", int(quality)))
		return nil, err
	}

	now := s.clock().UTC()

	var result *ReviewResult
	err := store.RunInTransactionWithRetry(ctx, s.db, s.maxRetries, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cards.WithTx(tx)
		history := s.history.WithTx(tx)

		card, err := cards.GetForUpdate(ctx, cardID)
		if err != nil {
			if store.IsNotFoundError(err) {
				log.Warn("card not found for review",
					slog.String("account_id", accountID.String()),
					slog.String("card_id", cardID.String()))
				return ErrCardNotFound
			}
			return fmt.Errorf("failed to lock card: %w", err)
		}

		if card.AccountID != accountID {
			log.Warn("account does not own card",
				slog.String("account_id", accountID.String()),
				slog.String("card_id", cardID.String()))
			return ErrCardNotFound
		}

		if err := s.guard.WithStore(cards).CheckAdmission(ctx, accountID, card, now); err != nil {
			return err
		}

		next, err := s.srsService.NextState(card.Schedule(), quality, now)
		if err != nil {
			return fmt.Errorf("failed to calculate next review: %w", err)
		}
		card.ApplySchedule(next, now)

		if err := card.Validate(); err != nil {
			return fmt.Errorf("scheduled card is invalid: %w", err)
		}
		if err := cards.UpdateSchedule(ctx, card); err != nil {
			return fmt.Errorf("failed to update card schedule: %w", err)
		}

		entry, err := domain.NewReviewHistory(card.ID, quality, now)
		if err != nil {
			return fmt.Errorf("failed to build review history: %w", err)
		}
		if err := history.Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to record review history: %w", err)
		}

		result = &ReviewResult{Success: true, NextReviewDate: card.NextReviewDate, Card: card}
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrCardNotFound) || errors.Is(err, ErrDailyLimitExceeded) {
			return nil, err
		}

		log.Error("failed to submit review",
			slog.String("error", err.Error()),
			slog.String("account_id", accountID.String()),
			slog.String("card_id", cardID.String()))
		return nil, NewSubmitReviewError("failed to submit review", err)
	}

	log.Debug("review committed",
		slog.String("card_id", cardID.String()),
		slog.Int("quality", int(quality)),
		slog.Float64("ease_factor", result.Card.EaseFactor),
		slog.Int("interval_days", result.Card.IntervalDays),
		slog.Time("next_review_date", result.NextReviewDate))

	return result, nil
}

// GetCard implements Service.GetCard.
func (s *serviceImpl) GetCard(ctx context.Context, accountID, cardID uuid.UUID) (*domain.AccountCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrCardNotFound
		}
		log.Error("failed to get card",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, NewGetCardError("failed to get card", err)
	}

	if card.AccountID != accountID {
		log.Warn("account does not own card",
			slog.String("account_id", accountID.String()),
			slog.String("card_id", cardID.String()))
		return nil, ErrCardNotFound
	}

	return card, nil
}

// GetStats implements Service.GetStats.
func (s *serviceImpl) GetStats(ctx context.Context, accountID uuid.UUID) (*Stats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := s.clock().UTC()

	counts, err := s.cards.Stats(ctx, accountID, now)
	if err != nil {
		log.Error("failed to aggregate card stats",
			slog.String("error", err.Error()),
			slog.String("account_id", accountID.String()))
		return nil, NewGetStatsError("failed to aggregate card stats", err)
	}

	reviewed, err := s.guard.ReviewedToday(ctx, accountID)
	if err != nil {
		log.Error("failed to count today's reviews",
			slog.String("error", err.Error()),
			slog.String("account_id", accountID.String()))
		return nil, NewGetStatsError("failed to count today's reviews", err)
	}

	byType := counts.ByCardType
	if byType == nil {
		byType = map[string]int{}
	}

	return &Stats{
		TotalCards:    counts.Total,
		NewCards:      counts.New,
		LearningCards: counts.Learning,
		DueToday:      counts.DueToday,
		ReviewedToday: reviewed,
		DailyLimit:    s.guard.Limit(),
		ByCardType:    byType,
	}, nil
}
