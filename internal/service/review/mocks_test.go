package review_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockAccountCardStore is a mock implementation of store.AccountCardStore.
// WithTx returns the mock itself so expectations hold inside transactions.
type MockAccountCardStore struct {
	mock.Mock
}

func (m *MockAccountCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.AccountCard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountCard), args.Error(1)
}

func (m *MockAccountCardStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.AccountCard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountCard), args.Error(1)
}

func (m *MockAccountCardStore) CountReviewedBetween(
	ctx context.Context,
	accountID uuid.UUID,
	from, to time.Time,
) (int, error) {
	args := m.Called(ctx, accountID, from, to)
	return args.Int(0), args.Error(1)
}

func (m *MockAccountCardStore) ListDue(ctx context.Context, q store.DueCardQuery) ([]*domain.AccountCard, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AccountCard), args.Error(1)
}

func (m *MockAccountCardStore) UpdateSchedule(ctx context.Context, card *domain.AccountCard) error {
	args := m.Called(ctx, card)
	return args.Error(0)
}

func (m *MockAccountCardStore) Stats(
	ctx context.Context,
	accountID uuid.UUID,
	now time.Time,
) (*store.AccountCardStats, error) {
	args := m.Called(ctx, accountID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.AccountCardStats), args.Error(1)
}

func (m *MockAccountCardStore) WithTx(_ *sql.Tx) store.AccountCardStore {
	return m
}

// MockReviewHistoryStore is a mock implementation of store.ReviewHistoryStore.
type MockReviewHistoryStore struct {
	mock.Mock
}

func (m *MockReviewHistoryStore) Create(ctx context.Context, history *domain.ReviewHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockReviewHistoryStore) WithTx(_ *sql.Tx) store.ReviewHistoryStore {
	return m
}

// MockKnowledgeStore is a mock implementation of store.KnowledgeStore.
type MockKnowledgeStore struct {
	mock.Mock
}

func (m *MockKnowledgeStore) GetByCodes(ctx context.Context, codes []string) (map[string]domain.Knowledge, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Knowledge), args.Error(1)
}

func (m *MockKnowledgeStore) GetRelated(ctx context.Context, codes []string) (map[string][]domain.Knowledge, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]domain.Knowledge), args.Error(1)
}

// MockCardTypeStore is a mock implementation of store.CardTypeStore.
type MockCardTypeStore struct {
	mock.Mock
}

func (m *MockCardTypeStore) GetByCode(ctx context.Context, code string) (*domain.CardType, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CardType), args.Error(1)
}

func (m *MockCardTypeStore) GetByCodes(ctx context.Context, codes []string) (map[string]*domain.CardType, error) {
	args := m.Called(ctx, codes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*domain.CardType), args.Error(1)
}

// stubRenderer renders "<role template code>:<knowledge code>".
type stubRenderer struct{}

func (stubRenderer) Render(tpl domain.Template, k domain.Knowledge, related []domain.Knowledge) string {
	return tpl.Code + ":" + k.Code
}
