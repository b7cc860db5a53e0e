package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/recall-api/internal/api/shared"
	"github.com/phrazzld/recall-api/internal/domain"
	"github.com/phrazzld/recall-api/internal/platform/logger"
	"github.com/phrazzld/recall-api/internal/service/review"
)

// CardHandler handles card review HTTP requests
type CardHandler struct {
	reviewService review.Service
	logger        *slog.Logger
}

// NewCardHandler creates a new CardHandler
func NewCardHandler(reviewService review.Service, logger *slog.Logger) *CardHandler {
	if reviewService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("reviewService cannot be nil for CardHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CardHandler{
		reviewService: reviewService,
		logger:        logger.With(slog.String("component", "card_handler")),
	}
}

// GetDueCards handles GET /cards/due requests.
// The optional card_type_code query parameter restricts the card type.
func (h *CardHandler) GetDueCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	accountID, ok := requireAccountID(w, r, log)
	if !ok {
		return
	}

	filter := review.DueCardFilter{CardTypeCode: r.URL.Query().Get("card_type_code")}

	due, err := h.reviewService.GetDueCards(r.Context(), accountID, filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get due cards")
		return
	}

	log.Debug("returning due cards",
		slog.Int("reviewed_count", due.ReviewedCount),
		slog.Int("cards", len(due.Cards)))
	shared.RespondWithJSON(w, r, http.StatusOK, dueCardsToResponse(due))
}

// SubmitReview handles POST /cards/{id}/review requests.
// It grades the card and advances its schedule.
func (h *CardHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	accountID, cardID, ok := handleAccountIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.reviewService.SubmitReview(r.Context(), accountID, cardID, domain.Quality(*req.Quality))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit review")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, SubmitReviewResponse{
		Success:    result.Success,
		NextReview: result.NextReviewDate.UTC().Format(time.RFC3339),
	})
}

// GetCard handles GET /cards/{id} requests.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	accountID, cardID, ok := handleAccountIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	card, err := h.reviewService.GetCard(r.Context(), accountID, cardID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get card")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// GetStats handles GET /stats requests.
func (h *CardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	accountID, ok := requireAccountID(w, r, log)
	if !ok {
		return
	}

	stats, err := h.reviewService.GetStats(r.Context(), accountID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get statistics")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, statsToResponse(stats))
}
