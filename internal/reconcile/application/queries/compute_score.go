package queries

import (
	"context"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/services"
)

// Scorer computes the daily score.
type Scorer interface {
	Breakdown(ctx context.Context) (services.ScoreBreakdown, error)
}

// ComputeScoreHandler returns today's score with its inputs.
type ComputeScoreHandler struct {
	scorer Scorer
}

// NewComputeScoreHandler creates a new ComputeScoreHandler.
func NewComputeScoreHandler(scorer Scorer) *ComputeScoreHandler {
	return &ComputeScoreHandler{scorer: scorer}
}

// Handle executes the query.
func (h *ComputeScoreHandler) Handle(ctx context.Context) (services.ScoreBreakdown, error) {
	return h.scorer.Breakdown(ctx)
}
