package queries

import (
	"context"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/history"
)

// DefaultHistoryLimit is used when a query asks for no limit.
const DefaultHistoryLimit = 14

// ScoreHistoryQuery contains the parameters for reading history.
type ScoreHistoryQuery struct {
	Limit int
}

// ScoreHistory is the stored snapshots and engine runs, newest first.
type ScoreHistory struct {
	Snapshots []history.ScoreSnapshot        `json:"snapshots"`
	Records   []history.ReconciliationRecord `json:"records"`
}

// ScoreHistoryHandler handles the ScoreHistoryQuery.
type ScoreHistoryHandler struct {
	repo history.Repository
}

// NewScoreHistoryHandler creates a new ScoreHistoryHandler.
func NewScoreHistoryHandler(repo history.Repository) *ScoreHistoryHandler {
	if repo == nil {
		repo = history.NopRepository{}
	}
	return &ScoreHistoryHandler{repo: repo}
}

// Handle executes the ScoreHistoryQuery.
func (h *ScoreHistoryHandler) Handle(ctx context.Context, query ScoreHistoryQuery) (ScoreHistory, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	snapshots, err := h.repo.ListSnapshots(ctx, limit)
	if err != nil {
		return ScoreHistory{}, err
	}
	records, err := h.repo.ListRecords(ctx, limit)
	if err != nil {
		return ScoreHistory{}, err
	}
	if snapshots == nil {
		snapshots = []history.ScoreSnapshot{}
	}
	if records == nil {
		records = []history.ReconciliationRecord{}
	}
	return ScoreHistory{Snapshots: snapshots, Records: records}, nil
}
