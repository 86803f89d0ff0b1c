package queries

import "context"

// KarmaReader returns the backend's productivity trend.
type KarmaReader interface {
	KarmaTrend(ctx context.Context) (string, error)
}

// KarmaTrendHandler passes the backend's karma trend through.
type KarmaTrendHandler struct {
	karma KarmaReader
}

// NewKarmaTrendHandler creates a new KarmaTrendHandler.
func NewKarmaTrendHandler(karma KarmaReader) *KarmaTrendHandler {
	return &KarmaTrendHandler{karma: karma}
}

// Handle executes the query.
func (h *KarmaTrendHandler) Handle(ctx context.Context) (string, error) {
	return h.karma.KarmaTrend(ctx)
}
