package api

import (
	"context"
	"net/http"

	"github.com/homeweave/dashboard/internal/domain/card"
)

// CardSource supplies the published status cards.
type CardSource interface {
	Snapshot(ctx context.Context) card.StatusResponse
}

// CardsModule serves GET <prefix>/status-cards.
type CardsModule struct {
	Lifecycle
	source CardSource
}

// NewCardsModule serves the cards of source.
func NewCardsModule(source CardSource) *CardsModule {
	return &CardsModule{source: source}
}

// Name implements Module.
func (m *CardsModule) Name() string { return "status_cards" }

// Routes implements Module.
func (m *CardsModule) Routes() []Route {
	return []Route{{Method: http.MethodGet, Path: "/status-cards", Handler: m.list}}
}

func (m *CardsModule) list(ctx context.Context, _ *Request) (any, error) {
	return m.source.Snapshot(ctx), nil
}

// Transform writes the bare {"cards":[...]} body on success; errors use the
// JSON error envelope.
func (m *CardsModule) Transform(status int, result any) Response {
	if status/100 == 2 {
		return jsonResponse(status, result)
	}
	return JSONEnvelope{}.Transform(status, result)
}
