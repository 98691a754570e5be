// Package card holds the status card data model and the board apps publish to.
package card

import (
	"encoding/json"
)

// Card is an opaque, server-supplied card descriptor. It is passed through
// untouched; only the renderer interprets it.
type Card = json.RawMessage

// StatusResponse is the body of GET /api/status-cards.
type StatusResponse struct {
	Cards []Card `json:"cards"`
}
