package card

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/homeweave/dashboard/internal/domain/fault"
	"github.com/homeweave/dashboard/pkg/metrics"
)

type key struct {
	appURL string
	cardID string
}

type entry struct {
	key  key
	card Card
}

// Board is the in-memory ordered set of published cards.
// Publishing an existing (app, id) pair replaces the card in place.
type Board struct {
	mu      sync.RWMutex
	entries []entry
	index   map[key]int
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{index: make(map[key]int)}
}

// Publish adds or replaces the card appURL/cardID.
func (b *Board) Publish(_ context.Context, appURL, cardID string, c Card) error {
	if strings.TrimSpace(appURL) == "" {
		return fault.BadArguments("app_url")
	}
	if strings.TrimSpace(cardID) == "" {
		return fault.BadArguments("card_id")
	}
	if !json.Valid(c) {
		return fault.BadArguments("card")
	}
	cp := make(Card, len(c))
	copy(cp, c)

	b.mu.Lock()
	defer b.mu.Unlock()

	k := key{appURL: appURL, cardID: cardID}
	if i, ok := b.index[k]; ok {
		b.entries[i].card = cp
		return nil
	}
	b.index[k] = len(b.entries)
	b.entries = append(b.entries, entry{key: k, card: cp})
	metrics.UpdateCardsPublished(len(b.entries))
	return nil
}

// Withdraw removes appURL/cardID. Unknown cards yield ObjectNotFound.
func (b *Board) Withdraw(_ context.Context, appURL, cardID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := key{appURL: appURL, cardID: cardID}
	i, ok := b.index[k]
	if !ok {
		return fault.ObjectNotFound(cardID)
	}
	b.entries = append(b.entries[:i], b.entries[i+1:]...)
	delete(b.index, k)
	for j := i; j < len(b.entries); j++ {
		b.index[b.entries[j].key] = j
	}
	metrics.UpdateCardsPublished(len(b.entries))
	return nil
}

// Snapshot returns the published cards in publish order.
func (b *Board) Snapshot(_ context.Context) StatusResponse {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cards := make([]Card, len(b.entries))
	for i, e := range b.entries {
		cards[i] = e.card
	}
	return StatusResponse{Cards: cards}
}

// Len returns the number of published cards.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
