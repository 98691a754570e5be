package democards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/homeweave/dashboard/pkg/logger"
)

// ErrVerify reports cards missing from the cards endpoint.
var ErrVerify = errors.New("published cards not served")

const statusCardsRPC = "status_cards"

// Run publishes generated cards, verifies the dashboard serves them and
// optionally withdraws them again.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	client := NewClient(cfg.BaseURL, cfg.AppURL, cfg.Timeout)

	log.Info(ctx, "starting demo card run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("cards", cfg.NumCards),
		logger.Int("workers", cfg.Workers),
	)

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("health check failed: %w", err)
	}

	cards := Generate(cfg.NumCards, cfg.Seed)
	stats.Generated = len(cards)

	var published, failed atomic.Int64
	each(ctx, cfg.Workers, cards, func(ctx context.Context, c Card) {
		if _, err := client.Call(ctx, cfg.DashboardURL, statusCardsRPC, "publish", c.ID, c.Descriptor); err != nil {
			failed.Add(1)
			log.Warn(ctx, "publish failed", logger.String("card", c.ID), logger.Error(err))
			return
		}
		published.Add(1)
	})
	stats.Published = int(published.Load())
	stats.Failed = int(failed.Load())

	served, err := client.Cards(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch cards: %w", err)
	}
	stats.Served = countServed(served, cards)
	log.Info(ctx, "cards verified",
		logger.Int("published", stats.Published),
		logger.Int("served", stats.Served),
	)

	if cfg.Withdraw {
		var withdrawn atomic.Int64
		each(ctx, cfg.Workers, cards, func(ctx context.Context, c Card) {
			if _, err := client.Call(ctx, cfg.DashboardURL, statusCardsRPC, "withdraw", c.ID); err == nil {
				withdrawn.Add(1)
			}
		})
		stats.Withdrawn = int(withdrawn.Load())
	}

	stats.Duration = time.Since(stats.StartTime)
	if stats.Served < stats.Published {
		return stats, fmt.Errorf("%w: %d of %d", ErrVerify, stats.Published-stats.Served, stats.Published)
	}
	return stats, nil
}

func each(ctx context.Context, workers int, cards []Card, fn func(context.Context, Card)) {
	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, c := range cards {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fn(ctx, c)
			return nil
		})
	}
	_ = g.Wait()
}

// countServed counts generated cards present in served, by title.
func countServed(served []json.RawMessage, cards []Card) int {
	titles := make(map[string]int, len(served))
	for _, raw := range served {
		var d struct {
			Data struct {
				Title string `json:"title"`
			} `json:"data"`
		}
		if json.Unmarshal(raw, &d) == nil {
			titles[d.Data.Title]++
		}
	}
	n := 0
	for _, c := range cards {
		data, _ := c.Descriptor["data"].(map[string]any)
		title, ok := data["title"].(string)
		if !ok {
			continue
		}
		if titles[title] > 0 {
			titles[title]--
			n++
		}
	}
	return n
}
