package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	service "github.com/homeweave/dashboard/internal/app"
	"github.com/homeweave/dashboard/internal/democards"
	"github.com/homeweave/dashboard/pkg/logger"
)

// Default configuration constants.
const (
	defaultNumCards = 8
	defaultWorkers  = 2 // multiplier for runtime.NumCPU()
	defaultTimeout  = 10 * time.Second
	defaultRunLimit = 2 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:15000", "Base URL of the dashboard")
		appURL    = flag.String("app", "https://github.com/HomeWeave/DemoCards.git", "App URL to publish as")
		dashboard = flag.String("dashboard", service.DefaultAppURL, "App URL of the dashboard")
		numCards  = flag.Int("cards", defaultNumCards, "Number of cards to publish")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent publishers")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed      = flag.Int64("seed", 0, "Generator seed (0 = random)")
		withdraw  = flag.Bool("withdraw", false, "Withdraw the cards after verifying them")
		format    = flag.String("log-format", logger.FormatText, "Log format: text or json")
	)
	flag.Parse()

	if err := logger.InitWithFormat(os.Stdout, *format); err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunLimit)
	defer cancel()

	stats, err := democards.Run(ctx, &democards.Config{
		BaseURL:      *baseURL,
		AppURL:       *appURL,
		DashboardURL: *dashboard,
		NumCards:     *numCards,
		Workers:      *workers,
		Timeout:      *timeout,
		Seed:         *seed,
		Withdraw:     *withdraw,
	}, logger.Get())
	if stats != nil {
		fmt.Printf("generated=%d published=%d failed=%d served=%d withdrawn=%d duration=%s\n",
			stats.Generated, stats.Published, stats.Failed, stats.Served, stats.Withdrawn, stats.Duration)
	}
	if err != nil {
		_, _ = os.Stderr.WriteString("demo failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
