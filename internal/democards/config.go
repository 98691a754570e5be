// Package democards publishes sample status cards to a running dashboard
// and checks that the cards endpoint serves them back.
package democards

import "time"

// Config holds configuration for a demo run.
type Config struct {
	BaseURL      string        // Base URL of the dashboard
	AppURL       string        // App URL the cards are published as
	DashboardURL string        // App URL of the dashboard's RPC servers
	NumCards     int           // Number of cards to publish
	Workers      int           // Concurrent publishers
	Timeout      time.Duration // HTTP request timeout
	Seed         int64         // Generator seed; 0 picks one from the clock
	Withdraw     bool          // Withdraw the cards after verifying them
}

// Stats summarizes a run.
type Stats struct {
	Generated int
	Published int
	Failed    int
	Served    int
	Withdrawn int
	StartTime time.Time
	Duration  time.Duration
}
