// Package scheduler wires up the cron jobs that keep the service tidy:
// purging expired admin sessions and rewarming the listing collections.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"carikerja/listing-service/internal/auth"
	"carikerja/listing-service/internal/listing"
)

// Scheduler wraps robfig/cron and manages the maintenance loop.
type Scheduler struct {
	cron   *cron.Cron
	auth   *auth.PGAuthenticator
	engine *listing.QueryEngine
	spec   string // cron spec, e.g. "@every 1h"
}

// New creates a Scheduler that fires every intervalHours hours.
func New(authenticator *auth.PGAuthenticator, engine *listing.QueryEngine, intervalHours int) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cron.DefaultLogger)),
		auth:   authenticator,
		engine: engine,
		spec:   fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler. Also runs one cycle
// immediately so the listing cache is warm before the first request.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runMaintenance(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started — spec: %s", s.spec)

	// Run immediately on startup (non-blocking)
	go s.runMaintenance(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] Cron stopped")
}

// runMaintenance purges expired sessions and refetches the collections.
func (s *Scheduler) runMaintenance(ctx context.Context) {
	log.Println("[scheduler] Maintenance cycle started")

	purged, err := s.auth.DeleteExpired(ctx)
	if err != nil {
		log.Printf("[scheduler] DeleteExpired error: %v", err)
	} else if purged > 0 {
		log.Printf("[scheduler] Purged %d expired session(s)", purged)
	}

	if err := s.engine.Refresh(ctx); err != nil {
		log.Printf("[scheduler] Listing refresh error: %v", err)
	}

	log.Println("[scheduler] Maintenance cycle complete")
}
