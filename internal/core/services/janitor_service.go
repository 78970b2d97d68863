package services

import (
	"context"
	"log"
	"time"

	"finspark-backoffice/internal/notify"
	"finspark-backoffice/internal/workspace"

	"github.com/robfig/cron/v3"
)

// ============================================================
// Janitor: periodic cleanup of per-browser state
// ============================================================

// ExpiredPurger is implemented by durable session backends that keep
// expired rows around until purged
type ExpiredPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// JanitorService runs the cleanup jobs on a cron schedule
type JanitorService struct {
	cron       *cron.Cron
	spec       string
	workspaces *workspace.Registry
	center     *notify.Center
	purger     ExpiredPurger
	idle       time.Duration
}

// NewJanitorService creates a new janitor. purger may be nil.
func NewJanitorService(spec string, workspaces *workspace.Registry, center *notify.Center, purger ExpiredPurger, idle time.Duration) *JanitorService {
	return &JanitorService{
		cron:       cron.New(),
		spec:       spec,
		workspaces: workspaces,
		center:     center,
		purger:     purger,
		idle:       idle,
	}
}

// Start schedules the cleanup and starts the cron runner
func (s *JanitorService) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunOnce); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("🚀 JanitorService started [%s]", s.spec)
	return nil
}

// Stop waits for a running job and stops the scheduler
func (s *JanitorService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 JanitorService stopped")
}

// RunOnce performs one cleanup pass
func (s *JanitorService) RunOnce() {
	evicted := 0
	s.workspaces.Each(func(ws *workspace.Workspace) {
		evicted += ws.Queries.Sweep()
	})

	pruned := s.workspaces.Prune(s.idle)
	expired := s.center.Sweep()

	var purged int64
	if s.purger != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := s.purger.DeleteExpired(ctx)
		cancel()
		if err != nil {
			log.Printf("❌ Session purge error: %v", err)
		}
		purged = n
	}

	if evicted+pruned+expired > 0 || purged > 0 {
		log.Printf("🧹 Janitor: %d cached reads, %d workspaces, %d notifications, %d session rows",
			evicted, pruned, expired, purged)
	}
}
