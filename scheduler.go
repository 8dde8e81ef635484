package main

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/Saecki/polaris/internal/app/ddns"
	"github.com/Saecki/polaris/internal/app/index"
	"github.com/Saecki/polaris/internal/app/settings"
)

const ddnsSchedule = "@every 30m"

// jobScheduler runs the periodic reindex and DDNS refresh. The reindex period
// comes from the settings, so the schedule is rebuilt whenever they change.
type jobScheduler struct {
	settings *settings.Manager
	index    *index.Manager
	ddns     *ddns.Manager

	mu   sync.Mutex
	cron *cron.Cron
}

func newJobScheduler(s *settings.Manager, idx *index.Manager, d *ddns.Manager) *jobScheduler {
	return &jobScheduler{settings: s, index: idx, ddns: d}
}

func (j *jobScheduler) Restart(ctx context.Context) error {
	st, err := j.settings.Read(ctx)
	if err != nil {
		return err
	}

	c := cron.New()
	if st.IndexSleepDurationSeconds > 0 {
		schedule := fmt.Sprintf("@every %ds", st.IndexSleepDurationSeconds)
		if _, err := c.AddFunc(schedule, j.index.Trigger); err != nil {
			return fmt.Errorf("schedule reindex: %w", err)
		}
		log.Printf("Scheduled reindex with schedule: '%s'", schedule)
	} else {
		log.Println("Scheduled reindex is disabled.")
	}
	if _, err := c.AddFunc(ddnsSchedule, func() {
		if err := j.ddns.Update(context.Background()); err != nil {
			log.Printf("[DDNS] Update failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule ddns update: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cron != nil {
		j.cron.Stop()
	}
	j.cron = c
	j.cron.Start()
	return nil
}

func (j *jobScheduler) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cron != nil {
		<-j.cron.Stop().Done()
		j.cron = nil
	}
}
