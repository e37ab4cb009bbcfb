// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartLifecycleScheduler runs the event status sweep every 5 minutes. The
// sweep is the same idempotent transition that page loads apply, so the two
// can overlap safely.
func (s *EventService) StartLifecycleScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			if err := s.UpdateEventStatuses(); err != nil {
				log.Printf("[Scheduler] Event status sweep failed: %v", err)
			}
		}),
	)
}
