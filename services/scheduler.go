// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartSchedulers runs the background jobs: lottery draw resolution and
// stale-trade expiry.
func StartSchedulers(lottery *LotteryService, trades *TradeService) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("[Scheduler] failed to start: %v", err)
		return
	}
	sched.Start()

	// Every 5 minutes: resolve lottery draws whose period has ended.
	// Resolution is also triggered lazily on read, this is the backstop.
	if _, err := sched.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			lottery.ResolveDue()
		}),
	); err != nil {
		log.Printf("[Scheduler] failed to register lottery job: %v", err)
	}

	// Every hour: deny trade offers nobody answered for a week.
	if _, err := sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			trades.ExpireStale(7 * 24 * time.Hour)
		}),
	); err != nil {
		log.Printf("[Scheduler] failed to register trade expiry job: %v", err)
	}
}
