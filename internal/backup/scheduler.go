package backup

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/logging"
)

// Scheduler drives the periodic and daily snapshots. Runs overlap nowhere:
// a cycle still executing when the next check fires is skipped.
type Scheduler struct {
	manager   *Manager
	interval  time.Duration
	dailyHour int

	now     func() time.Time
	running uint32
	busy    uint32
	stop    chan struct{}
	wg      sync.WaitGroup

	mu           sync.Mutex
	lastPeriodic time.Time
	lastDailyDay string
}

func NewScheduler(manager *Manager, interval time.Duration, dailyHour int) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	if dailyHour < 0 || dailyHour > 23 {
		dailyHour = 4
	}
	return &Scheduler{
		manager:   manager,
		interval:  interval,
		dailyHour: dailyHour,
		now:       time.Now,
		stop:      make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	if !atomic.CompareAndSwapUint32(&s.running, 0, 1) {
		return
	}
	s.mu.Lock()
	s.lastPeriodic = s.now()
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop()
	logging.Info("Backup scheduler: started (periodic %v, daily at %02d:00)", s.interval, s.dailyHour)
}

func (s *Scheduler) Stop() {
	if !atomic.CompareAndSwapUint32(&s.running, 1, 0) {
		return
	}
	close(s.stop)
	s.wg.Wait()
	logging.Info("Backup scheduler: stopped")
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !atomic.CompareAndSwapUint32(&s.busy, 0, 1) {
				logging.Warn("Backup scheduler: previous cycle still running, skipping")
				continue
			}
			s.check()
			atomic.StoreUint32(&s.busy, 0)
		case <-s.stop:
			return
		}
	}
}

// check runs at minute resolution and decides whether the periodic or the
// daily snapshot is due.
func (s *Scheduler) check() {
	now := s.now()

	s.mu.Lock()
	periodicDue := now.Sub(s.lastPeriodic) >= s.interval
	if periodicDue {
		s.lastPeriodic = now
	}
	day := now.Format("2006-01-02")
	dailyDue := now.Hour() == s.dailyHour && s.lastDailyDay != day
	if dailyDue {
		s.lastDailyDay = day
	}
	s.mu.Unlock()

	if periodicDue {
		if _, err := s.manager.Create(TagPeriodic, "scheduled periodic snapshot"); err != nil {
			logging.Error("Backup scheduler: periodic snapshot failed: %v", err)
		}
	}
	if dailyDue {
		if _, err := s.manager.Create(TagDaily, "scheduled daily snapshot"); err != nil {
			logging.Error("Backup scheduler: daily snapshot failed: %v", err)
		}
	}
}
