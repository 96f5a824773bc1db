package repair

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"quorumfs/internal/cluster"
)

// Scheduler runs an update pass on a fixed interval until stopped.
type Scheduler struct {
	interval time.Duration
	run      func(ctx context.Context) cluster.Result
	log      logrus.FieldLogger

	mu     sync.Mutex
	passes int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler calling run every interval.
func NewScheduler(interval time.Duration, run func(ctx context.Context) cluster.Result, log logrus.FieldLogger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		interval: interval,
		run:      run,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the timer loop. A non-positive interval disables it.
func (s *Scheduler) Start() {
	if s.interval <= 0 {
		s.log.Info("Anti-entropy disabled")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// Stop cancels any running pass and waits for the loop to exit.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Passes returns how many passes have completed.
func (s *Scheduler) Passes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passes
}

func (s *Scheduler) tick() {
	res := s.run(s.ctx)

	s.mu.Lock()
	s.passes++
	s.mu.Unlock()

	if !res.OK() && s.ctx.Err() == nil {
		s.log.WithFields(logrus.Fields{"kind": res.Kind}).Errorf("Update failed: %s", res.Message)
	}
}
