package scheduler

import (
	"container/heap"
	"log/slog"
	"sync"
	"time"
)

type Job struct {
	NextRun time.Time
	RunFunc func() error

	index int // position in the heap, -1 once popped or removed
	seq   uint64
}

type Scheduler struct {
	mu      sync.Mutex
	jobs    JobHeap
	seq     uint64
	wake    chan struct{}
	quit    chan struct{}
	stopped sync.Once
	logger  *slog.Logger
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{
		jobs:   make(JobHeap, 0),
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		logger: logger,
	}
	heap.Init(&s.jobs)
	go s.run()
	return s
}

func (s *Scheduler) Add(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// jobs due at the same instant run in the order they were added
	s.seq++
	job.seq = s.seq
	heap.Push(&s.jobs, job)

	select {
	case s.wake <- struct{}{}:
	default:
	} // wake the loop upon jobs updating
}

// Cancel removes a job that has not started yet. It reports whether the job
// was still pending.
func (s *Scheduler) Cancel(job *Job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job == nil || job.index < 0 || job.index >= len(s.jobs) || s.jobs[job.index] != job {
		return false
	}

	heap.Remove(&s.jobs, job.index)

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *Scheduler) run() {
	for {
		s.mu.Lock()
		if len(s.jobs) == 0 {
			s.mu.Unlock()
			select {
			case <-s.wake:
				continue
			case <-s.quit:
				return
			}
		}

		next := s.jobs[0]
		wait := time.Until(next.NextRun)
		s.mu.Unlock()

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-s.wake:
				timer.Stop()
				continue
			case <-s.quit:
				timer.Stop()
				return
			}
		}

		s.mu.Lock()
		// the head may have been cancelled or replaced while we waited
		if len(s.jobs) == 0 || s.jobs[0] != next {
			s.mu.Unlock()
			continue
		}
		heap.Pop(&s.jobs)
		s.mu.Unlock()

		if err := next.RunFunc(); err != nil {
			s.logger.Error("scheduled job failed", "err", err)
		}
	}
}

func (s *Scheduler) Stop() {
	s.stopped.Do(func() { close(s.quit) })
}
