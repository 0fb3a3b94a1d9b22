package authclient

import (
	"sync"
	"time"
)

// Scheduler runs delayed tasks. Scheduling a name that is still pending
// replaces the pending task.
type Scheduler interface {
	Schedule(name string, delay time.Duration, fn func())
	Cancel(name string)
}

const (
	taskClearAlert = "alert.clear"
	taskRedirect   = "page.redirect"
)

var _ Scheduler = (*TimerScheduler)(nil)

// TimerScheduler runs tasks on time.AfterFunc goroutines.
type TimerScheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{timers: map[string]*time.Timer{}}
}

func (s *TimerScheduler) Schedule(name string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[name]; ok {
		prev.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.timers[name] == timer {
			delete(s.timers, name)
		}
		s.mu.Unlock()
		fn()
	})
	s.timers[name] = timer
}

func (s *TimerScheduler) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[name]; ok {
		timer.Stop()
		delete(s.timers, name)
	}
}

// Pending returns the number of tasks that have not fired yet.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending task.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, timer := range s.timers {
		timer.Stop()
		delete(s.timers, name)
	}
}
