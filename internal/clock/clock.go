// Package clock provides cancellable repeating tasks and a countdown built
// on them. Tests swap the real ticker for Manual to drive time by hand.
package clock

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Scheduler runs fn every interval until the returned cancel func is
// called. Calling cancel more than once is harmless.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (cancel func())
}

// TickerScheduler schedules tasks on time.Ticker, one goroutine per task.
type TickerScheduler struct{}

func (TickerScheduler) Every(interval time.Duration, fn func()) func() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				// A tick can race with cancel; prefer cancel.
				if ctx.Err() != nil {
					return
				}
				fn()
			}
		}
	}()
	return cancel
}

// Manual is a Scheduler whose tasks only run when Fire is called.
type Manual struct {
	mu    sync.Mutex
	next  int
	tasks map[int]manualTask
}

type manualTask struct {
	interval time.Duration
	fn       func()
}

func NewManual() *Manual {
	return &Manual{tasks: make(map[int]manualTask)}
}

func (m *Manual) Every(interval time.Duration, fn func()) func() {
	m.mu.Lock()
	id := m.next
	m.next++
	m.tasks[id] = manualTask{interval: interval, fn: fn}
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.tasks, id)
		m.mu.Unlock()
	}
}

// Fire runs every live task once, in scheduling order. Tasks cancelled by
// an earlier task in the same Fire are skipped.
func (m *Manual) Fire() {
	m.mu.Lock()
	ids := make([]int, 0, len(m.tasks))
	for id := range m.tasks {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	slices.Sort(ids)
	for _, id := range ids {
		m.mu.Lock()
		task, ok := m.tasks[id]
		m.mu.Unlock()
		if ok {
			task.fn()
		}
	}
}

// FireN calls Fire n times.
func (m *Manual) FireN(n int) {
	for i := 0; i < n; i++ {
		m.Fire()
	}
}

// Active returns the number of live tasks.
func (m *Manual) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}
