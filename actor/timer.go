package actor

import (
	"container/heap"
	"sync"
	"sync/atomic"
	"time"
)

// TimerHandle cancels a scheduled job. Cancellation is best-effort: a job
// the timer loop has already taken off its heap for firing still runs.
type TimerHandle struct {
	cancelled atomic.Bool
}

// Cancel prevents future firings of the job.
func (h *TimerHandle) Cancel() {
	h.cancelled.Store(true)
}

// Timer is the wall-clock source the runtime schedules delayed and periodic
// messages with. Jobs fire as ordinary function calls; the message-sending
// wrappers deliver through the usual mailbox rules.
type Timer interface {
	// ScheduleOnce runs fn once after the delay.
	ScheduleOnce(delay time.Duration, fn func()) *TimerHandle

	// SchedulePeriodic runs fn after the initial delay and then on every
	// interval until cancelled.
	SchedulePeriodic(initial, interval time.Duration, fn func()) *TimerHandle

	// Stop terminates the timer. Pending jobs are discarded.
	Stop()
}

// timerJob is one scheduled entry in the basic timer's heap.
type timerJob struct {
	fireAt   time.Time
	interval time.Duration
	fn       func()
	handle   *TimerHandle
}

// jobHeap orders timer jobs by fire time.
type jobHeap []*timerJob

func (h jobHeap) Len() int            { return len(h) }
func (h jobHeap) Less(i, j int) bool  { return h[i].fireAt.Before(h[j].fireAt) }
func (h jobHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *jobHeap) Push(x any)         { *h = append(*h, x.(*timerJob)) }
func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	job := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]

	return job
}

// basicTimer is the default Timer: a single goroutine polling a job heap at
// a fixed frequency. The coarse tick keeps one goroutine serving any number
// of scheduled messages, at the cost of firing up to one tick late.
type basicTimer struct {
	frequency time.Duration

	mu   sync.Mutex
	jobs jobHeap

	quit chan struct{}
	done chan struct{}
	once sync.Once
}

// newBasicTimer starts the timer loop ticking at the given frequency.
func newBasicTimer(frequency time.Duration) *basicTimer {
	if frequency <= 0 {
		frequency = 50 * time.Millisecond
	}

	t := &basicTimer{
		frequency: frequency,
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	heap.Init(&t.jobs)

	go t.loop()

	return t
}

// ScheduleOnce runs fn once after the delay.
func (t *basicTimer) ScheduleOnce(delay time.Duration,
	fn func()) *TimerHandle {

	return t.schedule(delay, 0, fn)
}

// SchedulePeriodic runs fn after the initial delay and then on every
// interval until cancelled.
func (t *basicTimer) SchedulePeriodic(initial, interval time.Duration,
	fn func()) *TimerHandle {

	return t.schedule(initial, interval, fn)
}

// schedule inserts a job into the heap.
func (t *basicTimer) schedule(delay, interval time.Duration,
	fn func()) *TimerHandle {

	handle := &TimerHandle{}

	t.mu.Lock()
	heap.Push(&t.jobs, &timerJob{
		fireAt:   time.Now().Add(delay),
		interval: interval,
		fn:       fn,
		handle:   handle,
	})
	t.mu.Unlock()

	return handle
}

// loop fires due jobs every tick, re-queueing periodic ones.
func (t *basicTimer) loop() {
	defer close(t.done)

	ticker := time.NewTicker(t.frequency)
	defer ticker.Stop()

	for {
		select {
		case <-t.quit:
			return

		case now := <-ticker.C:
			t.fireDue(now)
		}
	}
}

// fireDue pops and runs every job whose deadline has passed.
func (t *basicTimer) fireDue(now time.Time) {
	var due []*timerJob

	t.mu.Lock()
	for len(t.jobs) > 0 && !t.jobs[0].fireAt.After(now) {
		job := heap.Pop(&t.jobs).(*timerJob)
		if job.handle.cancelled.Load() {
			continue
		}

		due = append(due, job)

		if job.interval > 0 {
			heap.Push(&t.jobs, &timerJob{
				fireAt:   now.Add(job.interval),
				interval: job.interval,
				fn:       job.fn,
				handle:   job.handle,
			})
		}
	}
	t.mu.Unlock()

	for _, job := range due {
		job.fn()
	}
}

// Stop terminates the timer loop and waits for it to exit.
func (t *basicTimer) Stop() {
	t.once.Do(func() {
		close(t.quit)
	})
	<-t.done
}
