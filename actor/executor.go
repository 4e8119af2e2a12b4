package actor

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrDispatcherShutdown indicates a task submission after the dispatcher
// has been shut down.
var ErrDispatcherShutdown = errors.New("dispatcher shut down")

// Dispatcher is the work executor the runtime multiplexes actors over. A
// task is a fire-and-forget run-once unit. Implementations must isolate
// panics inside tasks so one misbehaving actor cannot take a worker down.
type Dispatcher interface {
	// Execute submits a task for asynchronous execution.
	Execute(task func()) error

	// Shutdown stops accepting tasks and waits for the workers to exit.
	// Queued tasks are still run.
	Shutdown()
}

// poolDispatcher is the default Dispatcher: a fixed pool of worker
// goroutines draining an unbounded task queue. Submission therefore never
// blocks, matching the non-blocking mailbox contract above it.
type poolDispatcher struct {
	mu       sync.Mutex
	cond     *sync.Cond
	tasks    []func()
	shutdown bool

	wg sync.WaitGroup
}

// NewPoolDispatcher starts a dispatcher backed by size worker goroutines.
// A non-positive size is bumped to 1.
func NewPoolDispatcher(size int) Dispatcher {
	if size < 1 {
		size = 1
	}

	p := &poolDispatcher{}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}

	log.DebugS(context.Background(), "Dispatcher pool started",
		"pool_size", size)

	return p
}

// Execute submits a task for asynchronous execution.
func (p *poolDispatcher) Execute(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shutdown {
		return ErrDispatcherShutdown
	}

	p.tasks = append(p.tasks, task)
	p.cond.Signal()

	return nil
}

// worker drains the task queue until shutdown. Each task runs behind a
// recover so a stray panic is contained to the task that raised it.
func (p *poolDispatcher) worker() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for len(p.tasks) == 0 && !p.shutdown {
			p.cond.Wait()
		}

		if len(p.tasks) == 0 && p.shutdown {
			p.mu.Unlock()
			return
		}

		task := p.tasks[0]
		p.tasks = p.tasks[1:]
		p.mu.Unlock()

		p.runTask(task)
	}
}

// runTask executes one task, containing any panic it raises.
func (p *poolDispatcher) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			// The mailbox sentinel converts actor panics into
			// Failed messages before they reach this point; a
			// panic here means a non-actor task misbehaved.
			log.CriticalS(context.Background(),
				"Dispatcher task panicked",
				fmt.Errorf("%v", r))
		}
	}()

	task()
}

// Shutdown stops accepting tasks and waits for the workers to drain the
// queue and exit.
func (p *poolDispatcher) Shutdown() {
	p.mu.Lock()
	p.shutdown = true
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
}
