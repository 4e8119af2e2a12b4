package actor

import (
	"context"
	"sync/atomic"
)

// kernel is the one-to-one coupling between a mailbox and the dispatcher.
// It is constructed once per actor and never reassigned; its only jobs are
// submitting "run this mailbox once" tasks and refusing them after stop.
type kernel struct {
	dispatcher Dispatcher

	// scheduled aliases the mailbox's scheduled flag so a failed submit
	// can clear it and let future sends retry.
	scheduled *atomic.Bool

	// run drains bounded work from the kernel's mailbox.
	run func()

	stopped atomic.Bool
}

// newKernel couples a run closure to the dispatcher.
func newKernel(dispatcher Dispatcher, scheduled *atomic.Bool,
	run func()) *kernel {

	return &kernel{
		dispatcher: dispatcher,
		scheduled:  scheduled,
		run:        run,
	}
}

// schedule enqueues one run-task for the kernel's mailbox. Callers must
// have won the scheduled compare-and-set first. Submission failure is
// best-effort: the scheduled flag is cleared so a future send retries. A
// nil kernel (the synthetic big-bang parent) ignores schedule requests.
func (k *kernel) schedule() {
	if k == nil || k.stopped.Load() {
		return
	}

	if err := k.dispatcher.Execute(k.run); err != nil {
		log.WarnS(context.Background(), "Dispatcher rejected run-task",
			err)

		k.scheduled.Store(false)
	}
}

// stop ceases accepting further schedule requests. Remaining system
// messages have been drained by the terminating run-task; anything after
// this point is discarded.
func (k *kernel) stop() {
	if k == nil {
		return
	}

	k.stopped.Store(true)
}
