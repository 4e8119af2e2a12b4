package actor

import (
	"context"
	"fmt"
	"sync/atomic"
)

// anySender is the type-erased face of a mailbox's user-queue writer. The
// cell holds its children's senders through this interface so that the
// supervision tree stays free of type parameters. tryAnyEnqueue performs the
// single downcast from an opaque payload to the mailbox's message type.
type anySender interface {
	tryAnyEnqueue(msg *AnyMessage, sender *BasicActorRef) error

	closeQueue()
}

// MailboxSender is the user-queue writer half of a mailbox. It is cheap to
// copy and safe for concurrent use by any number of producers.
type MailboxSender[M Message] struct {
	queue     *queueWriter[Envelope[M]]
	scheduled *atomic.Bool
}

// tryEnqueue appends an envelope to the user queue. Enqueueing does not by
// itself schedule the mailbox; the sending ref performs the schedule request
// after a successful enqueue.
func (s *MailboxSender[M]) tryEnqueue(env Envelope[M]) error {
	return s.queue.tryEnqueue(env)
}

// tryAnyEnqueue implements anySender. The opaque payload is taken out of its
// holder exactly once and downcast to the mailbox's message type; a payload
// of any other type is rejected.
func (s *MailboxSender[M]) tryAnyEnqueue(msg *AnyMessage,
	sender *BasicActorRef) error {

	payload, err := msg.take()
	if err != nil {
		return err
	}

	typed, ok := payload.(M)
	if !ok {
		return fmt.Errorf("%w: got %T", ErrMessageTypeMismatch, payload)
	}

	return s.tryEnqueue(Envelope[M]{Msg: typed, Sender: sender})
}

// closeQueue implements anySender.
func (s *MailboxSender[M]) closeQueue() {
	s.queue.close()
}

// sysSender is the system-queue writer half of a mailbox. System messages
// are never rejected unless the cell is fully dead.
type sysSender struct {
	queue     *queueWriter[sysEnvelope]
	scheduled *atomic.Bool
}

// tryEnqueue appends a system envelope.
func (s *sysSender) tryEnqueue(env sysEnvelope) error {
	return s.queue.tryEnqueue(env)
}

// closeQueue rejects further system messages.
func (s *sysSender) closeQueue() {
	s.queue.close()
}

// Mailbox is the consumer side of an actor's two message queues, together
// with the per-actor scheduling flags. The suspended flag starts true and is
// lifted only once ActorInit has been processed; the scheduled flag is true
// iff exactly one run-task for this mailbox is queued on the dispatcher or
// actively running.
type Mailbox[M Message] struct {
	msgProcessLimit int

	queue    *queueReader[Envelope[M]]
	sysQueue *queueReader[sysEnvelope]

	suspended *atomic.Bool
	scheduled *atomic.Bool
}

// newMailbox builds the queue pair and flags for one actor and returns the
// user-queue writer, the system-queue writer and the mailbox itself. Both
// writers share the mailbox's scheduled flag.
func newMailbox[M Message](msgProcessLimit int) (*MailboxSender[M],
	*sysSender, *Mailbox[M]) {

	userW, userR := newQueue[Envelope[M]]()
	sysW, sysR := newQueue[sysEnvelope]()

	scheduled := &atomic.Bool{}
	suspended := &atomic.Bool{}
	suspended.Store(true)

	sender := &MailboxSender[M]{
		queue:     userW,
		scheduled: scheduled,
	}
	sysSend := &sysSender{
		queue:     sysW,
		scheduled: scheduled,
	}
	mailbox := &Mailbox[M]{
		msgProcessLimit: msgProcessLimit,
		queue:           userR,
		sysQueue:        sysR,
		suspended:       suspended,
		scheduled:       scheduled,
	}

	return sender, sysSend, mailbox
}

// tryDequeue pops the oldest user message, if any.
func (m *Mailbox[M]) tryDequeue() (Envelope[M], bool) {
	return m.queue.tryDequeue()
}

// sysTryDequeue pops the oldest system message, if any.
func (m *Mailbox[M]) sysTryDequeue() (sysEnvelope, bool) {
	return m.sysQueue.tryDequeue()
}

// hasMsgs reports whether user messages are pending. Best-effort.
func (m *Mailbox[M]) hasMsgs() bool {
	return m.queue.hasMsgs()
}

// hasSysMsgs reports whether system messages are pending. Best-effort.
func (m *Mailbox[M]) hasSysMsgs() bool {
	return m.sysQueue.hasMsgs()
}

// setSuspended toggles user-message processing. System messages are drained
// regardless of suspension.
func (m *Mailbox[M]) setSuspended(b bool) {
	m.suspended.Store(b)
}

// isSuspended reports whether user-message processing is currently held.
func (m *Mailbox[M]) isSuspended() bool {
	return m.suspended.Load()
}

// setScheduled overwrites the scheduled flag.
func (m *Mailbox[M]) setScheduled(b bool) {
	m.scheduled.Store(b)
}

// isScheduled reports whether a run-task is queued or running.
func (m *Mailbox[M]) isScheduled() bool {
	return m.scheduled.Load()
}

// runMailbox is the run-task body executed on the dispatcher, one invocation
// per wakeup. It takes the behavior instance out of its dock, drains system
// messages, processes up to msgProcessLimit user messages with system drains
// interleaved, drains system messages once more, parks the behavior and
// clears the scheduled flag. A final re-check of both queues closes the race
// with senders that enqueued after the last drain but lost the scheduling
// CAS.
//
// The deferred recover is the sentinel: a panic anywhere inside the run-task
// suspends the mailbox, clears the scheduled flag and reports Failed to the
// parent. The behavior instance is deliberately not returned to its dock; the
// slot stays empty until a Restart rebuilds it or a Stop dismantles the cell.
func runMailbox[M Message](mb *Mailbox[M], ctx *Context[M], d *dock[M]) {
	cell := d.cell

	defer func() {
		r := recover()
		if r == nil {
			return
		}

		log.ErrorS(context.Background(), "Actor panicked",
			fmt.Errorf("%v", r),
			"path", cell.uri.Path)

		mb.setSuspended(true)
		mb.setScheduled(false)

		if cell.parent != nil {
			cell.parent.SysTell(&Failed{Child: cell.self})
		}
	}()

	actor := d.take()

	processSysMsgs(mb, ctx, d, &actor)

	if actor != nil && !mb.isSuspended() {
		processMsgs(mb, ctx, d, &actor)
	}

	processSysMsgs(mb, ctx, d, &actor)

	if actor != nil {
		d.put(actor)
	}

	mb.setScheduled(false)

	// Messages may have been enqueued between the last drain and the flag
	// reset above. Re-check and reschedule, racing fairly with concurrent
	// senders via the same CAS they use. Pending user messages only
	// warrant a wakeup when they are actually processable: the mailbox
	// must not be suspended and the behavior slot must be occupied, else
	// the runtime would spin rescheduling a mailbox it cannot drain.
	pending := mb.hasSysMsgs() ||
		(mb.hasMsgs() && !mb.isSuspended() && actor != nil)
	if pending && mb.scheduled.CompareAndSwap(false, true) {
		cell.kernel.schedule()
	}
}

// processMsgs dequeues up to the mailbox's per-wakeup quota of user
// messages. System messages are drained between every user message since
// they are higher priority and may suspend the mailbox or tear the actor
// down mid-batch.
func processMsgs[M Message](mb *Mailbox[M], ctx *Context[M], d *dock[M],
	actor *Actor[M]) {

	for count := 0; count < mb.msgProcessLimit; count++ {
		env, ok := mb.tryDequeue()
		if !ok {
			return
		}

		(*actor).Recv(ctx, env.Msg, env.Sender)

		processSysMsgs(mb, ctx, d, actor)

		if *actor == nil || mb.isSuspended() {
			return
		}
	}
}

// processSysMsgs drains the system queue into a local buffer and processes
// the buffered batch in order. System messages enqueued while the batch is
// being processed are deferred to the next iteration so a restart storm
// cannot starve other actors of dispatcher time.
func processSysMsgs[M Message](mb *Mailbox[M], ctx *Context[M], d *dock[M],
	actor *Actor[M]) {

	var staged []sysEnvelope
	for {
		env, ok := mb.sysTryDequeue()
		if !ok {
			break
		}
		staged = append(staged, env)
	}

	for _, env := range staged {
		switch msg := env.msg.(type) {
		case ActorInit:
			handleInit(mb, ctx, d, actor)

		case Command:
			receiveCmd(msg, mb, ctx, d, actor)

		case *Failed:
			handleFailed(ctx, d, actor, msg)

		case SystemEvent:
			handleEvt(msg, mb, ctx, d, actor, env.sender)
		}
	}
}

// handleInit runs the one-time initialization triggered by ActorInit: the
// behavior's PreStart hook, the ActorInit observation through SysRecv, the
// lift of the initial suspension and the ActorCreated publication.
func handleInit[M Message](mb *Mailbox[M], ctx *Context[M], d *dock[M],
	actor *Actor[M]) {

	a := *actor
	if a == nil {
		return
	}

	a.PreStart(ctx)
	a.SysRecv(ctx, ActorInit{}, nil)

	mb.setSuspended(false)

	if d.cell.isUser {
		ctx.system.PublishEvent(&ActorCreated{Actor: d.cell.self})
	}

	a.PostStart(ctx)
}

// handleEvt forwards a lifecycle event to the behavior's SysRecv hook and
// applies the death-watch bookkeeping for terminated children.
func handleEvt[M Message](evt SystemEvent, mb *Mailbox[M], ctx *Context[M],
	d *dock[M], actor *Actor[M], sender *BasicActorRef) {

	if *actor != nil {
		(*actor).SysRecv(ctx, evt, sender)
	}

	if terminated, ok := evt.(*ActorTerminated); ok {
		deathWatch(mb, ctx, d, actor, terminated.Actor)
	}
}

// handleFailed reacts to a panicked child on behalf of the behavior's
// supervisor strategy. The strategy is consulted from the live behavior
// instance when present; an empty slot falls back to the default Restart.
func handleFailed[M Message](ctx *Context[M], d *dock[M], actor *Actor[M],
	failed *Failed) {

	strategy := StrategyRestart
	if *actor != nil {
		strategy = (*actor).SupervisorStrategy()
	}

	d.cell.applyStrategy(failed.Child, strategy)
}

// receiveCmd applies a Stop or Restart control command to the cell. Both
// transitions fan a Stop out to all children first; the final teardown or
// rebuild runs once death-watch has observed the last child terminate.
func receiveCmd[M Message](cmd Command, mb *Mailbox[M], ctx *Context[M],
	d *dock[M], actor *Actor[M]) {

	cell := d.cell

	switch cmd {
	case CommandStop:
		state := cell.loadState()
		if state == cellStopping || state == cellStopped {
			return
		}

		cell.storeState(cellStopping)
		mb.setSuspended(true)

		children := cell.childSnapshot()
		if len(children) == 0 {
			terminate(mb, ctx, d, actor)
			return
		}
		for _, child := range children {
			child.SysTell(CommandStop)
		}

	case CommandRestart:
		state := cell.loadState()
		if state == cellStopping || state == cellStopped {
			return
		}

		cell.storeState(cellRestarting)
		mb.setSuspended(true)

		children := cell.childSnapshot()
		if len(children) == 0 {
			performRestart(mb, ctx, d, actor)
			return
		}
		for _, child := range children {
			child.SysTell(CommandStop)
		}
	}
}

// deathWatch removes a terminated child from the children set and, when the
// set drains while a stop or restart is pending, completes the pending
// transition.
func deathWatch[M Message](mb *Mailbox[M], ctx *Context[M], d *dock[M],
	actor *Actor[M], terminated *BasicActorRef) {

	cell := d.cell
	cell.removeChild(terminated)

	if cell.hasChildren() {
		return
	}

	switch cell.loadState() {
	case cellStopping:
		terminate(mb, ctx, d, actor)
	case cellRestarting:
		performRestart(mb, ctx, d, actor)
	}
}

// terminate finishes a stop: the behavior's PostStop hook runs, both queues
// are closed against further sends, undelivered user messages are flushed to
// the dead-letter topic, ActorTerminated is announced and the path is
// released for reuse.
func terminate[M Message](mb *Mailbox[M], ctx *Context[M], d *dock[M],
	actor *Actor[M]) {

	cell := d.cell
	sys := ctx.system

	if cell.loadState() == cellStopped {
		return
	}

	if a := *actor; a != nil {
		safePostStop(a, cell)
		*actor = nil
	}

	cell.closeSenders()
	flushToDeadLetters(mb, cell.self, sys)

	cell.storeState(cellStopped)
	cell.kernel.stop()

	// The path is released before anyone learns of the termination:
	// a parent reacting to ActorTerminated may immediately respawn a
	// child under the same name and must not collide with the path we
	// are vacating.
	sys.provider.unregister(cell.uri.Path)

	// Publish before notifying the parent: a parent completing its own
	// stop in reaction to this termination publishes too, and channel
	// FIFO then guarantees subscribers observe children before parents.
	evt := &ActorTerminated{Actor: cell.self}
	if cell.isUser {
		sys.PublishEvent(evt)
	}
	for _, watcher := range cell.watcherSnapshot() {
		watcher.SysTell(evt)
	}
	if cell.parent != nil {
		cell.parent.SysTell(evt)
	}

	close(cell.done)

	log.DebugS(context.Background(), "Actor terminated",
		"path", cell.uri.Path)
}

// performRestart swaps the failed behavior instance for a fresh one from the
// cell's factory. The actor's identity and mailbox survive; its previous
// children have already been stopped by receiveCmd, so PreStart starts from
// an empty child set.
func performRestart[M Message](mb *Mailbox[M], ctx *Context[M], d *dock[M],
	actor *Actor[M]) {

	cell := d.cell

	if a := *actor; a != nil {
		safePostStop(a, cell)
		*actor = nil
	}

	// A panic inside the factory or PreStart propagates to the sentinel,
	// which reports Failed to the parent again.
	fresh := d.props()
	*actor = fresh
	fresh.PreStart(ctx)

	cell.restarts.Add(1)
	cell.storeState(cellAlive)

	if cell.isUser {
		ctx.system.PublishEvent(&ActorRestarted{Actor: cell.self})
	}

	mb.setSuspended(false)

	log.DebugS(context.Background(), "Actor restarted",
		"path", cell.uri.Path,
		"restart_count", cell.restarts.Load())
}

// safePostStop invokes PostStop behind its own recover. A panic during
// PostStop is logged but must not prevent path unregistration.
func safePostStop(a interface{ PostStop() }, cell *actorCell) {
	defer func() {
		if r := recover(); r != nil {
			log.WarnS(context.Background(), "PostStop panicked",
				fmt.Errorf("%v", r),
				"path", cell.uri.Path)
		}
	}()

	a.PostStop()
}

// flushToDeadLetters drains every user message still queued at teardown and
// republishes each as a DeadLetter.
func flushToDeadLetters[M Message](mb *Mailbox[M], recipient *BasicActorRef,
	sys *ActorSystem) {

	for {
		env, ok := mb.tryDequeue()
		if !ok {
			return
		}

		sys.deadLetter(fmt.Sprintf("%v", env.Msg), env.Sender, recipient)
	}
}
