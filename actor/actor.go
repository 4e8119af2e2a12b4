package actor

import "sync"

// Actor is the behavior contract an implementer plugs into the runtime. An
// actor processes one message at a time from its own perspective: the
// runtime guarantees no two invocations of the same actor's hooks ever
// overlap.
//
// Embed BaseActor to inherit no-op defaults for everything except Recv,
// which every actor must provide.
type Actor[M Message] interface {
	// PreStart runs before any message is processed, both on first start
	// and on every restart. Children are commonly created here.
	PreStart(ctx *Context[M])

	// PostStart runs once initialization has completed and the mailbox
	// has been un-suspended.
	PostStart(ctx *Context[M])

	// PostStop runs after the actor's children have stopped and before
	// its path is released.
	PostStop()

	// Recv handles a user message. The implementation must consume the
	// message or forward it.
	Recv(ctx *Context[M], msg M, sender *BasicActorRef)

	// SysRecv observes system messages: ActorInit and any lifecycle
	// events the actor subscribed to.
	SysRecv(ctx *Context[M], msg SystemMsg, sender *BasicActorRef)

	// SupervisorStrategy returns the policy applied to this actor's
	// failing children.
	SupervisorStrategy() Strategy
}

// BaseActor provides default implementations for every Actor hook except
// Recv. Embedding it keeps implementations focused on message handling.
type BaseActor[M Message] struct{}

// PreStart is a no-op by default.
func (BaseActor[M]) PreStart(*Context[M]) {}

// PostStart is a no-op by default.
func (BaseActor[M]) PostStart(*Context[M]) {}

// PostStop is a no-op by default.
func (BaseActor[M]) PostStop() {}

// SysRecv ignores system messages by default.
func (BaseActor[M]) SysRecv(*Context[M], SystemMsg, *BasicActorRef) {}

// SupervisorStrategy restarts failing children by default.
func (BaseActor[M]) SupervisorStrategy() Strategy {
	return StrategyRestart
}

// Props is the factory the runtime uses to build an actor's behavior
// instance, both at spawn time and on every restart. A factory must return
// a fresh instance on each call; restarted actors must not observe state
// from their previous incarnation.
type Props[M Message] func() Actor[M]

// funcActor adapts a plain function to the Actor contract for lightweight
// actors that need no lifecycle hooks.
type funcActor[M Message] struct {
	BaseActor[M]

	recv func(ctx *Context[M], msg M, sender *BasicActorRef)
}

// Recv handles a user message.
func (f *funcActor[M]) Recv(ctx *Context[M], msg M, sender *BasicActorRef) {
	f.recv(ctx, msg, sender)
}

// PropsFromFunc wraps a receive function into a Props factory. Useful for
// tests and small leaf actors.
func PropsFromFunc[M Message](
	recv func(ctx *Context[M], msg M, sender *BasicActorRef)) Props[M] {

	return func() Actor[M] {
		return &funcActor[M]{recv: recv}
	}
}

// dock holds an actor's behavior instance between run-tasks, together with
// the factory that rebuilds it on restart and the cell that anchors its
// identity. The instance is moved out of the dock for the duration of a
// run-task, which is what makes per-actor execution single-threaded: a
// behavior is owned by at most one run-task at any instant.
type dock[M Message] struct {
	cell  *actorCell
	props Props[M]

	mu    sync.Mutex
	actor Actor[M]
}

// newDock builds a dock seeded with the given behavior instance.
func newDock[M Message](cell *actorCell, props Props[M],
	instance Actor[M]) *dock[M] {

	return &dock[M]{
		cell:  cell,
		props: props,
		actor: instance,
	}
}

// take removes the behavior instance from the dock. Returns nil when the
// slot is empty (after a panic, or once the actor has stopped).
func (d *dock[M]) take() Actor[M] {
	d.mu.Lock()
	defer d.mu.Unlock()

	a := d.actor
	d.actor = nil

	return a
}

// put returns the behavior instance to the dock.
func (d *dock[M]) put(a Actor[M]) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.actor = a
}
