package actor

import (
	"time"
)

// Context is the per-actor view of the runtime handed to every behavior
// hook. It exposes the actor's own ref, its parent, the owning system and
// spawn/scheduling conveniences.
type Context[M Message] struct {
	myself *ActorRef[M]
	system *ActorSystem
}

// Myself returns the typed ref addressing this actor.
func (ctx *Context[M]) Myself() *ActorRef[M] {
	return ctx.myself
}

// Parent returns the parent's ref.
func (ctx *Context[M]) Parent() *BasicActorRef {
	return ctx.myself.Basic().Parent()
}

// System returns the actor system this actor belongs to.
func (ctx *Context[M]) System() *ActorSystem {
	return ctx.system
}

// ScheduleOnce arranges for a message to be told to the given ref after the
// delay. The delivery is an ordinary send subject to the usual mailbox
// rules.
func ScheduleOnce[M Message](sys *ActorSystem, delay time.Duration,
	ref *ActorRef[M], msg M, sender *BasicActorRef) *TimerHandle {

	return sys.timer.ScheduleOnce(delay, func() {
		ref.Tell(msg, sender)
	})
}

// SchedulePeriodic arranges for a message to be told to the given ref after
// the initial delay and then on every interval until cancelled.
func SchedulePeriodic[M Message](sys *ActorSystem, initial,
	interval time.Duration, ref *ActorRef[M], msg M,
	sender *BasicActorRef) *TimerHandle {

	return sys.timer.SchedulePeriodic(initial, interval, func() {
		ref.Tell(msg, sender)
	})
}

// Spawner is anything a child actor can be attached to: the system itself
// (children land under /user) or another actor's context. Methods on
// generic types cannot introduce further type parameters, so spawning is a
// package-level function over this interface, mirroring how registration
// helpers are shaped elsewhere in the ecosystem.
type Spawner interface {
	// spawnParent returns the ref new children attach to.
	spawnParent() *BasicActorRef

	// actorSystem returns the owning system.
	actorSystem() *ActorSystem
}

// spawnParent returns the ref new children attach to.
func (ctx *Context[M]) spawnParent() *BasicActorRef {
	return ctx.myself.Basic()
}

// actorSystem returns the owning system.
func (ctx *Context[M]) actorSystem() *ActorSystem {
	return ctx.system
}

// ActorOf spawns a new actor from the given factory, attached under the
// spawner: directly under /user when spawning from the system, or as a
// child of the calling actor when spawning from a context. The name must
// match [A-Za-z0-9_-]+ and be unique among the parent's children.
func ActorOf[M Message](sp Spawner, props Props[M], name string) (
	*ActorRef[M], error) {

	return createActor(sp.actorSystem(), props, name, sp.spawnParent())
}
