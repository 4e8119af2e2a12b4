package actor

import (
	"context"
	"fmt"
)

// BasicActorRef is the type-erased, cheaply copyable handle to an actor.
// It can address any actor regardless of message type: system messages are
// always accepted, and user messages go through a single runtime downcast.
// Holding a ref does not imply ownership of the actor's lifetime.
type BasicActorRef struct {
	cell *actorCell
}

// URI returns the actor's immutable identity.
func (r *BasicActorRef) URI() ActorURI {
	return r.cell.uri
}

// Path returns the actor's process-wide unique path.
func (r *BasicActorRef) Path() string {
	return r.cell.uri.Path
}

// Name returns the last segment of the actor's path.
func (r *BasicActorRef) Name() string {
	return r.cell.uri.Name
}

// UID returns the actor's allocated ID.
func (r *BasicActorRef) UID() ActorID {
	return r.cell.uri.UID
}

// Parent returns the parent's ref, or nil for the synthetic big-bang
// parent.
func (r *BasicActorRef) Parent() *BasicActorRef {
	return r.cell.parent
}

// Children returns the actor's current children in insertion order.
func (r *BasicActorRef) Children() []*BasicActorRef {
	return r.cell.childSnapshot()
}

// IsUser reports whether the actor lives under the /user guardian.
func (r *BasicActorRef) IsUser() bool {
	return r.cell.isUser
}

// Equal reports whether two refs address the same actor. Equality is
// preserved across restarts: the cell, and therefore the ref, survives a
// behavior swap.
func (r *BasicActorRef) Equal(other *BasicActorRef) bool {
	if r == nil || other == nil {
		return r == other
	}

	return r.cell == other.cell
}

// RestartCount returns how many times the actor has been rebuilt from its
// factory.
func (r *BasicActorRef) RestartCount() uint32 {
	return r.cell.restarts.Load()
}

// Watch registers a death-watch subscriber. The watcher receives
// ActorTerminated on its system queue when this actor stops.
func (r *BasicActorRef) Watch(watcher *BasicActorRef) {
	r.cell.addWatcher(watcher)
}

// SysTell enqueues a system message and requests a wakeup. System messages
// are drained even while the mailbox is suspended, and are only ever
// rejected once the cell is fully dead.
func (r *BasicActorRef) SysTell(msg SystemMsg) {
	if r == nil {
		return
	}

	err := r.cell.sys.tryEnqueue(sysEnvelope{msg: msg})
	if err != nil {
		log.TraceS(context.Background(), "System message dropped",
			"path", r.cell.uri.Path,
			"msg_type", msg.MessageType())
		return
	}

	r.cell.trySchedule()
}

// TryTell delivers a user message through the type-erased path: the payload
// is downcast to the recipient mailbox's message type exactly once, and
// rejected if the types do not match. Undeliverable messages are re-routed
// to the dead-letter topic.
func (r *BasicActorRef) TryTell(msg Message, sender *BasicActorRef) error {
	err := r.cell.any.tryAnyEnqueue(NewAnyMessage(msg), sender)
	if err != nil {
		r.cell.system.deadLetter(
			fmt.Sprintf("%v", msg), sender, r,
		)
		return err
	}

	r.cell.trySchedule()

	return nil
}

// ActorRef is the typed handle to an actor, carrying the message type its
// mailbox accepts. It is obtained from spawn operations and shares its
// identity with the corresponding BasicActorRef.
type ActorRef[M Message] struct {
	basic  *BasicActorRef
	sender *MailboxSender[M]
}

// Basic returns the type-erased ref addressing the same actor. The pointer
// is canonical per actor, so refs can be compared across restarts.
func (r *ActorRef[M]) Basic() *BasicActorRef {
	return r.basic
}

// Path returns the actor's process-wide unique path.
func (r *ActorRef[M]) Path() string {
	return r.basic.Path()
}

// Name returns the last segment of the actor's path.
func (r *ActorRef[M]) Name() string {
	return r.basic.Name()
}

// Tell sends a message without waiting for a response. On a successful
// enqueue the sender performs the scheduling compare-and-set: if it flips
// the flag it owns the wakeup; if it loses, the in-flight run-task is
// guaranteed to observe the new message before releasing. Messages to a
// stopped actor are re-routed to the dead-letter topic.
func (r *ActorRef[M]) Tell(msg M, sender *BasicActorRef) {
	env := Envelope[M]{Msg: msg, Sender: sender}

	if err := r.sender.tryEnqueue(env); err != nil {
		r.basic.cell.system.deadLetter(
			fmt.Sprintf("%v", msg), sender, r.basic,
		)
		return
	}

	r.basic.cell.trySchedule()
}
