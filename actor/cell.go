package actor

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// Cell lifecycle states.
const (
	cellAlive int32 = iota
	cellRestarting
	cellStopping
	cellStopped
)

// actorCell is the type-erased runtime record for one actor: its identity,
// its position in the supervision tree, the writer halves of its mailbox and
// the kernel that couples the mailbox to the dispatcher. The cell outlives
// behavior instances across restarts, which is what makes refs stable.
type actorCell struct {
	uri    ActorURI
	parent *BasicActorRef
	system *ActorSystem

	// self is the one canonical ref for this cell. Handing out a single
	// pointer keeps ref comparison stable across restarts.
	self *BasicActorRef

	// isUser marks actors living under the /user guardian; only those
	// publish lifecycle events.
	isUser bool

	sys    *sysSender
	any    anySender
	kernel *kernel

	// suspended and scheduled alias the mailbox's flags so supervision
	// can manipulate a child's mailbox without knowing its message type.
	suspended *atomic.Bool
	scheduled *atomic.Bool

	state    atomic.Int32
	restarts atomic.Uint32

	// done is closed once the cell has fully terminated.
	done chan struct{}

	mu       sync.Mutex
	children []*BasicActorRef
	watchers []*BasicActorRef
}

// newCell wires a cell from the parts built during spawn. The kernel is
// attached afterwards, once the run closure exists.
func newCell(uri ActorURI, parent *BasicActorRef, sys *ActorSystem,
	sysSend *sysSender, any anySender, suspended,
	scheduled *atomic.Bool) *actorCell {

	cell := &actorCell{
		uri:       uri,
		parent:    parent,
		system:    sys,
		sys:       sysSend,
		any:       any,
		suspended: suspended,
		scheduled: scheduled,
		done:      make(chan struct{}),
	}
	cell.self = &BasicActorRef{cell: cell}
	cell.isUser = isUserPath(uri.Path)

	return cell
}

// isUserPath reports whether a path lives under the /user guardian.
func isUserPath(path string) bool {
	return strings.HasPrefix(path, "/user/")
}

// loadState returns the cell's current lifecycle state.
func (c *actorCell) loadState() int32 {
	return c.state.Load()
}

// storeState transitions the cell's lifecycle state.
func (c *actorCell) storeState(s int32) {
	c.state.Store(s)
}

// trySchedule requests a run-task iff none is already queued or running.
// The compare-and-set is the single point deciding who wakes the mailbox:
// whoever flips scheduled from false to true owns the schedule request.
func (c *actorCell) trySchedule() {
	if c.scheduled.CompareAndSwap(false, true) {
		c.kernel.schedule()
	}
}

// resume lifts the suspension applied by a failure and wakes the mailbox.
func (c *actorCell) resume() {
	c.suspended.Store(false)
	c.trySchedule()
}

// addChild appends a child ref. Children keep insertion order so stop
// cascades and the printed tree are deterministic.
func (c *actorCell) addChild(child *BasicActorRef) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.children = append(c.children, child)
}

// removeChild drops a child ref, comparing by cell identity.
func (c *actorCell) removeChild(child *BasicActorRef) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, existing := range c.children {
		if existing.cell == child.cell {
			c.children = append(c.children[:i], c.children[i+1:]...)
			return
		}
	}
}

// hasChildren reports whether any children remain.
func (c *actorCell) hasChildren() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.children) > 0
}

// childSnapshot copies the current children set so callers can iterate
// without holding the cell lock.
func (c *actorCell) childSnapshot() []*BasicActorRef {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]*BasicActorRef, len(c.children))
	copy(snapshot, c.children)

	return snapshot
}

// addWatcher registers a death-watch subscriber that will receive
// ActorTerminated for this cell on its system queue.
func (c *actorCell) addWatcher(watcher *BasicActorRef) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.watchers = append(c.watchers, watcher)
}

// watcherSnapshot copies the current death-watch subscribers.
func (c *actorCell) watcherSnapshot() []*BasicActorRef {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]*BasicActorRef, len(c.watchers))
	copy(snapshot, c.watchers)

	return snapshot
}

// closeSenders rejects all further traffic to this cell's mailbox.
func (c *actorCell) closeSenders() {
	c.any.closeQueue()
	c.sys.closeQueue()
}

// applyStrategy carries out the supervision decision for a failed child.
func (c *actorCell) applyStrategy(child *BasicActorRef, strategy Strategy) {
	log.DebugS(context.Background(), "Applying supervision strategy",
		"parent", c.uri.Path,
		"child", child.Path(),
		"strategy", strategy.String())

	switch strategy {
	case StrategyRestart:
		child.SysTell(CommandRestart)

	case StrategyStop:
		child.SysTell(CommandStop)

	case StrategyResume:
		child.cell.resume()

	case StrategyEscalate:
		if c.parent == nil || c.parent.cell.kernel == nil {
			log.ErrorS(context.Background(),
				"Failure escalated past the root guardian",
				ErrEscalationTerminal,
				"child", child.Path())
			return
		}

		c.parent.SysTell(&Failed{Child: c.self})
	}
}
