package actor

import (
	"context"
	"fmt"
	"sync"
)

// ErrAlreadyExists indicates a spawn attempt at a path that is currently
// occupied by a live actor.
type ErrAlreadyExists struct {
	// Path is the contested actor path.
	Path string
}

// Error implements the error interface.
func (e *ErrAlreadyExists) Error() string {
	return fmt.Sprintf("actor already exists at %s", e.Path)
}

// userActorIDStart is the first ID handed to user-created actors; lower IDs
// are reserved for the big-bang parent and the guardians.
const userActorIDStart ActorID = 100

// provider owns the path registry and the actor ID counter. Path
// uniqueness is enforced under a single critical section that also
// allocates the next ID, so a winning spawn atomically claims both.
type provider struct {
	mu      sync.Mutex
	paths   map[string]struct{}
	counter ActorID
}

// newProvider creates a provider with the well-known bootstrap paths
// pre-registered.
func newProvider() *provider {
	return &provider{
		paths: map[string]struct{}{
			"/":        {},
			"/user":    {},
			"/system":  {},
			"/temp":    {},
		},
		counter: userActorIDStart,
	}
}

// register claims a path and allocates the next actor ID. Fails with
// ErrAlreadyExists while a live actor occupies the path.
func (p *provider) register(path string) (ActorID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.paths[path]; exists {
		return 0, &ErrAlreadyExists{Path: path}
	}

	p.paths[path] = struct{}{}

	id := p.counter
	p.counter++

	return id, nil
}

// unregister releases a path during actor teardown, making it available
// for reuse.
func (p *provider) unregister(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.paths, path)
}

// createActor validates the name, claims the child path, builds the
// mailbox/cell/kernel triple, wires the child to its parent and kicks off
// initialization with ActorInit. This is the single construction path for
// every non-guardian actor in the system.
func createActor[M Message](sys *ActorSystem, props Props[M], name string,
	parent *BasicActorRef) (*ActorRef[M], error) {

	if err := validateName(name); err != nil {
		return nil, err
	}

	path := childPath(parent.Path(), name)

	log.TraceS(context.Background(), "Attempting to create actor",
		"path", path)

	uid, err := sys.provider.register(path)
	if err != nil {
		return nil, err
	}

	uri := ActorURI{
		UID:  uid,
		Path: path,
		Name: name,
		Host: sys.host,
	}

	ref, err := buildActor(sys, props, uri, parent)
	if err != nil {
		sys.provider.unregister(path)
		return nil, err
	}

	return ref, nil
}

// buildActor assembles the runtime pieces for one actor around an already
// claimed URI. Guardians reuse this with their reserved IDs and paths.
func buildActor[M Message](sys *ActorSystem, props Props[M], uri ActorURI,
	parent *BasicActorRef) (ref *ActorRef[M], err error) {

	// A panicking factory surfaces as a spawn error rather than taking
	// down the caller.
	defer func() {
		if r := recover(); r != nil {
			ref = nil
			err = fmt.Errorf("actor factory panicked: %v", r)
		}
	}()

	instance := props()

	sender, sysSend, mb := newMailbox[M](sys.config.Mailbox.MsgProcessLimit)

	cell := newCell(uri, parent, sys, sysSend, sender, mb.suspended,
		mb.scheduled)

	d := newDock(cell, props, instance)

	ref = &ActorRef[M]{
		basic:  cell.self,
		sender: sender,
	}

	ctx := &Context[M]{
		myself: ref,
		system: sys,
	}

	cell.kernel = newKernel(sys.dispatcher, mb.scheduled, func() {
		runMailbox(mb, ctx, d)
	})

	if parent != nil {
		parent.cell.addChild(cell.self)
	}

	cell.self.SysTell(ActorInit{})

	return ref, nil
}
