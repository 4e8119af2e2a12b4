package actor

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// Future represents the eventual reply to an Ask. Await blocks until the
// reply arrives or the context expires.
type Future[T any] interface {
	// Await blocks until the result is available or the context is
	// cancelled, then returns it.
	Await(ctx context.Context) fn.Result[T]
}

// promise completes the future it hands out. The first completion wins.
type promise[T any] struct {
	done   chan struct{}
	once   sync.Once
	result fn.Result[T]
}

// newPromise creates an unfulfilled promise.
func newPromise[T any]() *promise[T] {
	return &promise[T]{
		done: make(chan struct{}),
	}
}

// complete attempts to set the result. It returns true if this call was the
// first to complete the promise.
func (p *promise[T]) complete(result fn.Result[T]) bool {
	won := false
	p.once.Do(func() {
		p.result = result
		close(p.done)
		won = true
	})

	return won
}

// Await blocks until the result is available or the context is cancelled.
func (p *promise[T]) Await(ctx context.Context) fn.Result[T] {
	select {
	case <-p.done:
		return p.result

	case <-ctx.Done():
		return fn.Err[T](ctx.Err())
	}
}

// askActor is the throwaway recipient backing one Ask. It completes the
// promise with the first reply it receives, then stops itself.
type askActor[R Message] struct {
	BaseActor[R]

	promise *promise[R]
}

// Recv completes the promise and retires the temp actor.
func (a *askActor[R]) Recv(ctx *Context[R], msg R, sender *BasicActorRef) {
	a.promise.complete(fn.Ok(msg))
	ctx.System().Stop(ctx.Myself().Basic())
}

// Ask sends msg to the target with a uniquely named temp actor under /temp
// as the sender, and returns a Future for the target's reply. The target
// replies by telling its sender; the reply's runtime type must be R.
func Ask[M Message, R Message](sys *ActorSystem, target *ActorRef[M],
	msg M) (Future[R], error) {

	p := newPromise[R]()

	name := "ask-" + uuid.NewString()
	props := Props[R](func() Actor[R] {
		return &askActor[R]{promise: p}
	})

	temp, err := createActor(sys, props, name, sys.temp)
	if err != nil {
		return nil, err
	}

	target.Tell(msg, temp.Basic())

	return p, nil
}

// AskAwait is a convenience wrapper that performs an Ask and blocks until
// the reply is available, unpacking the result into a value and an error.
func AskAwait[M Message, R Message](ctx context.Context, sys *ActorSystem,
	target *ActorRef[M], msg M) (R, error) {

	future, err := Ask[M, R](sys, target, msg)
	if err != nil {
		var zero R
		return zero, err
	}

	return future.Await(ctx).Unpack()
}
