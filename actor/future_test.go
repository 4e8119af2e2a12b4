package actor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestAskAwait verifies the request-response round trip through a temp
// actor under /temp.
func TestAskAwait(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)
	defer shutdownSys(t, sys)

	// The responder echoes the payload back to whoever sent it.
	responder, err := ActorOf(sys, PropsFromFunc(
		func(ctx *Context[*testMsg], msg *testMsg,
			sender *BasicActorRef) {

			reply := &testMsg{text: "echo:" + msg.text}
			err := sender.TryTell(reply, ctx.Myself().Basic())
			require.NoError(t, err)
		}), "responder")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reply, err := AskAwait[*testMsg, *testMsg](
		ctx, sys, responder, &testMsg{text: "hello"},
	)
	require.NoError(t, err)
	require.Equal(t, "echo:hello", reply.text)
}

// TestAskTempActorRetires verifies that the throwaway actor backing an Ask
// disappears from /temp once the reply has arrived.
func TestAskTempActorRetires(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)
	defer shutdownSys(t, sys)

	responder, err := ActorOf(sys, PropsFromFunc(
		func(ctx *Context[*testMsg], msg *testMsg,
			sender *BasicActorRef) {

			_ = sender.TryTell(&testMsg{text: "pong"},
				ctx.Myself().Basic())
		}), "responder")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = AskAwait[*testMsg, *testMsg](
		ctx, sys, responder, &testMsg{text: "ping"},
	)
	require.NoError(t, err)

	eventually(t, func() bool {
		return len(sys.TempRoot().Children()) == 0
	}, "the temp actor should retire after replying")

	require.False(t,
		strings.Contains(sys.TreeString(), "ask-"),
		"no ask actors should linger in the tree")
}

// TestAskAwaitContextExpiry verifies that an unanswered Ask surfaces the
// context error.
func TestAskAwaitContextExpiry(t *testing.T) {
	t.Parallel()

	sys := newTestSystem(t)
	defer shutdownSys(t, sys)

	// The responder never replies.
	silent, err := ActorOf(sys, PropsFromFunc(
		func(ctx *Context[*testMsg], msg *testMsg,
			sender *BasicActorRef) {
		}), "silent")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(
		context.Background(), 50*time.Millisecond,
	)
	defer cancel()

	_, err = AskAwait[*testMsg, *testMsg](
		ctx, sys, silent, &testMsg{text: "anyone?"},
	)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
