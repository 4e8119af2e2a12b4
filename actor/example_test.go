package actor_test

import (
	"context"
	"fmt"
	"time"

	"github.com/roasbeef/stratum/actor"
)

// GreetingMsg is a simple message type for the examples.
type GreetingMsg struct {
	actor.BaseMessage
	Name string
}

// MessageType implements actor.Message.
func (m *GreetingMsg) MessageType() string { return "GreetingMsg" }

// GreetingReply carries the greeter's response.
type GreetingReply struct {
	actor.BaseMessage
	Text string
}

// MessageType implements actor.Message.
func (m *GreetingReply) MessageType() string { return "GreetingReply" }

// ExampleActorOf demonstrates spawning an actor under /user, asking it a
// question through a temp actor, and shutting the system down.
func ExampleActorOf() {
	system, err := actor.NewSystemBuilder().
		Name("example").
		Config(actor.DefaultConfig()).
		Create()
	if err != nil {
		fmt.Println("boot failed:", err)
		return
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(), 5*time.Second,
	)
	defer cancel()
	defer system.Shutdown(shutdownCtx)

	// The greeter replies to whoever asked.
	greeter, err := actor.ActorOf(system, actor.PropsFromFunc(
		func(ctx *actor.Context[*GreetingMsg], msg *GreetingMsg,
			sender *actor.BasicActorRef) {

			reply := &GreetingReply{Text: "Hello, " + msg.Name}
			_ = sender.TryTell(reply, ctx.Myself().Basic())
		}), "greeter")
	if err != nil {
		fmt.Println("spawn failed:", err)
		return
	}

	askCtx, askCancel := context.WithTimeout(
		context.Background(), time.Second,
	)
	defer askCancel()

	reply, err := actor.AskAwait[*GreetingMsg, *GreetingReply](
		askCtx, system, greeter, &GreetingMsg{Name: "World"},
	)
	if err != nil {
		fmt.Println("ask failed:", err)
		return
	}

	fmt.Println(reply.Text)

	// Output: Hello, World
}
