package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/roasbeef/stratum/actor"
	"github.com/spf13/cobra"
)

// eventWatcher subscribes to every lifecycle topic and prints each event
// it observes.
type eventWatcher struct {
	actor.BaseActor[panicMsg]
}

// PreStart subscribes the watcher to the wildcard topic.
func (w *eventWatcher) PreStart(ctx *actor.Context[panicMsg]) {
	fmt.Printf("%s: subscribing to topic %q\n",
		ctx.Myself().Name(), actor.TopicAll)

	ctx.System().SysEvents().Tell(&actor.SysSubscribe{
		Topic:      actor.TopicAll,
		Subscriber: ctx.Myself().Basic(),
	}, nil)
}

// Recv drops user traffic; the watcher only cares about lifecycle events.
func (w *eventWatcher) Recv(ctx *actor.Context[panicMsg], msg panicMsg,
	sender *actor.BasicActorRef) {
}

// SysRecv prints every lifecycle event delivered to the watcher.
func (w *eventWatcher) SysRecv(ctx *actor.Context[panicMsg],
	msg actor.SystemMsg, sender *actor.BasicActorRef) {

	evt, ok := msg.(actor.SystemEvent)
	if !ok {
		return
	}

	fmt.Printf("%s: -> got system event %s, path: %s\n",
		ctx.Myself().Name(), evt.MessageType(), evt.ActorRef().Path())
}

// crashableActor panics when poked, demonstrating restart events.
type crashableActor struct {
	actor.BaseActor[panicMsg]
}

// Recv panics unconditionally.
func (c *crashableActor) Recv(ctx *actor.Context[panicMsg], msg panicMsg,
	sender *actor.BasicActorRef) {

	panic("// TEST PANIC // TEST PANIC // TEST PANIC //")
}

// channelsCmd demonstrates lifecycle event subscriptions via the system
// events channel.
var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Watch lifecycle events through the system events channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		sys, err := actor.NewActorSystem("demo")
		if err != nil {
			return err
		}

		_, err = actor.ActorOf(sys, actor.Props[panicMsg](
			func() actor.Actor[panicMsg] { return &eventWatcher{} },
		), "system-actor")
		if err != nil {
			return err
		}

		time.Sleep(500 * time.Millisecond)

		fmt.Println("Creating the crashable actor")
		dumb, err := actor.ActorOf(sys, actor.Props[panicMsg](
			func() actor.Actor[panicMsg] {
				return &crashableActor{}
			},
		), "dumb-actor")
		if err != nil {
			return err
		}

		time.Sleep(500 * time.Millisecond)

		fmt.Println("Sending a panic message to force a restart")
		dumb.Tell(panicMsg{}, nil)
		time.Sleep(500 * time.Millisecond)

		fmt.Println("Stopping the crashable actor")
		sys.Stop(dumb.Basic())
		time.Sleep(500 * time.Millisecond)

		sys.PrintTree()

		ctx, cancel := context.WithTimeout(
			context.Background(), 5*time.Second,
		)
		defer cancel()

		return sys.Shutdown(ctx)
	},
}

func init() {
	rootCmd.AddCommand(channelsCmd)
}
