package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/roasbeef/stratum/actor"
	"github.com/spf13/cobra"
)

// panicMsg triggers a deliberate panic inside the receiving actor.
type panicMsg struct {
	actor.BaseMessage
}

// MessageType returns the type name of the message for routing/filtering.
func (panicMsg) MessageType() string { return "panicMsg" }

// dumbActor is an inert child used to demonstrate supervision cascades.
type dumbActor struct {
	actor.BaseActor[panicMsg]
}

// Recv drops everything.
func (d *dumbActor) Recv(ctx *actor.Context[panicMsg], msg panicMsg,
	sender *actor.BasicActorRef) {
}

// panicActor creates four children on start and panics on any message.
type panicActor struct {
	actor.BaseActor[panicMsg]
}

// PreStart populates the children. On restart the previous children have
// been stopped, so the same names are free again.
func (p *panicActor) PreStart(ctx *actor.Context[panicMsg]) {
	for _, name := range []string{"child_a", "child_b", "child_c",
		"child_d"} {

		_, err := actor.ActorOf(ctx, actor.Props[panicMsg](
			func() actor.Actor[panicMsg] { return &dumbActor{} },
		), name)
		if err != nil {
			panic(err)
		}
	}
}

// Recv panics unconditionally, handing control to the supervision chain.
func (p *panicActor) Recv(ctx *actor.Context[panicMsg], msg panicMsg,
	sender *actor.BasicActorRef) {

	panic("// TEST PANIC // TEST PANIC // TEST PANIC //")
}

// panicCmd demonstrates panic detection and the default restart strategy.
var panicCmd = &cobra.Command{
	Use:   "panic",
	Short: "Panic a supervised actor and watch it restart",
	RunE: func(cmd *cobra.Command, args []string) error {
		sys, err := actor.NewActorSystem("demo")
		if err != nil {
			return err
		}

		sup, err := actor.ActorOf(sys, actor.Props[panicMsg](
			func() actor.Actor[panicMsg] { return &panicActor{} },
		), "panic_actor")
		if err != nil {
			return err
		}

		time.Sleep(500 * time.Millisecond)
		fmt.Println("Before the panic, the supervisor and its " +
			"children are alive:")
		sys.PrintTree()

		sup.Tell(panicMsg{}, nil)
		time.Sleep(500 * time.Millisecond)

		fmt.Println("The panic was contained and the actor " +
			"restarted in place:")
		sys.PrintTree()

		ctx, cancel := context.WithTimeout(
			context.Background(), 5*time.Second,
		)
		defer cancel()

		return sys.Shutdown(ctx)
	},
}

func init() {
	rootCmd.AddCommand(panicCmd)
}
