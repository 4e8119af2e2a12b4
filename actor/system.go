package actor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// guardianMsg is the (unused) user message type of the synthetic guardian
// actors.
type guardianMsg struct {
	BaseMessage
}

// MessageType returns the type name of the message for routing/filtering.
func (guardianMsg) MessageType() string { return "guardianMsg" }

// guardian is the behavior of the root and the three well-known top-level
// actors. Guardians never process user traffic; they exist to anchor the
// supervision tree and supervise their subtrees with the default strategy.
type guardian struct {
	BaseActor[guardianMsg]

	name string
}

// newGuardianProps returns the factory for a named guardian.
func newGuardianProps(name string) Props[guardianMsg] {
	return func() Actor[guardianMsg] {
		return &guardian{name: name}
	}
}

// Recv drops user traffic addressed to a guardian.
func (g *guardian) Recv(ctx *Context[guardianMsg], msg guardianMsg,
	sender *BasicActorRef) {
}

// PostStop logs guardian teardown during system shutdown.
func (g *guardian) PostStop() {
	log.Tracef("%s guardian stopped", g.name)
}

// deadLetterListener logs every dead letter the system produces.
type deadLetterListener struct {
	BaseActor[*DeadLetter]
}

// PreStart subscribes the listener to the dead-letter topic.
func (l *deadLetterListener) PreStart(ctx *Context[*DeadLetter]) {
	ctx.System().DeadLetters().Tell(&Subscribe[*DeadLetter]{
		Topic:      TopicDeadLetter,
		Subscriber: ctx.Myself(),
	}, nil)
}

// Recv logs one dead letter.
func (l *deadLetterListener) Recv(ctx *Context[*DeadLetter],
	msg *DeadLetter, sender *BasicActorRef) {

	recipient := "unknown"
	if msg.Recipient != nil {
		recipient = msg.Recipient.Path()
	}
	from := "anonymous"
	if msg.Sender != nil {
		from = msg.Sender.Path()
	}

	log.InfoS(context.Background(), "Dead letter",
		"recipient", recipient,
		"sender", from,
		"msg", msg.Msg)
}

// ActorSystem is the root object of the runtime: it owns the provider, the
// dispatcher, the timer, the guardian subtrees, the system events channel
// and the dead-letter sink. Multiple systems may coexist in one process;
// nothing in the runtime is process-global.
type ActorSystem struct {
	id   uuid.UUID
	name string
	host string

	config     *Config
	dispatcher Dispatcher
	timer      Timer
	provider   *provider

	bigbang *BasicActorRef
	root    *BasicActorRef
	user    *BasicActorRef
	sysm    *BasicActorRef
	temp    *BasicActorRef

	sysEvents   *ActorRef[SysChannelMsg]
	deadLetters *ActorRef[ChannelMsg[*DeadLetter]]
}

// SystemBuilder assembles an ActorSystem with optional overrides for the
// name, configuration and dispatcher.
type SystemBuilder struct {
	name       string
	config     fn.Option[*Config]
	dispatcher fn.Option[Dispatcher]
}

// NewSystemBuilder starts a builder with no overrides.
func NewSystemBuilder() *SystemBuilder {
	return &SystemBuilder{}
}

// Name sets the system name.
func (b *SystemBuilder) Name(name string) *SystemBuilder {
	b.name = name
	return b
}

// Config sets an explicit configuration, skipping LoadConfig.
func (b *SystemBuilder) Config(cfg *Config) *SystemBuilder {
	b.config = fn.Some(cfg)
	return b
}

// Dispatcher sets an explicit work executor, replacing the default pool.
func (b *SystemBuilder) Dispatcher(d Dispatcher) *SystemBuilder {
	b.dispatcher = fn.Some(d)
	return b
}

// Create builds and boots the system.
func (b *SystemBuilder) Create() (*ActorSystem, error) {
	name := b.name
	if name == "" {
		name = "stratum"
	}

	cfg := b.config.UnwrapOr(nil)
	if cfg == nil {
		loaded, err := LoadConfig()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	dispatcher := b.dispatcher.UnwrapOr(nil)
	if dispatcher == nil {
		dispatcher = NewPoolDispatcher(cfg.Dispatcher.PoolSize)
	}

	return newActorSystem(name, cfg, dispatcher)
}

// NewActorSystem boots a system with the given name, the configuration
// from LoadConfig and the default dispatcher pool.
func NewActorSystem(name string) (*ActorSystem, error) {
	return NewSystemBuilder().Name(name).Create()
}

// newActorSystem wires the guardians, the events channel and the
// dead-letter sink.
func newActorSystem(name string, cfg *Config,
	dispatcher Dispatcher) (*ActorSystem, error) {

	sys := &ActorSystem{
		id:         uuid.New(),
		name:       name,
		host:       "localhost",
		config:     cfg,
		dispatcher: dispatcher,
		timer:      newBasicTimer(cfg.Scheduler.Frequency()),
		provider:   newProvider(),
	}

	if err := sys.bootstrap(); err != nil {
		sys.timer.Stop()
		sys.dispatcher.Shutdown()

		return nil, err
	}

	log.InfoS(context.Background(), "Actor system started",
		"name", name,
		"system_id", sys.id.String())

	return sys, nil
}

// bootstrap creates the synthetic big-bang parent, the root actor, the
// three guardians and the system-owned service actors.
func (sys *ActorSystem) bootstrap() error {
	// Big bang: all actors have a parent, so the root needs one too. The
	// big-bang cell has senders but no kernel; nothing it is told is ever
	// processed.
	bbSender, bbSys, bbMailbox := newMailbox[guardianMsg](
		sys.config.Mailbox.MsgProcessLimit,
	)
	bbURI := ActorURI{UID: 0, Path: "/", Name: "bigbang", Host: sys.host}
	bbCell := newCell(bbURI, nil, sys, bbSys, bbSender,
		bbMailbox.suspended, bbMailbox.scheduled)
	sys.bigbang = bbCell.self

	root, err := buildActor(sys, newGuardianProps("root"), ActorURI{
		UID: 0, Path: "/", Name: "root", Host: sys.host,
	}, sys.bigbang)
	if err != nil {
		return fmt.Errorf("unable to create root: %w", err)
	}
	sys.root = root.Basic()

	spawnGuardian := func(uid ActorID, name, path string) (
		*BasicActorRef, error) {

		ref, err := buildActor(sys, newGuardianProps(name), ActorURI{
			UID: uid, Path: path, Name: name, Host: sys.host,
		}, sys.root)
		if err != nil {
			return nil, fmt.Errorf("unable to create %s "+
				"guardian: %w", name, err)
		}

		return ref.Basic(), nil
	}

	if sys.user, err = spawnGuardian(1, "user", "/user"); err != nil {
		return err
	}
	if sys.sysm, err = spawnGuardian(2, "system", "/system"); err != nil {
		return err
	}
	if sys.temp, err = spawnGuardian(3, "temp", "/temp"); err != nil {
		return err
	}

	sys.sysEvents, err = createActor(sys, newSysEventsChannelProps(),
		"sys_events", sys.sysm)
	if err != nil {
		return fmt.Errorf("unable to create sys_events: %w", err)
	}

	sys.deadLetters, err = createActor(sys,
		NewChannelProps[*DeadLetter](), "dead_letters", sys.sysm)
	if err != nil {
		return fmt.Errorf("unable to create dead_letters: %w", err)
	}

	_, err = createActor(sys, Props[*DeadLetter](func() Actor[*DeadLetter] {
		return &deadLetterListener{}
	}), "dl_logger", sys.sysm)
	if err != nil {
		return fmt.Errorf("unable to create dl_logger: %w", err)
	}

	return nil
}

// spawnParent attaches system-spawned actors under the /user guardian.
func (sys *ActorSystem) spawnParent() *BasicActorRef {
	return sys.user
}

// actorSystem returns the system itself.
func (sys *ActorSystem) actorSystem() *ActorSystem {
	return sys
}

// ID returns the unique identifier of this system instance.
func (sys *ActorSystem) ID() string {
	return sys.id.String()
}

// Name returns the system name.
func (sys *ActorSystem) Name() string {
	return sys.name
}

// Host returns the informational host field stamped on actor URIs.
func (sys *ActorSystem) Host() string {
	return sys.host
}

// Config returns the configuration the system was booted with.
func (sys *ActorSystem) Config() *Config {
	return sys.config
}

// Timer returns the system's wall-clock scheduler.
func (sys *ActorSystem) Timer() Timer {
	return sys.timer
}

// Root returns the root actor.
func (sys *ActorSystem) Root() *BasicActorRef {
	return sys.root
}

// UserRoot returns the /user guardian.
func (sys *ActorSystem) UserRoot() *BasicActorRef {
	return sys.user
}

// SysRoot returns the /system guardian.
func (sys *ActorSystem) SysRoot() *BasicActorRef {
	return sys.sysm
}

// TempRoot returns the /temp guardian.
func (sys *ActorSystem) TempRoot() *BasicActorRef {
	return sys.temp
}

// SysEvents returns the system events channel. Subscribe with SysSubscribe
// to observe lifecycle events; the wildcard topic matches all of them.
func (sys *ActorSystem) SysEvents() *ActorRef[SysChannelMsg] {
	return sys.sysEvents
}

// DeadLetters returns the dead-letter channel. Subscribe to TopicDeadLetter
// to observe undeliverable messages.
func (sys *ActorSystem) DeadLetters() *ActorRef[ChannelMsg[*DeadLetter]] {
	return sys.deadLetters
}

// Stop asks the given actor to stop. The in-flight message, if any,
// finishes first; children stop before the actor's own PostStop runs.
func (sys *ActorSystem) Stop(ref *BasicActorRef) {
	ref.SysTell(CommandStop)
}

// PublishEvent publishes a lifecycle event on the system events channel.
func (sys *ActorSystem) PublishEvent(evt SystemEvent) {
	if sys.sysEvents == nil {
		return
	}

	sys.sysEvents.Tell(&SysPublish{Event: evt}, nil)
}

// deadLetter publishes one undeliverable message on the dead-letter topic.
// The publication enqueues directly on the channel's mailbox: routing a
// failed dead-letter delivery back through Tell would recurse.
func (sys *ActorSystem) deadLetter(formatted string, sender,
	recipient *BasicActorRef) {

	recipientPath := "unknown"
	if recipient != nil {
		recipientPath = recipient.Path()
	}

	log.DebugS(context.Background(), "Message routed to dead letters",
		"recipient", recipientPath)

	if sys.deadLetters == nil {
		return
	}

	env := Envelope[ChannelMsg[*DeadLetter]]{
		Msg: &Publish[*DeadLetter]{
			Topic: TopicDeadLetter,
			Msg: &DeadLetter{
				Msg:       formatted,
				Sender:    sender,
				Recipient: recipient,
			},
		},
	}

	if err := sys.deadLetters.sender.tryEnqueue(env); err != nil {
		log.TraceS(context.Background(), "Dead letter dropped",
			"recipient", recipientPath)
		return
	}

	sys.deadLetters.Basic().cell.trySchedule()
}

// WhenTerminated blocks until the given actor has fully stopped or the
// context expires.
func (sys *ActorSystem) WhenTerminated(ctx context.Context,
	ref *BasicActorRef) error {

	select {
	case <-ref.cell.done:
		return nil

	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops the guardian subtrees in order (/user, /temp, /system,
// then the root) and tears down the timer and dispatcher once the root has
// terminated.
func (sys *ActorSystem) Shutdown(ctx context.Context) error {
	log.InfoS(ctx, "Actor system shutting down", "name", sys.name)

	order := []*BasicActorRef{sys.user, sys.temp, sys.sysm, sys.root}
	for _, ref := range order {
		ref.SysTell(CommandStop)

		if err := sys.WhenTerminated(ctx, ref); err != nil {
			log.ErrorS(ctx, "Actor system shutdown incomplete",
				err, "stuck_at", ref.Path())

			return err
		}
	}

	sys.timer.Stop()
	sys.dispatcher.Shutdown()

	log.InfoS(ctx, "Actor system shutdown completed", "name", sys.name)

	return nil
}

// TreeString renders the supervision tree from the root, one actor path
// per line, children indented under their parents in creation order.
func (sys *ActorSystem) TreeString() string {
	var sb strings.Builder
	writeTree(&sb, sys.root, 0)

	return sb.String()
}

// PrintTree prints the supervision tree to standard output.
func (sys *ActorSystem) PrintTree() {
	fmt.Print(sys.TreeString())
}

// writeTree renders one actor and recurses into its children.
func writeTree(sb *strings.Builder, ref *BasicActorRef, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(ref.Name())
	sb.WriteString("\n")

	for _, child := range ref.Children() {
		writeTree(sb, child, depth+1)
	}
}
