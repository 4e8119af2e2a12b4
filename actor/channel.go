package actor

// Topic keys the event bus: publications fan out to every subscriber of the
// publication's topic plus every subscriber of the wildcard topic.
type Topic string

const (
	// TopicAll is the wildcard topic matching every lifecycle topic.
	TopicAll Topic = "*"

	// TopicActorCreated carries ActorCreated events.
	TopicActorCreated Topic = "actor.created"

	// TopicActorRestarted carries ActorRestarted events.
	TopicActorRestarted Topic = "actor.restarted"

	// TopicActorTerminated carries ActorTerminated events.
	TopicActorTerminated Topic = "actor.terminated"

	// TopicDeadLetter carries DeadLetter payloads.
	TopicDeadLetter Topic = "dead_letter"
)

// ChannelMsg is the sealed message union a Channel actor processes.
type ChannelMsg[M Message] interface {
	Message

	// channelMsgMarker seals the union to this package's variants.
	channelMsgMarker(M)
}

// Subscribe registers the subscriber for all future publications on the
// topic.
type Subscribe[M Message] struct {
	BaseMessage

	Topic      Topic
	Subscriber *ActorRef[M]
}

// MessageType returns the type name of the message for routing/filtering.
func (*Subscribe[M]) MessageType() string { return "Subscribe" }

func (*Subscribe[M]) channelMsgMarker(M) {}

// Unsubscribe removes the subscriber from one topic.
type Unsubscribe[M Message] struct {
	BaseMessage

	Topic      Topic
	Subscriber *ActorRef[M]
}

// MessageType returns the type name of the message for routing/filtering.
func (*Unsubscribe[M]) MessageType() string { return "Unsubscribe" }

func (*Unsubscribe[M]) channelMsgMarker(M) {}

// UnsubscribeAll removes the subscriber from every topic.
type UnsubscribeAll[M Message] struct {
	BaseMessage

	Subscriber *ActorRef[M]
}

// MessageType returns the type name of the message for routing/filtering.
func (*UnsubscribeAll[M]) MessageType() string { return "UnsubscribeAll" }

func (*UnsubscribeAll[M]) channelMsgMarker(M) {}

// Publish fans the payload out to the topic's subscribers through their
// ordinary user queues, so publication never blocks and never reorders
// relative to other user messages bound for the same subscriber.
type Publish[M Message] struct {
	BaseMessage

	Topic Topic
	Msg   M
}

// MessageType returns the type name of the message for routing/filtering.
func (*Publish[M]) MessageType() string { return "Publish" }

func (*Publish[M]) channelMsgMarker(M) {}

// Channel is a topic-keyed fan-out actor. Each subscriber receives
// publications for the topics it subscribed to, with the wildcard topic
// matching everything.
type Channel[M Message] struct {
	BaseActor[ChannelMsg[M]]

	subs map[Topic][]*ActorRef[M]
}

// NewChannelProps returns the factory for a Channel actor carrying
// messages of type M.
func NewChannelProps[M Message]() Props[ChannelMsg[M]] {
	return func() Actor[ChannelMsg[M]] {
		return &Channel[M]{
			subs: make(map[Topic][]*ActorRef[M]),
		}
	}
}

// Recv handles subscription bookkeeping and fan-out.
func (ch *Channel[M]) Recv(ctx *Context[ChannelMsg[M]], msg ChannelMsg[M],
	sender *BasicActorRef) {

	switch m := msg.(type) {
	case *Subscribe[M]:
		ch.subs[m.Topic] = append(ch.subs[m.Topic], m.Subscriber)

	case *Unsubscribe[M]:
		ch.remove(m.Topic, m.Subscriber)

	case *UnsubscribeAll[M]:
		for topic := range ch.subs {
			ch.remove(topic, m.Subscriber)
		}

	case *Publish[M]:
		for _, sub := range ch.subs[m.Topic] {
			sub.Tell(m.Msg, sender)
		}
		if m.Topic != TopicAll {
			for _, sub := range ch.subs[TopicAll] {
				sub.Tell(m.Msg, sender)
			}
		}
	}
}

// remove drops one subscriber from one topic, comparing refs by identity.
func (ch *Channel[M]) remove(topic Topic, subscriber *ActorRef[M]) {
	subs := ch.subs[topic]
	for i, sub := range subs {
		if sub.Basic().Equal(subscriber.Basic()) {
			ch.subs[topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// SysChannelMsg is the sealed message union of the system events channel.
type SysChannelMsg interface {
	Message

	sysChannelMsgMarker()
}

// SysSubscribe registers an actor for lifecycle events on the given topic.
// Events are delivered through the subscriber's system queue.
type SysSubscribe struct {
	BaseMessage

	Topic      Topic
	Subscriber *BasicActorRef
}

// MessageType returns the type name of the message for routing/filtering.
func (*SysSubscribe) MessageType() string { return "SysSubscribe" }

func (*SysSubscribe) sysChannelMsgMarker() {}

// SysUnsubscribe removes an actor's lifecycle subscription from one topic.
type SysUnsubscribe struct {
	BaseMessage

	Topic      Topic
	Subscriber *BasicActorRef
}

// MessageType returns the type name of the message for routing/filtering.
func (*SysUnsubscribe) MessageType() string { return "SysUnsubscribe" }

func (*SysUnsubscribe) sysChannelMsgMarker() {}

// SysPublish fans a lifecycle event out to the event's topic subscribers
// and the wildcard subscribers.
type SysPublish struct {
	BaseMessage

	Event SystemEvent
}

// MessageType returns the type name of the message for routing/filtering.
func (*SysPublish) MessageType() string { return "SysPublish" }

func (*SysPublish) sysChannelMsgMarker() {}

// sysEventsChannel is the channel specialization behind PublishEvent.
// Lifecycle events reach subscribers through their system queues, ahead of
// any user traffic, so even a suspended subscriber observes terminations.
type sysEventsChannel struct {
	BaseActor[SysChannelMsg]

	subs map[Topic][]*BasicActorRef
}

// newSysEventsChannelProps returns the factory for the system events
// channel.
func newSysEventsChannelProps() Props[SysChannelMsg] {
	return func() Actor[SysChannelMsg] {
		return &sysEventsChannel{
			subs: make(map[Topic][]*BasicActorRef),
		}
	}
}

// Recv handles subscription bookkeeping and lifecycle fan-out.
func (ch *sysEventsChannel) Recv(ctx *Context[SysChannelMsg],
	msg SysChannelMsg, sender *BasicActorRef) {

	switch m := msg.(type) {
	case *SysSubscribe:
		ch.subs[m.Topic] = append(ch.subs[m.Topic], m.Subscriber)

	case *SysUnsubscribe:
		subs := ch.subs[m.Topic]
		for i, sub := range subs {
			if sub.Equal(m.Subscriber) {
				ch.subs[m.Topic] = append(
					subs[:i], subs[i+1:]...,
				)
				break
			}
		}

	case *SysPublish:
		topic := m.Event.EventTopic()
		for _, sub := range ch.subs[topic] {
			sub.SysTell(m.Event)
		}
		for _, sub := range ch.subs[TopicAll] {
			sub.SysTell(m.Event)
		}
	}
}
