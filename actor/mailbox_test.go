package actor

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// mailboxHarness wires a mailbox, cell, dock and context without a running
// system or dispatcher, so run-tasks can be driven by hand.
type mailboxHarness struct {
	sender  *MailboxSender[*testMsg]
	sysSend *sysSender
	mb      *Mailbox[*testMsg]
	dock    *dock[*testMsg]
	ctx     *Context[*testMsg]
	cell    *actorCell
}

// newMailboxHarness builds a harness around the given behavior factory.
// The parent may be nil.
func newMailboxHarness(limit int, parent *BasicActorRef,
	props Props[*testMsg]) *mailboxHarness {

	sender, sysSend, mb := newMailbox[*testMsg](limit)

	uri := ActorURI{
		UID: 100, Path: "/test/subject", Name: "subject",
		Host: "localhost",
	}
	cell := newCell(uri, parent, nil, sysSend, sender, mb.suspended,
		mb.scheduled)

	d := newDock(cell, props, props())

	ref := &ActorRef[*testMsg]{basic: cell.self, sender: sender}
	ctx := &Context[*testMsg]{myself: ref}

	return &mailboxHarness{
		sender:  sender,
		sysSend: sysSend,
		mb:      mb,
		dock:    d,
		ctx:     ctx,
		cell:    cell,
	}
}

// run drives one run-task by hand.
func (h *mailboxHarness) run() {
	runMailbox(h.mb, h.ctx, h.dock)
}

// orderingActor records whether each delivery arrived on the user or the
// system path.
type orderingActor struct {
	BaseActor[*testMsg]

	order *recorder[string]
}

// Recv records a user delivery.
func (a *orderingActor) Recv(ctx *Context[*testMsg], msg *testMsg,
	sender *BasicActorRef) {

	a.order.add("user:" + msg.text)
}

// SysRecv records a system delivery.
func (a *orderingActor) SysRecv(ctx *Context[*testMsg], msg SystemMsg,
	sender *BasicActorRef) {

	a.order.add("sys:" + msg.MessageType())
}

// TestMailboxStartsSuspended verifies that user messages are held until
// ActorInit has been processed.
func TestMailboxStartsSuspended(t *testing.T) {
	t.Parallel()

	order := &recorder[string]{}
	h := newMailboxHarness(1000, nil, func() Actor[*testMsg] {
		return &orderingActor{order: order}
	})

	require.True(t, h.mb.isSuspended(), "mailbox should start suspended")

	err := h.sender.tryEnqueue(Envelope[*testMsg]{
		Msg: &testMsg{text: "early"},
	})
	require.NoError(t, err)

	h.run()
	require.Zero(t, order.count(),
		"user traffic should be held before init")

	require.NoError(t, h.sysSend.tryEnqueue(sysEnvelope{msg: ActorInit{}}))

	h.run()
	require.False(t, h.mb.isSuspended())
	require.Equal(t, []string{"sys:ActorInit", "user:early"},
		order.snapshot())
}

// TestMailboxSystemPriority verifies that a system message enqueued before
// a user message is dequeued gets processed first within the same wakeup.
func TestMailboxSystemPriority(t *testing.T) {
	t.Parallel()

	order := &recorder[string]{}
	h := newMailboxHarness(1000, nil, func() Actor[*testMsg] {
		return &orderingActor{order: order}
	})

	require.NoError(t, h.sysSend.tryEnqueue(sysEnvelope{msg: ActorInit{}}))
	h.run()
	order.mu.Lock()
	order.values = nil
	order.mu.Unlock()

	// The user message is enqueued first, the system event second; the
	// drain-first rule still delivers the event ahead of it.
	err := h.sender.tryEnqueue(Envelope[*testMsg]{
		Msg: &testMsg{text: "m"},
	})
	require.NoError(t, err)

	evt := &ActorCreated{Actor: h.cell.self}
	require.NoError(t, h.sysSend.tryEnqueue(sysEnvelope{msg: evt}))

	h.run()
	require.Equal(t, []string{"sys:ActorCreated", "user:m"},
		order.snapshot())
}

// TestMailboxQuota verifies that one run-task processes at most the
// configured number of user messages even when more are available.
func TestMailboxQuota(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		limit := rapid.IntRange(1, 50).Draw(rt, "limit")
		total := rapid.IntRange(0, 200).Draw(rt, "total")

		order := &recorder[string]{}
		h := newMailboxHarness(limit, nil, func() Actor[*testMsg] {
			return &orderingActor{order: order}
		})

		require.NoError(rt, h.sysSend.tryEnqueue(sysEnvelope{
			msg: ActorInit{},
		}))
		h.run()

		for i := 0; i < total; i++ {
			err := h.sender.tryEnqueue(Envelope[*testMsg]{
				Msg: &testMsg{value: i},
			})
			require.NoError(rt, err)
		}

		processed := func() int {
			// The init observation is the only system entry.
			return order.count() - 1
		}

		remaining := total
		for remaining > 0 {
			before := processed()
			h.run()

			batch := processed() - before
			want := remaining
			if want > limit {
				want = limit
			}
			require.Equal(rt, want, batch,
				"run-task should honor the quota exactly")

			remaining -= batch
		}
	})
}

// TestMailboxScheduledFlagCleared verifies that a run-task leaves the
// scheduled flag lowered when no work remains.
func TestMailboxScheduledFlagCleared(t *testing.T) {
	t.Parallel()

	order := &recorder[string]{}
	h := newMailboxHarness(1000, nil, func() Actor[*testMsg] {
		return &orderingActor{order: order}
	})

	h.mb.setScheduled(true)
	require.NoError(t, h.sysSend.tryEnqueue(sysEnvelope{msg: ActorInit{}}))
	h.run()

	require.False(t, h.mb.isScheduled())
}

// TestMailboxSentinel verifies the panic boundary: after a panic inside
// Recv the mailbox is suspended, the scheduled flag is lowered, the
// behavior slot stays empty and the parent observes exactly one Failed.
func TestMailboxSentinel(t *testing.T) {
	t.Parallel()

	// The parent only needs a system queue to observe Failed.
	parentSender, parentSys, parentMb := newMailbox[*testMsg](1000)
	parentCell := newCell(ActorURI{
		UID: 101, Path: "/test/parent", Name: "parent",
		Host: "localhost",
	}, nil, nil, parentSys, parentSender, parentMb.suspended,
		parentMb.scheduled)

	h := newMailboxHarness(1000, parentCell.self,
		PropsFromFunc(func(ctx *Context[*testMsg], msg *testMsg,
			sender *BasicActorRef) {

			panic("boom")
		}))

	require.NoError(t, h.sysSend.tryEnqueue(sysEnvelope{msg: ActorInit{}}))
	h.run()

	err := h.sender.tryEnqueue(Envelope[*testMsg]{Msg: &testMsg{}})
	require.NoError(t, err)

	h.mb.setScheduled(true)
	h.run()

	require.True(t, h.mb.isSuspended(),
		"panic should suspend the mailbox")
	require.False(t, h.mb.isScheduled(),
		"panic should lower the scheduled flag")
	require.Nil(t, h.dock.take(), "behavior slot should stay empty")

	// Drain the parent's system queue: the init-time noise is absent
	// here since the parent never ran, so the only entry must be the
	// Failed report.
	env, ok := parentMb.sysTryDequeue()
	require.True(t, ok, "parent should observe the failure")

	failed, ok := env.msg.(*Failed)
	require.True(t, ok, "report should be a Failed message")
	require.True(t, failed.Child.Equal(h.cell.self))

	_, ok = parentMb.sysTryDequeue()
	require.False(t, ok, "exactly one Failed should be reported")
}

// TestMailboxSuspensionMidBatch verifies that a suspension applied by a
// system message between user messages takes effect within the batch.
func TestMailboxSuspensionMidBatch(t *testing.T) {
	t.Parallel()

	order := &recorder[string]{}

	var h *mailboxHarness
	h = newMailboxHarness(1000, nil,
		PropsFromFunc(func(ctx *Context[*testMsg], msg *testMsg,
			sender *BasicActorRef) {

			order.add(msg.text)

			// Simulate a concurrent suspension arriving while the
			// batch is in flight.
			if msg.text == "first" {
				h.mb.setSuspended(true)
			}
		}))

	require.NoError(t, h.sysSend.tryEnqueue(sysEnvelope{msg: ActorInit{}}))
	h.run()

	for _, text := range []string{"first", "second"} {
		err := h.sender.tryEnqueue(Envelope[*testMsg]{
			Msg: &testMsg{text: text},
		})
		require.NoError(t, err)
	}

	h.run()
	require.Equal(t, []string{"first"}, order.snapshot(),
		"suspension should halt the batch")

	h.mb.setSuspended(false)
	h.run()
	require.Equal(t, []string{"first", "second"}, order.snapshot())
}
