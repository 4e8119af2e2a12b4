package actor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testMsg is a simple message type for tests.
type testMsg struct {
	BaseMessage

	value int
	text  string
}

// MessageType returns the type name of the message for routing/filtering.
func (*testMsg) MessageType() string { return "testMsg" }

// newTestSystem boots a system with the built-in defaults, bypassing any
// RIKER_CONF file the environment may point at.
func newTestSystem(t *testing.T) *ActorSystem {
	t.Helper()

	sys, err := NewSystemBuilder().
		Name("test").
		Config(DefaultConfig()).
		Create()
	require.NoError(t, err, "system should boot")

	return sys
}

// recorder collects values across goroutines for later assertions.
type recorder[T any] struct {
	mu     sync.Mutex
	values []T
}

// add appends one value.
func (r *recorder[T]) add(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values = append(r.values, v)
}

// snapshot copies the recorded values.
func (r *recorder[T]) snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]T, len(r.values))
	copy(out, r.values)

	return out
}

// count returns how many values have been recorded.
func (r *recorder[T]) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.values)
}

// eventually asserts that the condition becomes true within a generous
// test deadline.
func eventually(t *testing.T, cond func() bool, msgAndArgs ...any) {
	t.Helper()

	require.Eventually(
		t, cond, 5*time.Second, 5*time.Millisecond, msgAndArgs...,
	)
}
