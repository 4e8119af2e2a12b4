package actor

import "errors"

// ErrEscalationTerminal indicates that a failure escalated past the root
// guardian, where no supervisor remains to handle it.
var ErrEscalationTerminal = errors.New("escalation reached the root guardian")

// Strategy is a parent's policy for responding to a child's failure. The
// parent's behavior chooses one via SupervisorStrategy when a Failed message
// arrives.
type Strategy int

const (
	// StrategyRestart rebuilds the failed child from its factory. This is
	// the default.
	StrategyRestart Strategy = iota

	// StrategyStop stops the failed child permanently.
	StrategyStop

	// StrategyResume lifts the failed child's suspension and reschedules
	// its mailbox without rebuilding it or touching its children. The
	// behavior instance lost in the panic is not restored, so the child
	// keeps processing system messages but no user messages until a
	// Restart or Stop.
	StrategyResume

	// StrategyEscalate forwards the failure to the parent's own parent.
	// Escalation at the root guardian is terminal and only logged.
	StrategyEscalate
)

// String returns a human-readable strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyRestart:
		return "restart"
	case StrategyStop:
		return "stop"
	case StrategyResume:
		return "resume"
	case StrategyEscalate:
		return "escalate"
	default:
		return "unknown"
	}
}
