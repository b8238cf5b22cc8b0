package payroll

import (
	"fmt"

	"github.com/qmuntal/stateless"
)

const (
	triggerMarkPaid    = "markPaid"
	triggerMarkPending = "markPending"
	triggerInvalid     = "invalid"
)

// Transition checks a status change against the Pending ⇄ Paid machine.
// Setting the current status again is allowed.
func Transition(current, target Status) error {
	machine := stateless.NewStateMachine(current)

	machine.Configure(StatusPending).
		Permit(triggerMarkPaid, StatusPaid).
		PermitReentry(triggerMarkPending)

	machine.Configure(StatusPaid).
		Permit(triggerMarkPending, StatusPending).
		PermitReentry(triggerMarkPaid)

	if err := machine.Fire(triggerFor(target)); err != nil {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, target)
	}
	return nil
}

func triggerFor(target Status) string {
	switch target {
	case StatusPaid:
		return triggerMarkPaid
	case StatusPending:
		return triggerMarkPending
	default:
		return triggerInvalid
	}
}

func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusPending, StatusPaid:
		return Status(raw), true
	default:
		return "", false
	}
}
