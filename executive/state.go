package executive

import (
	"time"

	"github.com/pkg/errors"
)

// PlannerState is the Executive's lifecycle state.
type PlannerState int32

const (
	Inactive PlannerState = iota
	Running
	Cancelled
)

func (s PlannerState) String() string {
	switch s {
	case Inactive:
		return "Inactive"
	case Running:
		return "Running"
	case Cancelled:
		return "Cancelled"
	default:
		return "?"
	}
}

// cancelDrainTimeout bounds how long StartPlanner waits for a concurrently
// cancelling worker to reach Inactive before refusing to start.
const cancelDrainTimeout = 2 * time.Second

// ErrCancelTimeout is returned by StartPlanner when a prior worker is still
// draining after cancelDrainTimeout.
var ErrCancelTimeout = errors.New("executive: timed out waiting for prior planner to become inactive")

// Error kinds surfaced by a planning cycle. The other kinds live with their
// owning packages: dubins.ErrOutOfRange and planner.ErrPlanFailure are
// non-fatal and handled at the cycle boundary, and obstacle.ErrMapLoad is
// swallowed at the loader. ControllerUnreachable cancels the loop;
// UnknownFatal cancels then re-raises.
var (
	ErrControllerUnreachable = errors.New("executive: controller publish-plan call failed")
	ErrUnknownFatal          = errors.New("executive: unrecovered panic in the planning worker")
)
