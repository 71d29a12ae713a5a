// Package rerrors defines the error kinds Redpiler's control surface can
// produce. Per spec, UnsupportedBlock is not one of these: an unclassified
// block is silently skipped by IdentifyNodes, not reported as an error.
package rerrors

import "errors"

// ErrTooLarge is returned by compile when the region would produce more
// nodes than the configured cap. The partial graph is discarded.
var ErrTooLarge = errors.New("redpiler: region exceeds node cap")

// ErrSchedulerOverflow names the scheduler-overflow error kind. The core
// does not return it: an out-of-horizon schedule() call fails inside the
// scheduler with scheduler.ErrOverflow, the backend records that as an
// overflow, and the driver's next Tick performs an automatic reset, so
// callers of the control surface never see an error for it.
var ErrSchedulerOverflow = errors.New("redpiler: schedule delay exceeds scheduler horizon")

// ErrInvariantViolated marks an internal bug (e.g. more than one pending
// tick observed for a node). No code path in the core returns it, and
// there is no uncompiled/interpreted fallback mode to switch to.
var ErrInvariantViolated = errors.New("redpiler: internal invariant violated")
