package nc

import "errors"

var (
	ErrInvalidStatus   = errors.New("invalid non-conformity status")
	ErrInvalidSeverity = errors.New("invalid severity")

	// CAPA gating rejections. Each names the precondition that failed so
	// callers can surface a specific reason, never a generic failure.
	ErrMissingCorrectiveClosure   = errors.New("resolution requires a completed corrective action")
	ErrMissingRootCause           = errors.New("recurrent non-conformity requires a root cause before resolution")
	ErrMissingEffectivePreventive = errors.New("recurrent non-conformity requires an effective preventive action before resolution")

	// ErrResolvedImmutable rejects transitions out of resolvida. Reopening
	// is not part of the lifecycle.
	ErrResolvedImmutable = errors.New("resolved non-conformity cannot change status")

	ErrInvalidPeriodicityUnit = errors.New("invalid periodicity unit")
)
