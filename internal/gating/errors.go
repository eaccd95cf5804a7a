package gating

import "errors"

var (
	// ErrGeometryUnavailable is returned when a gate cannot be classified or
	// does not lie on the requested channel pair.
	ErrGeometryUnavailable = errors.New("gate geometry unavailable")

	// ErrDividerResolutionFailed is returned when no tier produced a divider.
	ErrDividerResolutionFailed = errors.New("quadrant divider resolution failed")

	// ErrWellIDUnresolvable is returned when no well position could be derived.
	ErrWellIDUnresolvable = errors.New("well id unresolvable")

	// ErrDocumentParse is returned when the workspace document cannot be read
	// as namespaced Gating-ML.
	ErrDocumentParse = errors.New("workspace document parse error")

	// ErrGateNotFound is returned by providers for unknown gate identities.
	ErrGateNotFound = errors.New("gate not found")

	// ErrSampleNotFound is returned by providers for unknown sample ids.
	ErrSampleNotFound = errors.New("sample not found")
)
