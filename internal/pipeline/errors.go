package pipeline

import "errors"

var (
	// ErrArtifactNotFound is returned when an artifact cannot be resolved
	// from either the artifact table or an embedded session record.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrSessionNotFound is returned when a session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnsupportedType is returned when an artifact's capture type has
	// no registered analyzer.
	ErrUnsupportedType = errors.New("unsupported capture type")

	// ErrInvalidPriority is returned when a submission names a priority
	// outside high, medium or low.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrNoFailureFound is returned by Retry when the artifact has no
	// failed processing attempt on record.
	ErrNoFailureFound = errors.New("no failed processing attempt found")

	// ErrNoTaskFound is returned by Status when the artifact has never
	// been submitted for processing.
	ErrNoTaskFound = errors.New("no processing task found")
)
