package orchestrator

import "errors"

// Failure taxonomy for one orchestrated run. Session and query-timeout
// failures imply a corrupted session and force teardown; extraction and
// persistence failures do not.
var (
	// ErrSession covers session creation and navigation failures.
	ErrSession = errors.New("session failure")
	// ErrQueryTimeout covers an answer region that never populated.
	ErrQueryTimeout = errors.New("query timeout")
	// ErrShortResponse covers a response below the plausible minimum
	// length; the session is assumed to have produced no usable answer.
	ErrShortResponse = errors.New("response too short")
	// ErrNoRecords means the response was valid prose but no extraction
	// strategy matched.
	ErrNoRecords = errors.New("no records extracted")
	// ErrPersistence covers dataset write failures.
	ErrPersistence = errors.New("persistence failure")
	// ErrRunInProgress rejects a run that would overlap another.
	ErrRunInProgress = errors.New("a run is already in progress")
)

// tearsDownSession reports whether the failure invalidates the cached
// session handle.
func tearsDownSession(err error) bool {
	return errors.Is(err, ErrSession) ||
		errors.Is(err, ErrQueryTimeout) ||
		errors.Is(err, ErrShortResponse)
}
