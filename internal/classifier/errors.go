package classifier

import "errors"

var (
	// ErrMissingConversations is returned when no conversation backend is provided
	ErrMissingConversations = errors.New("classifier requires a conversation backend")
	// ErrRunFailed is returned when a run ends in a terminal status other than completed
	ErrRunFailed = errors.New("assistant run did not complete")
	// ErrRunStillPending is returned when a run is still active after the poll timeout
	ErrRunStillPending = errors.New("assistant run still pending")
	// ErrNoReply is returned when a completed run left no assistant message
	ErrNoReply = errors.New("assistant returned no reply")

	errRunPending = errors.New("run pending")
)
