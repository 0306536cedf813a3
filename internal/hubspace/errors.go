package hubspace

import (
	"errors"
	"strings"
)

// These strings are part of the result shape callers see; they are kept
// exactly as the service has always reported them.
var (
	// ErrNotConnected is returned when the session was never initialized
	// (missing credentials or startup failure).
	ErrNotConnected = errors.New("Hubspace not connected")

	// errCommandTimeout bounds the sync-bridge wait for a single command.
	errCommandTimeout = errors.New("command timed out")
)

const (
	msgAPICallFailed  = "API call failed"
	msgAPIFetchFailed = "API fetch failed"
	msgNotConnected   = "Not connected"
)

// unknownDevice formats the resolution-failure message for a name or id.
func unknownDevice(nameOrID string) string {
	return "Unknown device: " + nameOrID
}

// Predicates for classifying result error strings at the HTTP boundary.

func IsUnknownDevice(msg string) bool { return strings.HasPrefix(msg, "Unknown device: ") }

func IsNotConnected(msg string) bool {
	return msg == ErrNotConnected.Error() || msg == msgNotConnected
}

func IsCommandTimeout(msg string) bool { return msg == errCommandTimeout.Error() }
