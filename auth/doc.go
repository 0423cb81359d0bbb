// Package auth holds bearer credentials for the HTTP client and
// coordinates token refresh under concurrent load.
//
// A Store is an explicitly constructed instance, not a process-wide
// singleton: callers that want shared credentials pass the same Store
// into every client. Refresh is single-flight — overlapping calls to
// Refresh produce exactly one invocation of the configured RefreshFunc,
// and every caller that joined the window receives the same result.
package auth
