// Package sse frames events for the text/event-stream protocol.
package sse

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FormatMessage renders one server-sent event: an id line, an event line,
// an optional retry hint, and a single data line carrying the JSON form
// of data, terminated by a blank line. retryMillis <= 0 omits the retry
// line. The only failure mode is JSON marshaling of data; callers skip
// the frame on error instead of tearing down the connection.
func FormatMessage(id, event string, data any, retryMillis int) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal event data: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "id: %s\n", id)
	fmt.Fprintf(&b, "event: %s\n", event)
	if retryMillis > 0 {
		fmt.Fprintf(&b, "retry: %d\n", retryMillis)
	}
	fmt.Fprintf(&b, "data: %s\n\n", payload)
	return b.String(), nil
}

// Heartbeat renders a comment-only frame. Clients ignore it as content;
// it exists to reset transport idle timers. The timestamp makes the
// frames useful when eyeballing a raw stream.
func Heartbeat() string {
	return fmt.Sprintf(": heartbeat %s\n\n", time.Now().UTC().Format(time.RFC3339))
}
