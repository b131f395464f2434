package snapshot

import (
	"strings"
	"time"
)

// Snapshot is an immutable copy of one raw upstream response.
type Snapshot struct {
	ID         string
	Endpoint   string
	RawPayload string
	SyncedAt   time.Time
}

// Family returns the endpoint without ids or query, e.g. "/raids/12" -> "raids".
func Family(endpoint string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(endpoint), "/")
	if idx := strings.IndexAny(trimmed, "/?"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
