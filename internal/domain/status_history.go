package domain

import "time"

// Actor identifiers recorded on history entries. Bot submitters appear
// as their channel reference, e.g. "telegram:12345".
const (
	ActorSystem = "system"
	ActorAdmin  = "admin"
)

// StatusHistoryEntry is an append-only audit record of one status
// transition. Entries are never mutated or deleted; ordered by ID they
// replay the complaint's exact status path, starting from an entry
// whose OldStatus equals the initial status.
type StatusHistoryEntry struct {
	ID          int64
	ComplaintID string
	OldStatus   ComplaintStatus
	NewStatus   ComplaintStatus
	Note        string
	ChangedBy   string
	ChangedAt   time.Time
}
