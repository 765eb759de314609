package repo

import "time"

// LedgerFilter narrows and paginates ledger listings. Entries always come
// back newest first; Limit is capped at the repository default.
type LedgerFilter struct {
	Since  *time.Time
	Until  *time.Time
	Limit  *int
	Offset *int
}
