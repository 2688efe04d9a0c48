// ABOUTME: ItemState model holding per-item read/starred flags with flip timestamps
// ABOUTME: Rows are created lazily; a missing row reads as both flags false

package models

import "time"

// ItemState holds the read/starred flags for one item
type ItemState struct {
	ItemID    string
	IsRead    bool
	IsStarred bool
	ReadAt    *time.Time
	StarredAt *time.Time
}
