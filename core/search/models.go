package search

import (
	"time"
)

// PercolateQuery source types. Channel queries drive discussion-channel
// membership; email queries drive automatic emails. Only channel queries
// ever reach the membership reconciler.
const (
	SourceTypeChannel        = "discussion_channel"
	SourceTypeAutomaticEmail = "automatic_email"
)

var AllSourceTypes = []string{SourceTypeChannel, SourceTypeAutomaticEmail}

// PercolateQuery is a saved search definition used to determine, per user,
// whether they match a channel's or automatic email's targeting criteria.
// The query body is immutable once made; queries are soft-deleted only.
type PercolateQuery struct {
	ID         int       `json:"id"`
	SourceType string    `json:"source_type"`
	Query      string    `json:"query"` // serialized search definition, opaque here
	IsDeleted  bool      `json:"is_deleted"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// Membership records whether a user should be a member of the channel
// represented by a percolate query, unique on (user, query).
//
// NeedsUpdate=false means the row is believed to accurately reflect the
// external discussion service; NeedsUpdate=true means the external system
// must be made to match IsMember.
type Membership struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	QueryID     int       `json:"query_id"`
	IsMember    bool      `json:"is_member"`
	NeedsUpdate bool      `json:"needs_update"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// MembershipSyncRow is the denormalized view the reconciler loads under row
// lock: the membership plus enough of its query to resolve a channel.
type MembershipSyncRow struct {
	MembershipID int       `db:"membership_id"`
	UserID       int       `db:"user_id"`
	IsMember     bool      `db:"is_member"`
	QueryID      int       `db:"query_id"`
	SourceType   string    `db:"source_type"`
	UpdatedAt    time.Time `db:"updated_at"`
}
