// Package bookmark holds per-user tale bookmarks. Like comments, bookmarks
// must never outlive the tale they reference; the cascading delete
// coordinator includes them in its atomic unit.
package bookmark

import (
	"time"

	id "fabula/pkg/domain"
)

// Bookmark marks a tale saved by a principal. At most one per
// (principal, tale) pair.
type Bookmark struct {
	ID     id.BookmarkID `json:"id"`
	UserID id.UserID     `json:"userId"`
	TaleID id.TaleID     `json:"taleId"`

	CreatedAt time.Time `json:"createdAt"`
}
