// Package comment holds comments on folktales. A comment must never outlive
// the tale it references; the cascading delete coordinator enforces this,
// not the store's referential mechanics.
package comment

import (
	"time"

	id "fabula/pkg/domain"
)

// Comment is one principal's comment on a tale. At most one comment per
// (tale, principal) pair.
type Comment struct {
	ID     id.CommentID `json:"id"`
	TaleID id.TaleID    `json:"taleId"`
	UserID id.UserID    `json:"userId"`
	Body   string       `json:"body"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
