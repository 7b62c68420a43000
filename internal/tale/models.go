// Package tale holds the folktale model and its stores. A folktale is the
// parent record of the cascading-delete relationship: comments and bookmarks
// exist only in reference to it.
package tale

import (
	"time"

	id "fabula/pkg/domain"
)

// Rating is one principal's score for a tale. At most one rating per
// (tale, principal) pair; the storage layer enforces the uniqueness.
type Rating struct {
	UserID  id.UserID `json:"userId"`
	Value   int       `json:"value"`
	RatedAt time.Time `json:"ratedAt"`
}

// Folktale is a content item. CreatedBy/UpdatedBy track provenance; the
// tale is not owned by a single principal.
type Folktale struct {
	ID       id.TaleID `json:"id"`
	Title    string    `json:"title"`
	Region   string    `json:"region,omitempty"`
	Body     string    `json:"body"`
	Tags     []string  `json:"tags,omitempty"`
	ImageURL string    `json:"imageUrl,omitempty"`
	AudioURL string    `json:"audioUrl,omitempty"`

	CreatedBy id.UserID `json:"createdBy"`
	UpdatedBy id.UserID `json:"updatedBy"`

	Ratings []Rating `json:"ratings,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AverageRating computes the mean rating, 0 when unrated.
func (f Folktale) AverageRating() float64 {
	if len(f.Ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range f.Ratings {
		sum += r.Value
	}
	return float64(sum) / float64(len(f.Ratings))
}
