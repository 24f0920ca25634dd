package domain

import (
	"time"
)

// Review status constants. PUBLISHED reviews are visible on the storefront,
// HIDDEN reviews are withheld with a merchant-supplied reason, and ARCHIVED
// reviews are terminally retired.
const (
	StatusPublished = "PUBLISHED"
	StatusHidden    = "HIDDEN"
	StatusArchived  = "ARCHIVED"
)

// Media type constants for review attachments.
const (
	MediaTypeImage = "IMAGE"
	MediaTypeVideo = "VIDEO"
)

// Review represents a customer review or a merchant reply on a product.
// A reply references its parent review through ReplyTo and carries no rating;
// a top-level review always carries a rating. Every review belongs to exactly
// one shop and is never visible outside it.
type Review struct {
	ID           string        `json:"id"`
	Shop         string        `json:"shop"`
	ProductID    string        `json:"product_id"`
	ProductName  string        `json:"product_name"`
	CustomerName string        `json:"customer_name,omitempty"`
	Rating       *int          `json:"rating,omitempty"`
	Comment      string        `json:"comment"`
	Media        []ReviewMedia `json:"media"`
	ReplyTo      *string       `json:"reply_to,omitempty"`
	Status       string        `json:"status"`
	HideReason   *string       `json:"hide_reason,omitempty"`
	IsRead       bool          `json:"is_read"`
	IsPinned     bool          `json:"is_pinned"`

	// ReplyCount and UnreadReplyCount are derived for top-level reviews
	// when listing; they are not stored columns.
	ReplyCount       int `json:"reply_count"`
	UnreadReplyCount int `json:"unread_reply_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReviewMedia is an image or video attached to a review.
type ReviewMedia struct {
	ID        string `json:"id"`
	MediaURL  string `json:"media_url"`
	MediaType string `json:"media_type"`
}

// IsReply reports whether the review is a reply to another review.
func (r *Review) IsReply() bool {
	return r.ReplyTo != nil && *r.ReplyTo != ""
}

// IsAnonymous reports whether the review was submitted without a customer name.
func (r *Review) IsAnonymous() bool {
	return r.CustomerName == ""
}

// IsValidStatus reports whether s is a recognized review status.
func IsValidStatus(s string) bool {
	switch s {
	case StatusPublished, StatusHidden, StatusArchived:
		return true
	}
	return false
}

// IsValidMediaType reports whether t is a recognized media type.
func IsValidMediaType(t string) bool {
	return t == MediaTypeImage || t == MediaTypeVideo
}

// ReviewStats contains aggregate statistics over a shop's top-level reviews.
// Archived reviews and replies are excluded from every figure.
type ReviewStats struct {
	TotalReviews  int     `json:"total_reviews"`
	AverageRating float64 `json:"average_rating"`
	OneStar       int     `json:"one_star"`
	TwoStars      int     `json:"two_stars"`
	ThreeStars    int     `json:"three_stars"`
	FourStars     int     `json:"four_stars"`
	FiveStars     int     `json:"five_stars"`
	UnreadReviews int     `json:"unread_reviews"`
}
