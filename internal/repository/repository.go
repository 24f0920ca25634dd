package repository

import (
	"context"

	"github.com/utafrali/ReviewsGo/internal/domain"
)

// ReviewFilter describes filtering and pagination for review listings.
// Nil pointer fields mean "no filter". Published filters on status:
// true selects PUBLISHED reviews, false selects HIDDEN ones. Listings
// cover top-level reviews only; replies are fetched per parent.
type ReviewFilter struct {
	Rating      *int
	ProductName *string
	Published   *bool
	IsRead      *bool
	Offset      int
	Limit       int
}

// ReplyCounts holds the derived reply figures for one top-level review.
type ReplyCounts struct {
	Total  int
	Unread int
}

// ReviewRepository defines persistence operations for reviews. Every method
// is scoped to a single shop; rows belonging to other shops are invisible.
type ReviewRepository interface {
	// Create inserts a review together with its media attachments.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID returns a review with its media. ErrNotFound when absent.
	GetByID(ctx context.Context, shop, id string) (*domain.Review, error)

	// List returns a page of top-level reviews, pinned first then newest
	// first, with media and reply counts attached, plus the total count of
	// rows matching the filter.
	List(ctx context.Context, shop string, filter ReviewFilter) ([]domain.Review, int, error)

	// ListReplies returns the replies of a top-level review, oldest first,
	// optionally filtered by read state.
	ListReplies(ctx context.Context, shop, parentID string, isRead *bool) ([]domain.Review, error)

	// UpdateStatusLocked loads the review under a row lock, runs apply
	// against it, and persists the resulting status and hide reason. When
	// apply fails the row is left unchanged and its error is returned.
	UpdateStatusLocked(ctx context.Context, shop, id string, apply func(*domain.Review) error) (*domain.Review, error)

	// SetRead updates the read flag on each listed review and reports how
	// many rows matched. Unknown ids and ids from other shops are skipped.
	SetRead(ctx context.Context, shop string, ids []string, isRead bool) (int, error)

	// SetPinned updates the pinned flag on a top-level review and returns
	// the updated row. ErrNotFound when the id is absent or is a reply.
	SetPinned(ctx context.Context, shop, id string, pinned bool) (*domain.Review, error)

	// GetStats aggregates top-level, non-archived reviews for the shop,
	// optionally restricted to one product.
	GetStats(ctx context.Context, shop string, productID string) (*domain.ReviewStats, error)
}
