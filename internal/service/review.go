package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/event"
	"github.com/utafrali/ReviewsGo/internal/moderation"
	"github.com/utafrali/ReviewsGo/internal/repository"
	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
	"github.com/utafrali/ReviewsGo/pkg/pagination"
)

// StatsCache caches aggregated review statistics per shop. A nil stats
// result from Get means a cache miss.
type StatsCache interface {
	Get(ctx context.Context, shop, productID string) (*domain.ReviewStats, error)
	Set(ctx context.Context, shop, productID string, stats *domain.ReviewStats) error
	Invalidate(ctx context.Context, shop string) error
}

// CreateReviewInput holds the parameters for creating a review or reply.
type CreateReviewInput struct {
	Shop         string
	ProductID    string
	ProductName  string
	CustomerName string
	Rating       *int
	Comment      string
	ReplyTo      *string
	Media        []MediaInput
}

// MediaInput is one attachment on a new review.
type MediaInput struct {
	MediaURL  string
	MediaType string
}

// ListReviewsInput holds filtering and pagination for review listings.
// Pages are zero-indexed.
type ListReviewsInput struct {
	Rating      *int
	ProductName *string
	Published   *bool
	IsRead      *bool
	Page        int
	Size        int
}

// ReviewListResult contains one page of top-level reviews.
type ReviewListResult struct {
	Reviews    []domain.Review `json:"reviews"`
	TotalCount int             `json:"total_count"`
	Page       int             `json:"page"`
	Size       int             `json:"size"`
	TotalPages int             `json:"total_pages"`
}

// ReviewService implements the business logic for review operations.
type ReviewService struct {
	repo     repository.ReviewRepository
	cache    StatsCache
	catalog  moderation.Catalog
	producer *event.Producer
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	repo repository.ReviewRepository,
	cache StatsCache,
	catalog moderation.Catalog,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		repo:     repo,
		cache:    cache,
		catalog:  catalog,
		producer: producer,
		logger:   logger,
	}
}

// CreateReview creates a top-level review or a reply. Top-level reviews
// require a rating; replies must not carry one and must target a top-level
// review of the same product. Creating a reply marks its parent read.
func (s *ReviewService) CreateReview(ctx context.Context, input *CreateReviewInput) (*domain.Review, error) {
	if input.Shop == "" {
		return nil, apperrors.InvalidInput("shop is required")
	}
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product_id is required")
	}
	if strings.TrimSpace(input.Comment) == "" {
		return nil, apperrors.InvalidInput("comment is required")
	}

	isReply := input.ReplyTo != nil && *input.ReplyTo != ""

	if isReply {
		if input.Rating != nil {
			return nil, apperrors.InvalidInput("a reply must not carry a rating")
		}
	} else {
		if input.Rating == nil {
			return nil, apperrors.InvalidInput("a top-level review requires a rating")
		}
		if *input.Rating < 1 || *input.Rating > 5 {
			return nil, apperrors.InvalidInput("rating must be between 1 and 5")
		}
	}

	for _, m := range input.Media {
		if !domain.IsValidMediaType(m.MediaType) {
			return nil, apperrors.InvalidInput("unknown media type: " + m.MediaType)
		}
		if m.MediaURL == "" {
			return nil, apperrors.InvalidInput("media url is required")
		}
	}

	var parent *domain.Review
	if isReply {
		var err error
		parent, err = s.repo.GetByID(ctx, input.Shop, *input.ReplyTo)
		if err != nil {
			return nil, fmt.Errorf("resolve reply parent: %w", err)
		}
		if parent.IsReply() {
			return nil, apperrors.InvalidInput("cannot reply to a reply")
		}
		if parent.ProductID != input.ProductID {
			return nil, apperrors.InvalidInput("reply must target a review of the same product")
		}
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:           uuid.New().String(),
		Shop:         input.Shop,
		ProductID:    input.ProductID,
		ProductName:  input.ProductName,
		CustomerName: input.CustomerName,
		Rating:       input.Rating,
		Comment:      input.Comment,
		ReplyTo:      input.ReplyTo,
		Status:       domain.StatusPublished,
		IsRead:       false,
		IsPinned:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	review.Media = make([]domain.ReviewMedia, 0, len(input.Media))
	for _, m := range input.Media {
		review.Media = append(review.Media, domain.ReviewMedia{
			ID:        uuid.New().String(),
			MediaURL:  m.MediaURL,
			MediaType: m.MediaType,
		})
	}

	if err := s.repo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	// A merchant reply implies the parent review has been seen.
	if isReply && !parent.IsRead {
		if _, err := s.repo.SetRead(ctx, input.Shop, []string{parent.ID}, true); err != nil {
			s.logger.ErrorContext(ctx, "failed to mark parent review read",
				slog.String("review_id", parent.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.invalidateStats(ctx, input.Shop)

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
		slog.Bool("is_reply", isReply),
	)

	return review, nil
}

// GetReview retrieves a review by its ID.
func (s *ReviewService) GetReview(ctx context.Context, shop, id string) (*domain.Review, error) {
	review, err := s.repo.GetByID(ctx, shop, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

// ListReviews returns a page of top-level reviews, pinned first then newest
// first, with reply counts attached.
func (s *ReviewService) ListReviews(ctx context.Context, shop string, input ListReviewsInput) (*ReviewListResult, error) {
	if shop == "" {
		return nil, apperrors.InvalidInput("shop is required")
	}

	page := input.Page
	if page < 0 {
		page = 0
	}
	size := input.Size
	if size <= 0 {
		size = 10
	}
	if size > 100 {
		size = 100
	}

	filter := repository.ReviewFilter{
		Rating:      input.Rating,
		ProductName: input.ProductName,
		Published:   input.Published,
		IsRead:      input.IsRead,
		Offset:      page * size,
		Limit:       size,
	}

	reviews, total, err := s.repo.List(ctx, shop, filter)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	return &ReviewListResult{
		Reviews:    reviews,
		TotalCount: total,
		Page:       page,
		Size:       size,
		TotalPages: pagination.TotalPages(total, size),
	}, nil
}

// ListReplies returns the replies of a top-level review, oldest first.
func (s *ReviewService) ListReplies(ctx context.Context, shop, parentID string, isRead *bool) ([]domain.Review, error) {
	parent, err := s.repo.GetByID(ctx, shop, parentID)
	if err != nil {
		return nil, fmt.Errorf("get parent review: %w", err)
	}
	if parent.IsReply() {
		return nil, apperrors.InvalidInput("replies can only be listed for a top-level review")
	}

	replies, err := s.repo.ListReplies(ctx, shop, parentID, isRead)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}

	return replies, nil
}

// UpdateStatus moves a review through the moderation state machine. The move
// is validated and applied under a row lock so concurrent moderation of the
// same review serializes.
func (s *ReviewService) UpdateStatus(ctx context.Context, shop, id, status string, hideReason *string) (*domain.Review, error) {
	reasons, err := s.catalog.Reasons(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("load hide reasons: %w", err)
	}

	review, err := s.repo.UpdateStatusLocked(ctx, shop, id, func(r *domain.Review) error {
		return moderation.Apply(r, status, hideReason, reasons)
	})
	if err != nil {
		return nil, fmt.Errorf("update review status: %w", err)
	}

	s.invalidateStats(ctx, shop)

	if err := s.producer.PublishStatusChanged(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.status_changed event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review status updated",
		slog.String("review_id", review.ID),
		slog.String("status", review.Status),
	)

	return review, nil
}

// SetRead flips the read flag on a batch of reviews and reports how many
// were updated. Unknown ids and ids from other shops are skipped without
// failing the batch.
func (s *ReviewService) SetRead(ctx context.Context, shop string, ids []string, isRead bool) (int, error) {
	if len(ids) == 0 {
		return 0, apperrors.InvalidInput("at least one review id is required")
	}

	count, err := s.repo.SetRead(ctx, shop, ids, isRead)
	if err != nil {
		return 0, fmt.Errorf("set reviews read: %w", err)
	}

	s.invalidateStats(ctx, shop)

	s.logger.InfoContext(ctx, "reviews read state updated",
		slog.Int("requested", len(ids)),
		slog.Int("updated", count),
		slog.Bool("is_read", isRead),
	)

	return count, nil
}

// TogglePin pins or unpins a top-level review. Replies cannot be pinned.
func (s *ReviewService) TogglePin(ctx context.Context, shop, id string, pinned bool) (*domain.Review, error) {
	current, err := s.repo.GetByID(ctx, shop, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if current.IsReply() {
		return nil, apperrors.InvalidInput("a reply cannot be pinned")
	}

	review, err := s.repo.SetPinned(ctx, shop, id, pinned)
	if err != nil {
		return nil, fmt.Errorf("set review pinned: %w", err)
	}

	if err := s.producer.PublishPinToggled(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.pin_toggled event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review pin toggled",
		slog.String("review_id", review.ID),
		slog.Bool("is_pinned", review.IsPinned),
	)

	return review, nil
}

// GetStats returns aggregate statistics for the shop's top-level reviews,
// optionally restricted to one product. Results are served from cache when
// present; cache failures fall through to the database.
func (s *ReviewService) GetStats(ctx context.Context, shop string, productID string) (*domain.ReviewStats, error) {
	if shop == "" {
		return nil, apperrors.InvalidInput("shop is required")
	}

	cached, err := s.cache.Get(ctx, shop, productID)
	if err != nil {
		s.logger.WarnContext(ctx, "stats cache read failed",
			slog.String("shop", shop),
			slog.String("error", err.Error()),
		)
	}
	if cached != nil {
		return cached, nil
	}

	stats, err := s.repo.GetStats(ctx, shop, productID)
	if err != nil {
		return nil, fmt.Errorf("get review stats: %w", err)
	}

	if err := s.cache.Set(ctx, shop, productID, stats); err != nil {
		s.logger.WarnContext(ctx, "stats cache write failed",
			slog.String("shop", shop),
			slog.String("error", err.Error()),
		)
	}

	return stats, nil
}

// HideReasons returns the hide reason catalog for the shop.
func (s *ReviewService) HideReasons(ctx context.Context, shop string) ([]moderation.Reason, error) {
	reasons, err := s.catalog.Reasons(ctx, shop)
	if err != nil {
		return nil, fmt.Errorf("load hide reasons: %w", err)
	}
	return reasons, nil
}

func (s *ReviewService) invalidateStats(ctx context.Context, shop string) {
	if err := s.cache.Invalidate(ctx, shop); err != nil {
		s.logger.WarnContext(ctx, "stats cache invalidation failed",
			slog.String("shop", shop),
			slog.String("error", err.Error()),
		)
	}
}
