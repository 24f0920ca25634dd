package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/repository"
	"github.com/utafrali/ReviewsGo/pkg/database"
	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
)

// reviewColumns is the scan order shared by every review query.
const reviewColumns = `id, shop, product_id, product_name, customer_name, rating, comment, reply_to, status, hide_reason, is_read, is_pinned, created_at, updated_at`

// ReviewRepository implements review persistence operations using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a review and its media attachments in one transaction.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO reviews (id, shop, product_id, product_name, customer_name, rating, comment, reply_to, status, hide_reason, is_read, is_pinned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = tx.Exec(ctx, query,
		review.ID,
		review.Shop,
		review.ProductID,
		review.ProductName,
		review.CustomerName,
		review.Rating,
		review.Comment,
		review.ReplyTo,
		review.Status,
		review.HideReason,
		review.IsRead,
		review.IsPinned,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("review", "id", review.ID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	mediaQuery := `
		INSERT INTO review_media (id, review_id, position, media_url, media_type)
		VALUES ($1, $2, $3, $4, $5)`

	for i, m := range review.Media {
		if _, err := tx.Exec(ctx, mediaQuery, m.ID, review.ID, i, m.MediaURL, m.MediaType); err != nil {
			return fmt.Errorf("insert review media: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByID returns a single review with its media attachments. Top-level
// reviews also carry their reply counts.
func (r *ReviewRepository) GetByID(ctx context.Context, shop, id string) (*domain.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE shop = $1 AND id = $2`, reviewColumns)

	row := r.pool.QueryRow(ctx, query, shop, id)

	review, err := scanReview(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	if err := r.attachMedia(ctx, []*domain.Review{review}); err != nil {
		return nil, err
	}
	if !review.IsReply() {
		if err := r.attachReplyCounts(ctx, shop, []*domain.Review{review}); err != nil {
			return nil, err
		}
	}

	return review, nil
}

// List returns a page of top-level reviews with pinned reviews first and
// newest first within each group, plus the total count of matching rows.
// Media and reply counts are attached to each returned review.
func (r *ReviewRepository) List(ctx context.Context, shop string, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	conditions := []string{"shop = $1", "reply_to IS NULL"}
	args := []any{shop}
	argIndex := 2

	if filter.Rating != nil {
		conditions = append(conditions, fmt.Sprintf("rating = $%d", argIndex))
		args = append(args, *filter.Rating)
		argIndex++
	}

	if filter.ProductName != nil {
		conditions = append(conditions, fmt.Sprintf("product_name ILIKE $%d", argIndex))
		args = append(args, "%"+*filter.ProductName+"%")
		argIndex++
	}

	if filter.Published != nil {
		status := domain.StatusHidden
		if *filter.Published {
			status = domain.StatusPublished
		}
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, status)
		argIndex++
	}

	if filter.IsRead != nil {
		conditions = append(conditions, fmt.Sprintf("is_read = $%d", argIndex))
		args = append(args, *filter.IsRead)
		argIndex++
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM reviews
		WHERE %s
		ORDER BY is_pinned DESC, created_at DESC
		LIMIT $%d OFFSET $%d`,
		reviewColumns, strings.Join(conditions, " AND "), argIndex, argIndex+1,
	)

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var (
		reviews    []domain.Review
		totalCount int
	)

	for rows.Next() {
		var (
			rv       domain.Review
			rowTotal int
		)

		if err := rows.Scan(
			&rv.ID,
			&rv.Shop,
			&rv.ProductID,
			&rv.ProductName,
			&rv.CustomerName,
			&rv.Rating,
			&rv.Comment,
			&rv.ReplyTo,
			&rv.Status,
			&rv.HideReason,
			&rv.IsRead,
			&rv.IsPinned,
			&rv.CreatedAt,
			&rv.UpdatedAt,
			&rowTotal,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}

		totalCount = rowTotal
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		return []domain.Review{}, totalCount, nil
	}

	refs := make([]*domain.Review, len(reviews))
	for i := range reviews {
		refs[i] = &reviews[i]
	}

	if err := r.attachMedia(ctx, refs); err != nil {
		return nil, 0, err
	}
	if err := r.attachReplyCounts(ctx, shop, refs); err != nil {
		return nil, 0, err
	}

	return reviews, totalCount, nil
}

// ListReplies returns the replies of a top-level review, oldest first.
func (r *ReviewRepository) ListReplies(ctx context.Context, shop, parentID string, isRead *bool) ([]domain.Review, error) {
	conditions := []string{"shop = $1", "reply_to = $2"}
	args := []any{shop, parentID}

	if isRead != nil {
		conditions = append(conditions, "is_read = $3")
		args = append(args, *isRead)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM reviews
		WHERE %s
		ORDER BY created_at ASC`,
		reviewColumns, strings.Join(conditions, " AND "),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	defer rows.Close()

	var replies []domain.Review

	for rows.Next() {
		var rv domain.Review

		if err := rows.Scan(
			&rv.ID,
			&rv.Shop,
			&rv.ProductID,
			&rv.ProductName,
			&rv.CustomerName,
			&rv.Rating,
			&rv.Comment,
			&rv.ReplyTo,
			&rv.Status,
			&rv.HideReason,
			&rv.IsRead,
			&rv.IsPinned,
			&rv.CreatedAt,
			&rv.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan reply row: %w", err)
		}

		replies = append(replies, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reply rows: %w", err)
	}

	if replies == nil {
		return []domain.Review{}, nil
	}

	refs := make([]*domain.Review, len(replies))
	for i := range replies {
		refs[i] = &replies[i]
	}
	if err := r.attachMedia(ctx, refs); err != nil {
		return nil, err
	}

	return replies, nil
}

// UpdateStatusLocked loads the review under a row lock, applies the status
// move, and persists the result. Concurrent moderation of the same review
// serializes on the lock; the loser revalidates against the committed state.
func (r *ReviewRepository) UpdateStatusLocked(ctx context.Context, shop, id string, apply func(*domain.Review) error) (*domain.Review, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE shop = $1 AND id = $2 FOR UPDATE`, reviewColumns)

	review, err := scanReview(tx.QueryRow(ctx, query, shop, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("lock review: %w", err)
	}

	prevStatus, prevReason := review.Status, review.HideReason

	if err := apply(review); err != nil {
		return nil, err
	}

	// Idempotent moves leave the row untouched.
	if review.Status != prevStatus || !equalReason(review.HideReason, prevReason) {
		updateQuery := `
			UPDATE reviews
			SET status = $1, hide_reason = $2, updated_at = $3
			WHERE shop = $4 AND id = $5`

		review.UpdatedAt = time.Now().UTC()

		if _, err := tx.Exec(ctx, updateQuery, review.Status, review.HideReason, review.UpdatedAt, shop, id); err != nil {
			return nil, fmt.Errorf("update review status: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	if err := r.attachMedia(ctx, []*domain.Review{review}); err != nil {
		return nil, err
	}

	return review, nil
}

// SetRead flips the read flag on the listed reviews in one statement and
// reports how many rows matched. Ids from other shops and unknown ids
// simply do not match.
func (r *ReviewRepository) SetRead(ctx context.Context, shop string, ids []string, isRead bool) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `
		UPDATE reviews
		SET is_read = $1, updated_at = $2
		WHERE shop = $3 AND id = ANY($4)`

	tag, err := r.pool.Exec(ctx, query, isRead, time.Now().UTC(), shop, ids)
	if err != nil {
		return 0, fmt.Errorf("set reviews read: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// SetPinned updates the pinned flag on a top-level review. Replies never
// match the update, so pinning one reports not found.
func (r *ReviewRepository) SetPinned(ctx context.Context, shop, id string, pinned bool) (*domain.Review, error) {
	query := fmt.Sprintf(`
		UPDATE reviews
		SET is_pinned = $1, updated_at = $2
		WHERE shop = $3 AND id = $4 AND reply_to IS NULL
		RETURNING %s`, reviewColumns)

	review, err := scanReview(r.pool.QueryRow(ctx, query, pinned, time.Now().UTC(), shop, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("set review pinned: %w", err)
	}

	if err := r.attachMedia(ctx, []*domain.Review{review}); err != nil {
		return nil, err
	}

	return review, nil
}

// GetStats aggregates top-level, non-archived reviews for the shop, with an
// optional product restriction. Unrated rows cannot occur at the top level,
// so every counted row contributes to the rating breakdown.
func (r *ReviewRepository) GetStats(ctx context.Context, shop string, productID string) (*domain.ReviewStats, error) {
	conditions := []string{"shop = $1", "reply_to IS NULL", "status <> $2"}
	args := []any{shop, domain.StatusArchived}

	if productID != "" {
		conditions = append(conditions, "product_id = $3")
		args = append(args, productID)
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*),
			   COALESCE(AVG(rating), 0),
			   COUNT(*) FILTER (WHERE rating = 1),
			   COUNT(*) FILTER (WHERE rating = 2),
			   COUNT(*) FILTER (WHERE rating = 3),
			   COUNT(*) FILTER (WHERE rating = 4),
			   COUNT(*) FILTER (WHERE rating = 5),
			   COUNT(*) FILTER (WHERE NOT is_read)
		FROM reviews
		WHERE %s`, strings.Join(conditions, " AND "),
	)

	var stats domain.ReviewStats

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&stats.TotalReviews,
		&stats.AverageRating,
		&stats.OneStar,
		&stats.TwoStars,
		&stats.ThreeStars,
		&stats.FourStars,
		&stats.FiveStars,
		&stats.UnreadReviews,
	)
	if err != nil {
		return nil, fmt.Errorf("get review stats: %w", err)
	}

	// Round average rating to one decimal place.
	stats.AverageRating = math.Round(stats.AverageRating*10) / 10

	return &stats, nil
}

// attachMedia loads media rows for the given reviews in one query.
func (r *ReviewRepository) attachMedia(ctx context.Context, reviews []*domain.Review) error {
	byID := make(map[string]*domain.Review, len(reviews))
	ids := make([]string, 0, len(reviews))
	for _, rv := range reviews {
		rv.Media = []domain.ReviewMedia{}
		byID[rv.ID] = rv
		ids = append(ids, rv.ID)
	}

	query := `
		SELECT review_id, id, media_url, media_type
		FROM review_media
		WHERE review_id = ANY($1)
		ORDER BY review_id, position`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("load review media: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			reviewID string
			m        domain.ReviewMedia
		)

		if err := rows.Scan(&reviewID, &m.ID, &m.MediaURL, &m.MediaType); err != nil {
			return fmt.Errorf("scan media row: %w", err)
		}

		if rv, ok := byID[reviewID]; ok {
			rv.Media = append(rv.Media, m)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate media rows: %w", err)
	}

	return nil
}

// attachReplyCounts loads total and unread reply counts for the given
// top-level reviews in one grouped query.
func (r *ReviewRepository) attachReplyCounts(ctx context.Context, shop string, reviews []*domain.Review) error {
	ids := make([]string, 0, len(reviews))
	for _, rv := range reviews {
		ids = append(ids, rv.ID)
	}

	query := `
		SELECT reply_to, COUNT(*), COUNT(*) FILTER (WHERE NOT is_read)
		FROM reviews
		WHERE shop = $1 AND reply_to = ANY($2)
		GROUP BY reply_to`

	rows, err := r.pool.Query(ctx, query, shop, ids)
	if err != nil {
		return fmt.Errorf("load reply counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]repository.ReplyCounts, len(ids))

	for rows.Next() {
		var (
			parentID string
			c        repository.ReplyCounts
		)

		if err := rows.Scan(&parentID, &c.Total, &c.Unread); err != nil {
			return fmt.Errorf("scan reply count row: %w", err)
		}

		counts[parentID] = c
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate reply count rows: %w", err)
	}

	for _, rv := range reviews {
		if c, ok := counts[rv.ID]; ok {
			rv.ReplyCount = c.Total
			rv.UnreadReplyCount = c.Unread
		}
	}

	return nil
}

// scanReview scans one review row in reviewColumns order.
func scanReview(row pgx.Row) (*domain.Review, error) {
	var rv domain.Review

	err := row.Scan(
		&rv.ID,
		&rv.Shop,
		&rv.ProductID,
		&rv.ProductName,
		&rv.CustomerName,
		&rv.Rating,
		&rv.Comment,
		&rv.ReplyTo,
		&rv.Status,
		&rv.HideReason,
		&rv.IsRead,
		&rv.IsPinned,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &rv, nil
}

// equalReason compares two optional hide reasons by value.
func equalReason(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
