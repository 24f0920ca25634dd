package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ReviewsGo/internal/domain"
	"github.com/utafrali/ReviewsGo/internal/event"
	"github.com/utafrali/ReviewsGo/internal/moderation"
	"github.com/utafrali/ReviewsGo/internal/repository"
	"github.com/utafrali/ReviewsGo/internal/service"
	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
	"github.com/utafrali/ReviewsGo/pkg/health"
	pkgkafka "github.com/utafrali/ReviewsGo/pkg/kafka"
)

// =============================================================================
// Mock ReviewRepository
// =============================================================================

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepo) GetByID(ctx context.Context, shop, id string) (*domain.Review, error) {
	args := m.Called(ctx, shop, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepo) List(ctx context.Context, shop string, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	args := m.Called(ctx, shop, filter)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepo) ListReplies(ctx context.Context, shop, parentID string, isRead *bool) ([]domain.Review, error) {
	args := m.Called(ctx, shop, parentID, isRead)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepo) UpdateStatusLocked(ctx context.Context, shop, id string, apply func(*domain.Review) error) (*domain.Review, error) {
	args := m.Called(ctx, shop, id, apply)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepo) SetRead(ctx context.Context, shop string, ids []string, isRead bool) (int, error) {
	args := m.Called(ctx, shop, ids, isRead)
	return args.Int(0), args.Error(1)
}

func (m *mockReviewRepo) SetPinned(ctx context.Context, shop, id string, pinned bool) (*domain.Review, error) {
	args := m.Called(ctx, shop, id, pinned)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepo) GetStats(ctx context.Context, shop string, productID string) (*domain.ReviewStats, error) {
	args := m.Called(ctx, shop, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewStats), args.Error(1)
}

// =============================================================================
// Mock StatsCache
// =============================================================================

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, shop, productID string) (*domain.ReviewStats, error) {
	args := m.Called(ctx, shop, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewStats), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, shop, productID string, stats *domain.ReviewStats) error {
	args := m.Called(ctx, shop, productID, stats)
	return args.Error(0)
}

func (m *mockCache) Invalidate(ctx context.Context, shop string) error {
	args := m.Called(ctx, shop)
	return args.Error(0)
}

// =============================================================================
// Helpers
// =============================================================================

const testShop = "demo.myshopify.com"

const (
	testReviewID = "4e9c9f0a-91f4-4f6a-8dce-0f2c6c6ad2b1"
	testParentID = "b3a1c0de-5b2f-4f18-9a41-7f3f0d9be0aa"
	testGhostID  = "9d8c7b6a-5f4e-4d3c-8b2a-190817161514"
)

func newTestRouter(repo *mockReviewRepo, cache *mockCache) http.Handler {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaCfg.Async = true
	producer := event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)

	catalog := moderation.NewStaticCatalog([]moderation.Reason{
		{Label: "Spam", Value: "spam"},
		{Label: "Other", Value: "other"},
	})

	svc := service.NewReviewService(repo, cache, catalog, producer, logger)
	return NewRouter(svc, health.NewHandler(), logger)
}

func doRequest(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shop-Domain", testShop)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func publishedReview(id string) *domain.Review {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return &domain.Review{
		ID:        id,
		Shop:      testShop,
		ProductID: "prod-1",
		Rating:    intPtr(5),
		Comment:   "Great!",
		Status:    domain.StatusPublished,
		Media:     []domain.ReviewMedia{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// =============================================================================
// Tenant resolution
// =============================================================================

func TestMissingShopRejected(t *testing.T) {
	router := newTestRouter(new(mockReviewRepo), new(mockCache))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "shop is required")
}

func TestShopFromQueryParam(t *testing.T) {
	repo := new(mockReviewRepo)
	router := newTestRouter(repo, new(mockCache))

	repo.On("List", mock.Anything, testShop, mock.Anything).Return([]domain.Review{}, 0, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews?shop="+testShop, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

// =============================================================================
// ListReviews
// =============================================================================

func TestListReviews_PaginationEnvelope(t *testing.T) {
	repo := new(mockReviewRepo)
	router := newTestRouter(repo, new(mockCache))

	repo.On("List", mock.Anything, testShop, repository.ReviewFilter{Offset: 10, Limit: 10}).
		Return([]domain.Review{*publishedReview("review-1")}, 25, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/reviews?page=1&size=10", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data       []domain.Review `json:"data"`
		TotalCount int             `json:"total_count"`
		Page       int             `json:"page"`
		Size       int             `json:"size"`
		TotalPages int             `json:"total_pages"`
		HasNext    bool            `json:"has_next"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, 25, resp.TotalCount)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 3, resp.TotalPages)
	assert.True(t, resp.HasNext)
}

func TestListReviews_Filters(t *testing.T) {
	repo := new(mockReviewRepo)
	router := newTestRouter(repo, new(mockCache))

	expected := repository.ReviewFilter{
		Rating:      intPtr(4),
		ProductName: strPtr("Widget"),
		Published:   boolPtr(true),
		IsRead:      boolPtr(false),
		Offset:      0,
		Limit:       10,
	}
	repo.On("List", mock.Anything, testShop, expected).Return([]domain.Review{}, 0, nil)

	rec := doRequest(t, router, http.MethodGet,
		"/api/v1/reviews?rating=4&productName=Widget&status=true&isRead=false", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestListReviews_BadRating(t *testing.T) {
	router := newTestRouter(new(mockReviewRepo), new(mockCache))

	rec := doRequest(t, router, http.MethodGet, "/api/v1/reviews?rating=9", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// CreateReview
// =============================================================================

func TestCreateReview_Created(t *testing.T) {
	repo := new(mockReviewRepo)
	cache := new(mockCache)
	router := newTestRouter(repo, cache)

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	cache.On("Invalidate", mock.Anything, testShop).Return(nil)

	body := map[string]any{
		"product_id":   "prod-1",
		"product_name": "Widget",
		"rating":       5,
		"comment":      "Great!",
		"media": []map[string]string{
			{"media_url": "https://cdn.example.com/1.jpg", "media_type": "IMAGE"},
		},
	}

	rec := doRequest(t, router, http.MethodPost, "/api/v1/reviews", body)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data domain.Review `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.ID)
	assert.Equal(t, domain.StatusPublished, resp.Data.Status)
}

func TestCreateReview_ValidationFailure(t *testing.T) {
	router := newTestRouter(new(mockReviewRepo), new(mockCache))

	body := map[string]any{
		"product_id": "prod-1",
		"rating":     7,
		"comment":    "out of range",
	}

	rec := doRequest(t, router, http.MethodPost, "/api/v1/reviews", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestCreateReview_MissingComment(t *testing.T) {
	router := newTestRouter(new(mockReviewRepo), new(mockCache))

	body := map[string]any{
		"product_id": "prod-1",
		"rating":     4,
	}

	rec := doRequest(t, router, http.MethodPost, "/api/v1/reviews", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// UpdateStatus
// =============================================================================

func TestUpdateStatus_InvalidTransitionIs422(t *testing.T) {
	repo := new(mockReviewRepo)
	router := newTestRouter(repo, new(mockCache))

	repo.On("UpdateStatusLocked", mock.Anything, testShop, testReviewID, mock.Anything).
		Return(nil, apperrors.InvalidTransition(domain.StatusArchived, domain.StatusPublished))

	body := map[string]any{"status": "PUBLISHED"}

	rec := doRequest(t, router, http.MethodPut, "/api/v1/reviews/"+testReviewID+"/status", body)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_TRANSITION")
}

func TestUpdateStatus_HideSuccess(t *testing.T) {
	repo := new(mockReviewRepo)
	cache := new(mockCache)
	router := newTestRouter(repo, cache)

	hidden := publishedReview(testReviewID)
	hidden.Status = domain.StatusHidden
	hidden.HideReason = strPtr("spam")

	repo.On("UpdateStatusLocked", mock.Anything, testShop, testReviewID, mock.Anything).Return(hidden, nil)
	cache.On("Invalidate", mock.Anything, testShop).Return(nil)

	body := map[string]any{"status": "HIDDEN", "hide_reason": "spam"}

	rec := doRequest(t, router, http.MethodPut, "/api/v1/reviews/"+testReviewID+"/status", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"hide_reason":"spam"`)
}

func TestUpdateStatus_UnknownStatusRejected(t *testing.T) {
	router := newTestRouter(new(mockReviewRepo), new(mockCache))

	body := map[string]any{"status": "REMOVED"}

	rec := doRequest(t, router, http.MethodPut, "/api/v1/reviews/"+testReviewID+"/status", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// SetRead
// =============================================================================

func TestSetRead_ReportsCount(t *testing.T) {
	repo := new(mockReviewRepo)
	cache := new(mockCache)
	router := newTestRouter(repo, cache)

	ids := []string{"review-1", "review-2", "ghost"}
	repo.On("SetRead", mock.Anything, testShop, ids, true).Return(2, nil)
	cache.On("Invalidate", mock.Anything, testShop).Return(nil)

	body := map[string]any{"ids": ids}

	rec := doRequest(t, router, http.MethodPut, "/api/v1/reviews/read?isRead=true", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"updated":2`)
}

func TestSetRead_EmptyIDsRejected(t *testing.T) {
	router := newTestRouter(new(mockReviewRepo), new(mockCache))

	body := map[string]any{"ids": []string{}}

	rec := doRequest(t, router, http.MethodPut, "/api/v1/reviews/read", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// Pin / Unpin
// =============================================================================

func TestPinReview(t *testing.T) {
	repo := new(mockReviewRepo)
	router := newTestRouter(repo, new(mockCache))

	pinned := publishedReview(testReviewID)
	pinned.IsPinned = true

	repo.On("GetByID", mock.Anything, testShop, testReviewID).Return(publishedReview(testReviewID), nil)
	repo.On("SetPinned", mock.Anything, testShop, testReviewID, true).Return(pinned, nil)

	rec := doRequest(t, router, http.MethodPut, "/api/v1/reviews/"+testReviewID+"/pin", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_pinned":true`)
}

func TestUnpinReview_NotFound(t *testing.T) {
	repo := new(mockReviewRepo)
	router := newTestRouter(repo, new(mockCache))

	repo.On("GetByID", mock.Anything, testShop, testGhostID).
		Return(nil, apperrors.NotFound("review", testGhostID))

	rec := doRequest(t, router, http.MethodPut, "/api/v1/reviews/"+testGhostID+"/unpin", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// Path parameter validation
// =============================================================================

func TestMalformedReviewIDRejected(t *testing.T) {
	repo := new(mockReviewRepo)
	router := newTestRouter(repo, new(mockCache))

	requests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/api/v1/reviews/not-a-uuid", nil},
		{http.MethodGet, "/api/v1/reviews/not-a-uuid/replies", nil},
		{http.MethodPut, "/api/v1/reviews/not-a-uuid/pin", nil},
		{http.MethodPut, "/api/v1/reviews/not-a-uuid/status", map[string]any{"status": "HIDDEN", "hide_reason": "spam"}},
	}

	for _, req := range requests {
		rec := doRequest(t, router, req.method, req.path, req.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, req.path)
		assert.Contains(t, rec.Body.String(), "INVALID_PARAMETER", req.path)
	}

	repo.AssertNotCalled(t, "GetByID")
	repo.AssertNotCalled(t, "UpdateStatusLocked")
	repo.AssertNotCalled(t, "SetPinned")
}

// =============================================================================
// Stats and hide reasons
// =============================================================================

func TestGetStats(t *testing.T) {
	repo := new(mockReviewRepo)
	cache := new(mockCache)
	router := newTestRouter(repo, cache)

	cache.On("Get", mock.Anything, testShop, "").Return(nil, nil)
	repo.On("GetStats", mock.Anything, testShop, "").
		Return(&domain.ReviewStats{TotalReviews: 10, AverageRating: 4.3, FiveStars: 6, UnreadReviews: 3}, nil)
	cache.On("Set", mock.Anything, testShop, "", mock.Anything).Return(nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/reviews/stats", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_reviews":10`)
	assert.Contains(t, rec.Body.String(), `"average_rating":4.3`)
}

func TestGetHideReasons(t *testing.T) {
	router := newTestRouter(new(mockReviewRepo), new(mockCache))

	rec := doRequest(t, router, http.MethodGet, "/api/v1/reviews/hide-reasons", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"label":"Spam"`)
	assert.Contains(t, rec.Body.String(), `"value":"spam"`)
}

// =============================================================================
// Replies
// =============================================================================

func TestListReplies(t *testing.T) {
	repo := new(mockReviewRepo)
	router := newTestRouter(repo, new(mockCache))

	parent := publishedReview(testParentID)
	reply := publishedReview(testReviewID)
	reply.Rating = nil
	reply.ReplyTo = strPtr(testParentID)

	repo.On("GetByID", mock.Anything, testShop, testParentID).Return(parent, nil)
	repo.On("ListReplies", mock.Anything, testShop, testParentID, (*bool)(nil)).
		Return([]domain.Review{*reply}, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/reviews/"+testParentID+"/replies", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reply_to":"`+testParentID+`"`)
}
