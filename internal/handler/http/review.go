package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/ReviewsGo/internal/service"
	"github.com/utafrali/ReviewsGo/pkg/httputil"
	"github.com/utafrali/ReviewsGo/pkg/pagination"
	"github.com/utafrali/ReviewsGo/pkg/validator"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateReviewRequest is the JSON request body for creating a review or reply.
type CreateReviewRequest struct {
	ProductID    string               `json:"product_id" validate:"required"`
	ProductName  string               `json:"product_name" validate:"max=255"`
	CustomerName string               `json:"customer_name" validate:"max=255"`
	Rating       *int                 `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment      string               `json:"comment" validate:"required"`
	ReplyTo      *string              `json:"reply_to" validate:"omitempty,uuid4"`
	Media        []CreateMediaRequest `json:"media" validate:"max=10,dive"`
}

// CreateMediaRequest is one attachment in a create request.
type CreateMediaRequest struct {
	MediaURL  string `json:"media_url" validate:"required,url"`
	MediaType string `json:"media_type" validate:"required,oneof=IMAGE VIDEO"`
}

// UpdateStatusRequest is the JSON request body for a moderation move.
type UpdateStatusRequest struct {
	Status     string  `json:"status" validate:"required,oneof=PUBLISHED HIDDEN ARCHIVED"`
	HideReason *string `json:"hide_reason"`
}

// SetReadRequest is the JSON request body for bulk read-state updates.
type SetReadRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=500"`
}

func writeBadRequest(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: message},
	})
}

// --- Handlers ---

// ListReviews handles GET /api/v1/reviews
// @Summary List reviews
// @Description Returns a page of top-level reviews, pinned first, with reply counts
// @Tags reviews
// @Produce json
// @Param page query int false "Zero-indexed page" default(0)
// @Param size query int false "Items per page (max 100)" default(10)
// @Param rating query int false "Filter by star rating (1-5)"
// @Param productName query string false "Filter by product name substring"
// @Param status query bool false "true for published, false for hidden"
// @Param isRead query bool false "Filter by read state"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/reviews [get]
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopFromContext(r.Context())
	if !ok {
		writeBadRequest(w, "shop is required")
		return
	}

	params := pagination.FromRequest(r)

	input := service.ListReviewsInput{
		Page: params.Page,
		Size: params.Size,
	}

	q := r.URL.Query()
	if v := q.Get("rating"); v != "" {
		rating, err := strconv.Atoi(v)
		if err != nil || rating < 1 || rating > 5 {
			writeBadRequest(w, "rating must be an integer between 1 and 5")
			return
		}
		input.Rating = &rating
	}
	if v := q.Get("productName"); v != "" {
		input.ProductName = &v
	}
	if v := q.Get("status"); v != "" {
		published, err := strconv.ParseBool(v)
		if err != nil {
			writeBadRequest(w, "status must be true or false")
			return
		}
		input.Published = &published
	}
	if v := q.Get("isRead"); v != "" {
		isRead, err := strconv.ParseBool(v)
		if err != nil {
			writeBadRequest(w, "isRead must be true or false")
			return
		}
		input.IsRead = &isRead
	}

	result, err := h.service.ListReviews(r.Context(), shop, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK,
		httputil.NewPaginatedResponse(result.Reviews, result.TotalCount, result.Page, result.Size))
}

// GetReview handles GET /api/v1/reviews/{id}
// @Summary Get a review
// @Tags reviews
// @Produce json
// @Param id path string true "Review UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/reviews/{id} [get]
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopFromContext(r.Context())
	if !ok {
		writeBadRequest(w, "shop is required")
		return
	}

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	review, err := h.service.GetReview(r.Context(), shop, id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// ListReplies handles GET /api/v1/reviews/{id}/replies
// @Summary List replies of a review
// @Description Returns the replies of a top-level review, oldest first
// @Tags reviews
// @Produce json
// @Param id path string true "Parent review UUID"
// @Param isRead query bool false "Filter by read state"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/reviews/{id}/replies [get]
func (h *ReviewHandler) ListReplies(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopFromContext(r.Context())
	if !ok {
		writeBadRequest(w, "shop is required")
		return
	}

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var isRead *bool
	if v := r.URL.Query().Get("isRead"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeBadRequest(w, "isRead must be true or false")
			return
		}
		isRead = &parsed
	}

	replies, err := h.service.ListReplies(r.Context(), shop, id.String(), isRead)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: replies})
}

// CreateReview handles POST /api/v1/reviews
// @Summary Create a review or reply
// @Description Submits a top-level review (rating required) or a reply (no rating)
// @Tags reviews
// @Accept json
// @Produce json
// @Param request body CreateReviewRequest true "Review to submit"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/reviews [post]
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopFromContext(r.Context())
	if !ok {
		writeBadRequest(w, "shop is required")
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.CreateReviewInput{
		Shop:         shop,
		ProductID:    req.ProductID,
		ProductName:  req.ProductName,
		CustomerName: req.CustomerName,
		Rating:       req.Rating,
		Comment:      req.Comment,
		ReplyTo:      req.ReplyTo,
	}
	for _, m := range req.Media {
		input.Media = append(input.Media, service.MediaInput{
			MediaURL:  m.MediaURL,
			MediaType: m.MediaType,
		})
	}

	review, err := h.service.CreateReview(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// UpdateStatus handles PUT /api/v1/reviews/{id}/status
// @Summary Moderate a review
// @Description Moves a review between PUBLISHED, HIDDEN, and ARCHIVED. Hiding requires a catalog reason.
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path string true "Review UUID"
// @Param request body UpdateStatusRequest true "Target status"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Router /api/v1/reviews/{id}/status [put]
func (h *ReviewHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopFromContext(r.Context())
	if !ok {
		writeBadRequest(w, "shop is required")
		return
	}

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.service.UpdateStatus(r.Context(), shop, id.String(), req.Status, req.HideReason)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// SetRead handles PUT /api/v1/reviews/read
// @Summary Bulk update read state
// @Description Marks a batch of reviews read or unread; unknown ids are skipped
// @Tags reviews
// @Accept json
// @Produce json
// @Param isRead query bool false "Target read state" default(true)
// @Param request body SetReadRequest true "Review ids"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/reviews/read [put]
func (h *ReviewHandler) SetRead(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopFromContext(r.Context())
	if !ok {
		writeBadRequest(w, "shop is required")
		return
	}

	isRead := true
	if v := r.URL.Query().Get("isRead"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeBadRequest(w, "isRead must be true or false")
			return
		}
		isRead = parsed
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req SetReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	count, err := h.service.SetRead(r.Context(), shop, req.IDs, isRead)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]int{"updated": count}})
}

// PinReview handles PUT /api/v1/reviews/{id}/pin
// @Summary Pin a review
// @Tags reviews
// @Produce json
// @Param id path string true "Review UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/reviews/{id}/pin [put]
func (h *ReviewHandler) PinReview(w http.ResponseWriter, r *http.Request) {
	h.togglePin(w, r, true)
}

// UnpinReview handles PUT /api/v1/reviews/{id}/unpin
// @Summary Unpin a review
// @Tags reviews
// @Produce json
// @Param id path string true "Review UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/reviews/{id}/unpin [put]
func (h *ReviewHandler) UnpinReview(w http.ResponseWriter, r *http.Request) {
	h.togglePin(w, r, false)
}

func (h *ReviewHandler) togglePin(w http.ResponseWriter, r *http.Request, pinned bool) {
	shop, ok := shopFromContext(r.Context())
	if !ok {
		writeBadRequest(w, "shop is required")
		return
	}

	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	review, err := h.service.TogglePin(r.Context(), shop, id.String(), pinned)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// GetStats handles GET /api/v1/reviews/stats
// @Summary Review statistics
// @Description Returns aggregate figures over top-level, non-archived reviews
// @Tags reviews
// @Produce json
// @Param productId query string false "Restrict to one product"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/reviews/stats [get]
func (h *ReviewHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopFromContext(r.Context())
	if !ok {
		writeBadRequest(w, "shop is required")
		return
	}

	stats, err := h.service.GetStats(r.Context(), shop, r.URL.Query().Get("productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}

// GetHideReasons handles GET /api/v1/reviews/hide-reasons
// @Summary Hide reason catalog
// @Description Returns the reasons a review may be hidden with
// @Tags reviews
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/reviews/hide-reasons [get]
func (h *ReviewHandler) GetHideReasons(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopFromContext(r.Context())
	if !ok {
		writeBadRequest(w, "shop is required")
		return
	}

	reasons, err := h.service.HideReasons(r.Context(), shop)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: reasons})
}
