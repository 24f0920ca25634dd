package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/ReviewsGo/internal/domain"
	pkgkafka "github.com/utafrali/ReviewsGo/pkg/kafka"
)

// Kafka topic constants for review domain events.
const (
	TopicReviewCreated       = "reviews.review.created"
	TopicReviewStatusChanged = "reviews.review.status_changed"
	TopicReviewPinToggled    = "reviews.review.pin_toggled"
)

// Aggregate type constant.
const AggregateTypeReview = "review"

// Source identifier for events originating from the reviews service.
const SourceReviewsService = "reviews-service"

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ID           string  `json:"id"`
	Shop         string  `json:"shop"`
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name"`
	CustomerName string  `json:"customer_name,omitempty"`
	Rating       *int    `json:"rating,omitempty"`
	ReplyTo      *string `json:"reply_to,omitempty"`
	Status       string  `json:"status"`
}

// ReviewStatusChangedData is the payload for a review.status_changed event.
type ReviewStatusChangedData struct {
	ID         string  `json:"id"`
	Shop       string  `json:"shop"`
	ProductID  string  `json:"product_id"`
	Status     string  `json:"status"`
	HideReason *string `json:"hide_reason,omitempty"`
}

// ReviewPinToggledData is the payload for a review.pin_toggled event.
type ReviewPinToggledData struct {
	ID       string `json:"id"`
	Shop     string `json:"shop"`
	IsPinned bool   `json:"is_pinned"`
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the reviews service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	data := ReviewCreatedData{
		ID:           review.ID,
		Shop:         review.Shop,
		ProductID:    review.ProductID,
		ProductName:  review.ProductName,
		CustomerName: review.CustomerName,
		Rating:       review.Rating,
		ReplyTo:      review.ReplyTo,
		Status:       review.Status,
	}

	event, err := pkgkafka.NewEvent(TopicReviewCreated, review.ID, AggregateTypeReview, SourceReviewsService, data)
	if err != nil {
		return fmt.Errorf("create review.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewCreated, event); err != nil {
		return fmt.Errorf("publish review.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.created event",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
	)

	return nil
}

// PublishStatusChanged publishes a review.status_changed event.
func (p *Producer) PublishStatusChanged(ctx context.Context, review *domain.Review) error {
	data := ReviewStatusChangedData{
		ID:         review.ID,
		Shop:       review.Shop,
		ProductID:  review.ProductID,
		Status:     review.Status,
		HideReason: review.HideReason,
	}

	event, err := pkgkafka.NewEvent(TopicReviewStatusChanged, review.ID, AggregateTypeReview, SourceReviewsService, data)
	if err != nil {
		return fmt.Errorf("create review.status_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewStatusChanged, event); err != nil {
		return fmt.Errorf("publish review.status_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.status_changed event",
		slog.String("review_id", review.ID),
		slog.String("status", review.Status),
	)

	return nil
}

// PublishPinToggled publishes a review.pin_toggled event.
func (p *Producer) PublishPinToggled(ctx context.Context, review *domain.Review) error {
	data := ReviewPinToggledData{
		ID:       review.ID,
		Shop:     review.Shop,
		IsPinned: review.IsPinned,
	}

	event, err := pkgkafka.NewEvent(TopicReviewPinToggled, review.ID, AggregateTypeReview, SourceReviewsService, data)
	if err != nil {
		return fmt.Errorf("create review.pin_toggled event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewPinToggled, event); err != nil {
		return fmt.Errorf("publish review.pin_toggled event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.pin_toggled event",
		slog.String("review_id", review.ID),
	)

	return nil
}
