package moderation

import (
	"time"

	"github.com/utafrali/ReviewsGo/internal/domain"
	apperrors "github.com/utafrali/ReviewsGo/pkg/errors"
)

// Allowed status moves:
//
//	PUBLISHED -> HIDDEN     requires a catalog hide reason
//	PUBLISHED -> ARCHIVED
//	PUBLISHED -> PUBLISHED  no-op
//	HIDDEN    -> PUBLISHED  clears the hide reason
//	HIDDEN    -> HIDDEN     replaces the hide reason (reason edit)
//	HIDDEN    -> ARCHIVED   clears the hide reason
//	ARCHIVED  -> ARCHIVED   no-op
//
// ARCHIVED is terminal: no move out of it is ever permitted.

// Apply validates the requested status move against the review's current
// state and mutates the review in place on success. A review always ends up
// with a hide reason exactly when it is HIDDEN. The review is left untouched
// when an error is returned.
func Apply(review *domain.Review, target string, hideReason *string, allowed []Reason) error {
	if !domain.IsValidStatus(target) {
		return apperrors.InvalidInput("unknown review status: " + target)
	}

	if review.Status == domain.StatusArchived && target != domain.StatusArchived {
		return apperrors.InvalidTransition(review.Status, target)
	}

	switch target {
	case domain.StatusPublished:
		if review.Status == domain.StatusPublished {
			return nil
		}
		review.Status = domain.StatusPublished
		review.HideReason = nil

	case domain.StatusHidden:
		if hideReason == nil || *hideReason == "" {
			return apperrors.InvalidInput("a hide reason is required to hide a review")
		}
		if !reasonAllowed(*hideReason, allowed) {
			return apperrors.InvalidInput("unknown hide reason: " + *hideReason)
		}
		reason := *hideReason
		review.Status = domain.StatusHidden
		review.HideReason = &reason

	case domain.StatusArchived:
		if review.Status == domain.StatusArchived {
			return nil
		}
		review.Status = domain.StatusArchived
		review.HideReason = nil
	}

	review.UpdatedAt = time.Now().UTC()
	return nil
}

func reasonAllowed(value string, allowed []Reason) bool {
	for _, r := range allowed {
		if r.Value == value {
			return true
		}
	}
	return false
}
