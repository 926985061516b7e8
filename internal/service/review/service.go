package review

import (
	"context"
	"strings"

	"hayase/internal/domain"
	reviewrepo "hayase/internal/repository/review"
)

const maxCommentLength = 2000

type Service struct {
	repo reviewrepo.Repository
}

func New(repo reviewrepo.Repository) *Service {
	return &Service{repo: repo}
}

// Submit stores a review as pending; it is hidden until an admin approves it.
func (s *Service) Submit(ctx context.Context, in domain.Review) (*domain.Review, error) {
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.UserName = strings.TrimSpace(in.UserName)
	in.Comment = strings.TrimSpace(in.Comment)
	if in.ProductID == "" {
		return nil, domain.ErrNotFound
	}
	if in.UserName == "" {
		return nil, &domain.ValidationError{Field: "userName", Message: "required"}
	}
	if in.Rating < domain.MinRating || in.Rating > domain.MaxRating {
		return nil, &domain.ValidationError{Field: "rating", Message: "must be between 1 and 5"}
	}
	if in.Comment == "" {
		return nil, &domain.ValidationError{Field: "comment", Message: "required"}
	}
	if len(in.Comment) > maxCommentLength {
		return nil, &domain.ValidationError{Field: "comment", Message: "too long"}
	}
	in.ID = ""
	in.Status = domain.ReviewPending
	return s.repo.Create(ctx, in)
}

// Approved lists a product's visible reviews with their rating summary.
func (s *Service) Approved(ctx context.Context, productID string) ([]domain.Review, domain.ReviewSummary, error) {
	reviews, err := s.repo.ListForProduct(ctx, productID, domain.ReviewApproved)
	if err != nil {
		return nil, domain.ReviewSummary{}, err
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	return reviews, domain.SummarizeReviews(reviews), nil
}

func (s *Service) List(ctx context.Context) ([]domain.Review, error) {
	return s.repo.List(ctx)
}

// Moderate approves or rejects a review. Moving it back to pending is refused.
func (s *Service) Moderate(ctx context.Context, id string, status domain.ReviewStatus) error {
	if status != domain.ReviewApproved && status != domain.ReviewRejected {
		return &domain.ValidationError{Field: "status", Message: "must be approved or rejected"}
	}
	return s.repo.SetStatus(ctx, id, status)
}
