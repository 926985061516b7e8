package concierge

import (
	"context"
	"net/mail"
	"net/url"
	"strings"

	"hayase/internal/domain"
	conciergerepo "hayase/internal/repository/concierge"
)

type Service struct {
	repo conciergerepo.Repository
}

func New(repo conciergerepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Submit(ctx context.Context, in domain.ConciergeRequest) (*domain.ConciergeRequest, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.CharacterName = strings.TrimSpace(in.CharacterName)
	in.ReferenceImageURL = strings.TrimSpace(in.ReferenceImageURL)
	if in.Name == "" {
		return nil, &domain.ValidationError{Field: "name", Message: "required"}
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return nil, &domain.ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	if in.CharacterName == "" {
		return nil, &domain.ValidationError{Field: "characterName", Message: "required"}
	}
	if !in.Budget.Valid() {
		return nil, &domain.ValidationError{Field: "budget", Message: "must be one of <5k, 5k-10k, 10k-20k, 20k+"}
	}
	if in.ReferenceImageURL != "" {
		if u, err := url.Parse(in.ReferenceImageURL); err != nil || u.Scheme == "" || u.Host == "" {
			return nil, &domain.ValidationError{Field: "referenceImageUrl", Message: "must be an absolute URL"}
		}
	}
	in.ID = ""
	in.Status = domain.RequestPending
	return s.repo.Create(ctx, in)
}

func (s *Service) List(ctx context.Context) ([]domain.ConciergeRequest, error) {
	return s.repo.List(ctx)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.RequestStatus) error {
	return s.repo.SetStatus(ctx, id, status)
}
