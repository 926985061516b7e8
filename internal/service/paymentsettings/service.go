package paymentsettings

import (
	"context"
	"net/url"
	"strings"

	"hayase/internal/domain"
	settingsrepo "hayase/internal/repository/paymentsettings"
)

type Service struct {
	repo settingsrepo.Repository
}

func New(repo settingsrepo.Repository) *Service {
	return &Service{repo: repo}
}

// Active is what the storefront shows next to the payment reference field.
func (s *Service) Active(ctx context.Context) (*domain.PaymentSettings, error) {
	return s.repo.GetActive(ctx)
}

func (s *Service) Latest(ctx context.Context) (*domain.PaymentSettings, error) {
	return s.repo.Latest(ctx)
}

func (s *Service) Save(ctx context.Context, in domain.PaymentSettings) (*domain.PaymentSettings, error) {
	in.UPIID = strings.TrimSpace(in.UPIID)
	in.AccountName = strings.TrimSpace(in.AccountName)
	in.QRCodeURL = strings.TrimSpace(in.QRCodeURL)
	if in.UPIID == "" || !strings.Contains(in.UPIID, "@") {
		return nil, &domain.ValidationError{Field: "upiId", Message: "must look like name@bank"}
	}
	if in.AccountName == "" {
		return nil, &domain.ValidationError{Field: "accountName", Message: "required"}
	}
	if in.QRCodeURL != "" {
		if u, err := url.Parse(in.QRCodeURL); err != nil || u.Scheme == "" || u.Host == "" {
			return nil, &domain.ValidationError{Field: "qrCodeUrl", Message: "must be an absolute URL"}
		}
	}
	return s.repo.Upsert(ctx, in)
}
