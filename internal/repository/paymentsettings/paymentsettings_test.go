package paymentsettings

import (
	"context"
	"errors"
	"testing"

	"hayase/internal/db/dbtest"
	"hayase/internal/domain"
)

func TestPostgres_UpsertAndGetActive(t *testing.T) {
	ctx := context.Background()
	repo := NewPostgres(dbtest.Pool(t))

	if _, err := repo.GetActive(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on empty table, got %v", err)
	}

	created, err := repo.Upsert(ctx, domain.PaymentSettings{UPIID: "hayase@upi", AccountName: "Hayase Figures", IsActive: true})
	if err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}
	if created.ID == "" || created.QRCodeURL != "" {
		t.Fatalf("unexpected settings %+v", created)
	}

	created.QRCodeURL = "https://img.example/qr.png"
	created.IsActive = false
	updated, err := repo.Upsert(ctx, *created)
	if err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	if updated.ID != created.ID || updated.QRCodeURL != "https://img.example/qr.png" {
		t.Fatalf("unexpected update %+v", updated)
	}

	if _, err := repo.GetActive(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected no active settings, got %v", err)
	}
	latest, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.ID != created.ID || latest.IsActive {
		t.Fatalf("unexpected latest %+v", latest)
	}
}
