package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type productSeed struct {
	ID           string
	Name         string
	Description  string
	PricePaise   int64
	Stock        int
	Images       []string
	Manufacturer string
	Scale        string
	Condition    string
	Category     string
	Featured     bool
}

type couponSeed struct {
	Code          string
	DiscountType  string
	DiscountValue string
	MinOrderPaise int64
}

// Apply inserts demo figures, coupons and payment settings for manual
// testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	products := []productSeed{
		{
			ID:           "6f1c3a52-0b8e-4f3e-9d0a-1a2b3c4d5e01",
			Name:         "Asuka Langley Shikinami 1/7",
			Description:  "Evangelion 3.0+1.0 plugsuit version",
			PricePaise:   1450000,
			Stock:        4,
			Images:       []string{"https://cdn.hayase.example/asuka-1.jpg", "https://cdn.hayase.example/asuka-2.jpg"},
			Manufacturer: "Good Smile Company",
			Scale:        "1/7",
			Condition:    "New",
			Category:     "Scale Figure",
			Featured:     true,
		},
		{
			ID:           "6f1c3a52-0b8e-4f3e-9d0a-1a2b3c4d5e02",
			Name:         "Nendoroid Rem",
			Description:  "Re:Zero chibi figure with interchangeable faces",
			PricePaise:   120000,
			Stock:        10,
			Images:       []string{"https://cdn.hayase.example/rem.jpg"},
			Manufacturer: "Good Smile Company",
			Scale:        "Non-scale",
			Condition:    "New",
			Category:     "Nendoroid",
			Featured:     true,
		},
		{
			ID:           "6f1c3a52-0b8e-4f3e-9d0a-1a2b3c4d5e03",
			Name:         "figma Saber",
			Description:  "Fate/stay night articulated figure",
			PricePaise:   85000,
			Stock:        0,
			Images:       []string{"https://cdn.hayase.example/saber.jpg"},
			Manufacturer: "Max Factory",
			Scale:        "Non-scale",
			Condition:    "Pre-owned",
			Category:     "figma",
		},
		{
			ID:           "6f1c3a52-0b8e-4f3e-9d0a-1a2b3c4d5e04",
			Name:         "Acrylic Stand Frieren",
			PricePaise:   30000,
			Stock:        25,
			Manufacturer: "Aniplex",
			Condition:    "New",
			Category:     "Merchandise",
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
	}

	coupons := []couponSeed{
		{Code: "SAVE10", DiscountType: "percent", DiscountValue: "10"},
		{Code: "BIG500", DiscountType: "fixed", DiscountValue: "500"},
		{Code: "MIN1000", DiscountType: "fixed", DiscountValue: "150", MinOrderPaise: 100000},
	}
	for _, c := range coupons {
		if err := upsertCoupon(ctx, pool, c); err != nil {
			return fmt.Errorf("upsert coupon %s: %w", c.Code, err)
		}
	}

	if err := ensurePaymentSettings(ctx, pool); err != nil {
		return fmt.Errorf("ensure payment settings: %w", err)
	}

	return nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	const q = `
INSERT INTO products (id, name, description, price_paise, stock, images, manufacturer, scale, condition, category, is_featured)
VALUES ($1::uuid, $2, NULLIF($3, ''), $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), $11)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_paise = EXCLUDED.price_paise,
    stock = EXCLUDED.stock,
    images = EXCLUDED.images,
    manufacturer = EXCLUDED.manufacturer,
    scale = EXCLUDED.scale,
    condition = EXCLUDED.condition,
    category = EXCLUDED.category,
    is_featured = EXCLUDED.is_featured
`
	images := p.Images
	if images == nil {
		images = []string{}
	}
	_, err := pool.Exec(ctx, q, p.ID, p.Name, p.Description, p.PricePaise, p.Stock, images, p.Manufacturer, p.Scale, p.Condition, p.Category, p.Featured)
	return err
}

func upsertCoupon(ctx context.Context, pool *pgxpool.Pool, c couponSeed) error {
	const q = `
INSERT INTO coupons (code, discount_type, discount_value, min_order_value_paise, is_active)
VALUES ($1, $2, CAST($3 AS TEXT)::numeric, $4, TRUE)
ON CONFLICT ((upper(code))) DO UPDATE
SET discount_type = EXCLUDED.discount_type,
    discount_value = EXCLUDED.discount_value,
    min_order_value_paise = EXCLUDED.min_order_value_paise
`
	_, err := pool.Exec(ctx, q, c.Code, c.DiscountType, c.DiscountValue, c.MinOrderPaise)
	return err
}

func ensurePaymentSettings(ctx context.Context, pool *pgxpool.Pool) error {
	const q = `
INSERT INTO payment_settings (upi_id, account_name, is_active)
SELECT 'hayase@okaxis', 'Hayase Collectibles', TRUE
WHERE NOT EXISTS (SELECT 1 FROM payment_settings)
`
	_, err := pool.Exec(ctx, q)
	return err
}
