package domain

import "time"

// PaymentSettings tells shoppers where to send a UPI payment.
type PaymentSettings struct {
	ID          string    `json:"id"`
	UPIID       string    `json:"upiId"`
	QRCodeURL   string    `json:"qrCodeUrl,omitempty"`
	AccountName string    `json:"accountName"`
	IsActive    bool      `json:"isActive"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
