package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

func ParseReviewStatus(s string) (ReviewStatus, error) {
	st := ReviewStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown review status %q", s)
}

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a shopper's rating of a product. Only approved reviews are shown
// on the storefront.
type Review struct {
	ID          string       `json:"id"`
	ProductID   string       `json:"productId"`
	ProductName string       `json:"productName,omitempty"`
	UserName    string       `json:"userName"`
	Rating      int          `json:"rating"`
	Comment     string       `json:"comment"`
	Status      ReviewStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// ReviewSummary aggregates the ratings of a product's reviews.
type ReviewSummary struct {
	Count   int             `json:"count"`
	Average decimal.Decimal `json:"average"`
	// ByRating[i] counts reviews with rating i+1.
	ByRating [MaxRating]int `json:"byRating"`
}

// SummarizeReviews averages ratings to one decimal place.
func SummarizeReviews(reviews []Review) ReviewSummary {
	var (
		sum     ReviewSummary
		ratings int64
	)
	for _, r := range reviews {
		if r.Rating < MinRating || r.Rating > MaxRating {
			continue
		}
		sum.Count++
		sum.ByRating[r.Rating-1]++
		ratings += int64(r.Rating)
	}
	sum.Average = decimal.Zero
	if sum.Count > 0 {
		sum.Average = decimal.NewFromInt(ratings).Div(decimal.NewFromInt(int64(sum.Count))).Round(1)
	}
	return sum
}
