package domain

import (
	"fmt"
	"strings"
	"time"
)

type RequestStatus string

const (
	RequestPending     RequestStatus = "pending"
	RequestFound       RequestStatus = "found"
	RequestUnavailable RequestStatus = "unavailable"
)

func ParseRequestStatus(s string) (RequestStatus, error) {
	st := RequestStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case RequestPending, RequestFound, RequestUnavailable:
		return st, nil
	}
	return "", fmt.Errorf("unknown request status %q", s)
}

// Budget is the price band a shopper is willing to pay for a hunted figure.
type Budget string

const (
	BudgetUnder5k  Budget = "<5k"
	Budget5kTo10k  Budget = "5k-10k"
	Budget10kTo20k Budget = "10k-20k"
	BudgetOver20k  Budget = "20k+"
)

func (b Budget) Valid() bool {
	switch b {
	case BudgetUnder5k, Budget5kTo10k, Budget10kTo20k, BudgetOver20k:
		return true
	}
	return false
}

// ConciergeRequest asks the shop to source a figure it does not list.
type ConciergeRequest struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Email             string        `json:"email"`
	CharacterName     string        `json:"characterName"`
	Budget            Budget        `json:"budget"`
	ReferenceImageURL string        `json:"referenceImageUrl,omitempty"`
	Status            RequestStatus `json:"status"`
	CreatedAt         time.Time     `json:"createdAt"`
}
