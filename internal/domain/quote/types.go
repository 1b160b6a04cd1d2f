package quote

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is a quote's position in the negotiation.
type Status string

const (
	StatusPending  Status = "pending"
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusPaid     Status = "paid"
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusDraft, StatusSent, StatusRejected},
	StatusDraft:    {StatusDraft, StatusSent, StatusRejected},
	StatusSent:     {StatusDraft, StatusSent, StatusApproved, StatusRejected},
	StatusApproved: {StatusPaid},
	StatusRejected: nil,
	StatusPaid:     nil,
}

// CanTransition reports whether to is reachable from s in one step.
func (s Status) CanTransition(to Status) bool {
	return slices.Contains(transitions[s], to)
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	next, known := transitions[s]
	return known && len(next) == 0
}

// ParseStatus rejects unknown statuses.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := transitions[s]; !ok {
		return "", fmt.Errorf("unknown quote status %q", raw)
	}
	return s, nil
}

// ErrNotFound is returned by repositories for unknown quote ids.
var ErrNotFound = errors.New("quote not found")

// ErrStatusChanged is returned by repositories when another writer moved the quote first.
var ErrStatusChanged = errors.New("quote status changed")

// Quote is a customer's request for a specific kit and the admin's counter offer.
type Quote struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	UserName    string           `json:"userName"`
	UserEmail   string           `json:"userEmail"`
	ProductID   string           `json:"productId"`
	ProductName string           `json:"productName"`
	Status      Status           `json:"status"`
	BasePrice   decimal.Decimal  `json:"basePrice"`
	FinalPrice  *decimal.Decimal `json:"finalPrice,omitempty"`
	AdminNotes  string           `json:"adminNotes,omitempty"`
	Address     string           `json:"address"`
	Phone       string           `json:"phone"`
	PaymentRef  string           `json:"paymentRef,omitempty"`
	PaidAt      *time.Time       `json:"paidAt,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// DisplayPrice is the admin's final price when set, otherwise the catalogue price.
func (q Quote) DisplayPrice() decimal.Decimal {
	if q.FinalPrice != nil {
		return *q.FinalPrice
	}
	return q.BasePrice
}

// Address is the installation site captured at checkout.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	Pincode string `json:"pincode"`
}

// Format renders "street, city - pincode".
func (a Address) Format() string {
	return fmt.Sprintf("%s, %s - %s", strings.TrimSpace(a.Street), strings.TrimSpace(a.City), strings.TrimSpace(a.Pincode))
}

// Requester identifies the signed-in customer.
type Requester struct {
	UserID string
	Name   string
	Email  string
}

// RequestInput is the checkout form.
type RequestInput struct {
	ProductID string  `json:"productId"`
	Address   Address `json:"address"`
	Phone     string  `json:"phone"`
}

// ReviseRequest is the admin's counter offer. A nil price applies the default discount.
type ReviseRequest struct {
	FinalPrice *decimal.Decimal `json:"finalPrice"`
	Status     Status           `json:"status"`
	Notes      string           `json:"notes"`
}

// PaymentReceipt is what the simulated gateway hands back.
type PaymentReceipt struct {
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	PaidAt    time.Time       `json:"paidAt"`
}

// Config holds quote policy.
type Config struct {
	// RevisionDiscount is applied to the base price when an admin revises without a price.
	RevisionDiscount float64
}

// DefaultRevisionDiscount matches the storefront's one-click revision.
const DefaultRevisionDiscount = 0.95
