package lead

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status tracks sales follow-up on a lead.
type Status string

const (
	StatusInterested Status = "interested"
	StatusContacted  Status = "contacted"
	StatusConverted  Status = "converted"
	StatusLost       Status = "lost"
)

// ParseStatus rejects unknown statuses.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusInterested, StatusContacted, StatusConverted, StatusLost:
		return s, nil
	default:
		return "", fmt.Errorf("unknown lead status %q", raw)
	}
}

// ErrNotFound is returned by repositories for unknown lead ids.
var ErrNotFound = errors.New("lead not found")

// DesignLead is interest captured from the savings calculator.
type DesignLead struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId,omitempty"`
	UserEmail        string    `json:"userEmail,omitempty"`
	MonthlyBill      float64   `json:"monthlyBill"`
	EstimatedSavings float64   `json:"estimatedSavings"`
	CarbonOffset     float64   `json:"carbonOffset"`
	Status           Status    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// CaptureRequest is the calculator submission. Email is optional for anonymous visitors.
type CaptureRequest struct {
	MonthlyBill float64 `json:"monthlyBill"`
	Email       string  `json:"email"`
}

// Repository abstracts lead persistence.
type Repository interface {
	Create(ctx context.Context, l DesignLead) (DesignLead, error)
	Get(ctx context.Context, id string) (DesignLead, bool, error)
	Update(ctx context.Context, l DesignLead) (DesignLead, error)
	// List returns leads newest first.
	List(ctx context.Context) ([]DesignLead, error)
}
