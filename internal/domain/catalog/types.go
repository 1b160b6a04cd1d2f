package catalog

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// StockStatus is the availability flag admins toggle.
type StockStatus string

const (
	InStock    StockStatus = "in_stock"
	OutOfStock StockStatus = "out_of_stock"
)

// ErrNotFound is returned by repositories for unknown product ids.
var ErrNotFound = errors.New("product not found")

// Product is a solar kit for sale. Money is in rupees.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Capacity    string          `json:"capacity"`
	Price       decimal.Decimal `json:"price"`
	EMI         decimal.Decimal `json:"emi"`
	Savings     decimal.Decimal `json:"savings"`
	ImageURL    string          `json:"image"`
	Description string          `json:"description"`
	Features    []string        `json:"features"`
	Quantity    int             `json:"quantity"`
	StockStatus StockStatus     `json:"stockStatus"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// InStock reports whether the product can be quoted.
func (p Product) InStock() bool {
	return p.StockStatus == InStock
}

// CapacityKW parses the leading number of a label such as "3kW" or "2.5 kW". Unparseable labels sort last.
func (p Product) CapacityKW() float64 {
	label := strings.TrimSpace(p.Capacity)
	end := strings.IndexFunc(label, func(r rune) bool { return !unicode.IsDigit(r) && r != '.' })
	if end == 0 {
		return -1
	}
	if end > 0 {
		label = label[:end]
	}
	kw, err := strconv.ParseFloat(label, 64)
	if err != nil {
		return -1
	}
	return kw
}

// Filter narrows the public listing. Zero values mean no constraint.
type Filter struct {
	Capacity string
	MaxPrice *decimal.Decimal
	MaxEMI   *decimal.Decimal
}

// CreateRequest is the admin form for a new kit.
type CreateRequest struct {
	Name        string          `json:"name"`
	Capacity    string          `json:"capacity"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image"`
	Description string          `json:"description"`
	Features    []string        `json:"features"`
	Quantity    int             `json:"quantity"`
}

// Config holds the pricing heuristics applied to new products.
type Config struct {
	// EMIDivisor: emi = round(price / divisor).
	EMIDivisor int64
	// SavingsRate: savings = round(price * rate).
	SavingsRate float64
	SeedOnEmpty bool
	// ArtworkStyle is appended to every generated artwork prompt.
	ArtworkStyle string
}

// Defaults carried over from the storefront's admin form.
const (
	DefaultEMIDivisor   = 30
	DefaultSavingsRate  = 0.025
	DefaultArtworkStyle = "photorealistic product shot, rooftop solar installation, daylight, no text"
)
