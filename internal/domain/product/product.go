package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-wholesale/internal/domain/wholesale"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID           string
	Name         string
	Category     string
	RegularPrice decimal.Decimal
	SalePrice    decimal.NullDecimal
	// WholesalePrice is stored as entered by the administrator; empty means unset.
	WholesalePrice string
}

// Pricing returns the price metadata consumed by the wholesale policy.
func (p Product) Pricing() wholesale.ProductPricing {
	return wholesale.ProductPricing{
		RegularPrice:   p.RegularPrice,
		SalePrice:      p.SalePrice,
		WholesalePrice: p.WholesalePrice,
	}
}

// Repository defines catalog reads and the wholesale price write.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	// SetWholesalePrice stores the raw wholesale price. An empty value clears it.
	// Returns ErrNotFound for unknown products.
	SetWholesalePrice(ctx context.Context, id, raw string) error
}
