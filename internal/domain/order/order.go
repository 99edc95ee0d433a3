package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order is a completed checkout with the prices charged for every line.
type Order struct {
	ID      string
	ActorID string
	Items   []OrderItem
	Total   decimal.Decimal
	// Wholesale is true when at least one line was charged its wholesale price.
	Wholesale bool
	CreatedAt time.Time
}

// OrderItem is a single order line as stored.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Wholesale bool            `json:"wholesale"`
}

// Item is a requested cart line.
type Item struct {
	ProductID string
	Quantity  int
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, order *Order) error
}
