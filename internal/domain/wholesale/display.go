package wholesale

import "github.com/shopspring/decimal"

// Projection carries what a product page needs to switch between base and
// wholesale price as the shopper edits the quantity input.
type Projection struct {
	BasePrice decimal.Decimal
	// WholesalePrice falls back to BasePrice when the stored value is unusable.
	WholesalePrice  decimal.Decimal
	MinimumQuantity int
	GateMode        GateMode
	OnSale          bool
}

// ProjectDisplayPrice builds the projection without an eligibility check.
func ProjectDisplayPrice(pricing ProductPricing, cfg Config) Projection {
	base := pricing.BasePrice()
	wholesale, ok := pricing.Wholesale()
	if !ok {
		wholesale = base
	}
	return Projection{
		BasePrice:       base,
		WholesalePrice:  wholesale,
		MinimumQuantity: cfg.MinimumQuantity,
		GateMode:        cfg.GateMode,
		OnSale:          pricing.OnSale(),
	}
}

// PriceFor is the price shown for the entered quantity. It follows the same
// gate as the cart so the page never shows a price checkout would not charge.
func (p Projection) PriceFor(quantity int) decimal.Decimal {
	cfg := Config{MinimumQuantity: p.MinimumQuantity, GateMode: p.GateMode}
	if cfg.Admits(quantity) {
		return p.WholesalePrice
	}
	return p.BasePrice
}
