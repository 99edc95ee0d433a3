// Package wholesale implements quantity-gated wholesale pricing: which actors
// qualify, whether a cart passes the quantity gate, which price every cart
// line gets, and what a product page displays.
package wholesale

import "github.com/shopspring/decimal"

// IsEligible reports whether the actor qualifies for wholesale treatment
// under cfg. Anonymous actors never qualify, and neither does anyone while
// the eligible role is disabled.
func IsEligible(actor Actor, cfg Config) bool {
	if !actor.Authenticated || cfg.EligibleRole.Disabled() {
		return false
	}
	return actor.HasRole(cfg.EligibleRole)
}

// GateResult is the outcome of the quantity gate.
type GateResult struct {
	Admitted bool
	// Message is the checkout-blocking notice; empty when admitted.
	Message string
}

// EvaluateCart applies the quantity gate to the cart's aggregate quantity.
// It does not consider eligibility.
func EvaluateCart(cart *Cart, cfg Config) GateResult {
	if cfg.Admits(cart.AggregateQuantity()) {
		return GateResult{Admitted: true}
	}
	return GateResult{Message: cfg.rejectionMessage()}
}

// Resolution summarizes a Resolve call.
type Resolution struct {
	// Eligible is false when the actor did not qualify and the cart was left
	// untouched.
	Eligible bool
	// Quantity is the aggregate quantity the decision was based on.
	Quantity int
	// Discounted counts lines that received their wholesale price.
	Discounted int
}

// PricingPolicy decides cart admission, line prices and product page prices.
type PricingPolicy interface {
	CheckAdmission(actor Actor, cart *Cart, cfg Config) GateResult
	Resolve(actor Actor, cart *Cart, cfg Config) Resolution
	ProjectDisplay(actor Actor, pricing ProductPricing, cfg Config) (Projection, bool)
}

var _ PricingPolicy = Policy{}

// Policy is the quantity-gated wholesale PricingPolicy.
type Policy struct{}

// CheckAdmission runs the quantity gate for eligible actors. Everyone else is
// admitted without a message.
func (Policy) CheckAdmission(actor Actor, cart *Cart, cfg Config) GateResult {
	if !IsEligible(actor, cfg) {
		return GateResult{Admitted: true}
	}
	return EvaluateCart(cart, cfg)
}

// Resolve sets the price of every cart line. For eligible actors each line
// gets its wholesale price when the gate admits the cart and the wholesale
// price is usable, and its base price otherwise. Lines of non-eligible actors
// are not touched. Resolving the same cart twice yields the same prices.
func (Policy) Resolve(actor Actor, cart *Cart, cfg Config) Resolution {
	if !IsEligible(actor, cfg) {
		return Resolution{}
	}

	q := cart.AggregateQuantity()
	res := Resolution{Eligible: true, Quantity: q}
	admitted := cfg.Admits(q)
	for i := range cart.Lines {
		line := &cart.Lines[i]
		if price, ok := resolveLine(line.Pricing, admitted); ok {
			line.Price = price
			res.Discounted++
		} else {
			line.Price = line.Pricing.BasePrice()
		}
	}
	return res
}

func resolveLine(p ProductPricing, admitted bool) (decimal.Decimal, bool) {
	if !admitted {
		return decimal.Zero, false
	}
	return p.Wholesale()
}

// ProjectDisplay returns the product page price projection for eligible
// actors. ok is false when the actor does not qualify.
func (Policy) ProjectDisplay(actor Actor, pricing ProductPricing, cfg Config) (Projection, bool) {
	if !IsEligible(actor, cfg) {
		return Projection{}, false
	}
	return ProjectDisplayPrice(pricing, cfg), true
}
