package wholesale

import (
	"fmt"

	"github.com/go-faster/errors"
)

// DefaultMinimumQuantity is used when no minimum quantity is configured.
const DefaultMinimumQuantity = 3

// GateMode selects how the aggregate cart quantity is compared with the
// configured minimum.
type GateMode string

const (
	// GateExact admits a cart only when its aggregate quantity equals the
	// minimum. Carts with fewer and with more items are both rejected.
	GateExact GateMode = "exact"
	// GateAtLeast admits a cart whose aggregate quantity is at least the minimum.
	GateAtLeast GateMode = "at_least"
)

// ErrUnknownGateMode is returned for gate modes other than GateExact and GateAtLeast.
var ErrUnknownGateMode = errors.New("unknown gate mode")

// ParseGateMode parses a stored or submitted gate mode. Empty input yields GateExact.
func ParseGateMode(s string) (GateMode, error) {
	switch GateMode(s) {
	case "", GateExact:
		return GateExact, nil
	case GateAtLeast:
		return GateAtLeast, nil
	default:
		return "", errors.Wrapf(ErrUnknownGateMode, "%q", s)
	}
}

// Config is the administrator-controlled wholesale configuration. It is
// passed explicitly to every pricing entry point.
type Config struct {
	MinimumQuantity int
	EligibleRole    Role
	GateMode        GateMode
}

// DefaultConfig returns the configuration used when nothing is stored:
// minimum quantity 3, wholesale pricing disabled, exact gate.
func DefaultConfig() Config {
	return Config{
		MinimumQuantity: DefaultMinimumQuantity,
		EligibleRole:    RoleDisabled,
		GateMode:        GateExact,
	}
}

// Validate checks the invariants of a configuration.
func (c Config) Validate() error {
	if c.MinimumQuantity < 0 {
		return errors.Errorf("minimum quantity must not be negative, got %d", c.MinimumQuantity)
	}
	if _, err := ParseGateMode(string(c.GateMode)); err != nil {
		return err
	}
	return nil
}

// Admits applies the quantity gate to an aggregate quantity.
func (c Config) Admits(quantity int) bool {
	if c.GateMode == GateAtLeast {
		return quantity >= c.MinimumQuantity
	}
	return quantity == c.MinimumQuantity
}

// rejectionMessage is the checkout-blocking notice for a rejected cart.
func (c Config) rejectionMessage() string {
	if c.GateMode == GateAtLeast {
		return fmt.Sprintf("Please add at least %d products to your cart to receive a wholesaler discount.", c.MinimumQuantity)
	}
	return fmt.Sprintf("Please add exactly %d products to your cart to receive a wholesaler discount.", c.MinimumQuantity)
}
