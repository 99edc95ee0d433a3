// Package settings stores the wholesale configuration as scalar options and
// exposes it to request handlers as an immutable snapshot.
package settings

import (
	"context"
	"fmt"

	"github.com/xenking/kart-wholesale/internal/domain/wholesale"
)

// Option keys of the wholesale configuration.
const (
	KeyMinQuantity = "wholesale_min_quantity"
	KeyUserRole    = "wholesale_user_role"
	KeyGateMode    = "wholesale_gate_mode"
)

// Repository is the scalar option store.
type Repository interface {
	// GetOptions returns stored values for the given keys. Keys that were
	// never stored are absent from the result.
	GetOptions(ctx context.Context, keys ...string) (map[string]string, error)
	// SetOptions upserts all values at once.
	SetOptions(ctx context.Context, values map[string]string) error
}

// RoleInfo describes a registered user role.
type RoleInfo struct {
	Key  wholesale.Role
	Name string
}

// RoleRepository lists the roles an administrator can choose from.
type RoleRepository interface {
	ListRoles(ctx context.Context) ([]RoleInfo, error)
}

// Update carries submitted settings. A nil field was not submitted and keeps
// its stored value.
type Update struct {
	MinimumQuantity *string
	EligibleRole    *string
	GateMode        *string
}

// ValidationError reports a rejected settings field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Field describes one input of the admin settings form.
type Field struct {
	ID          string
	Name        string
	Type        string
	Description string
	Value       string
	Options     []FieldOption
}

// FieldOption is a choice of a select field.
type FieldOption struct {
	Value string
	Label string
}
