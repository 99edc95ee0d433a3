package settings

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/kart-wholesale/internal/domain/wholesale"
)

// Service loads, validates and saves the wholesale configuration.
type Service struct {
	options Repository
	roles   RoleRepository
}

// NewService creates a Service over the option store and role registry.
func NewService(options Repository, roles RoleRepository) *Service {
	return &Service{options: options, roles: roles}
}

// Load reads the stored configuration. Missing or malformed values fall back
// to their defaults; only store failures are returned as errors.
func (s *Service) Load(ctx context.Context) (wholesale.Config, error) {
	stored, err := s.options.GetOptions(ctx, KeyMinQuantity, KeyUserRole, KeyGateMode)
	if err != nil {
		return wholesale.Config{}, errors.Wrap(err, "get options")
	}

	lg := zctx.From(ctx)
	cfg := wholesale.DefaultConfig()

	if v := strings.TrimSpace(stored[KeyMinQuantity]); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			lg.Warn("Ignoring stored minimum quantity", zap.String("value", v))
		} else {
			cfg.MinimumQuantity = n
		}
	}
	if v, ok := stored[KeyUserRole]; ok {
		role, err := wholesale.ParseRole(v)
		if err != nil {
			lg.Warn("Ignoring stored wholesale role", zap.String("value", v), zap.Error(err))
		} else {
			cfg.EligibleRole = role
		}
	}
	if v, ok := stored[KeyGateMode]; ok {
		mode, err := wholesale.ParseGateMode(strings.TrimSpace(v))
		if err != nil {
			lg.Warn("Ignoring stored gate mode", zap.String("value", v), zap.Error(err))
		} else {
			cfg.GateMode = mode
		}
	}

	return cfg, nil
}

// Save validates and persists the submitted fields, returning the resulting
// configuration. Validation failures are reported as *ValidationError and
// nothing is written.
func (s *Service) Save(ctx context.Context, u Update) (wholesale.Config, error) {
	values := make(map[string]string, 3)

	if u.MinimumQuantity != nil {
		v := strings.TrimSpace(*u.MinimumQuantity)
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return wholesale.Config{}, &ValidationError{
				Field:  KeyMinQuantity,
				Reason: "must be a whole number greater than or equal to 0",
			}
		}
		values[KeyMinQuantity] = strconv.Itoa(n)
	}

	if u.EligibleRole != nil {
		role, err := s.validateRole(ctx, *u.EligibleRole)
		if err != nil {
			return wholesale.Config{}, err
		}
		values[KeyUserRole] = role.String()
	}

	if u.GateMode != nil {
		mode, err := wholesale.ParseGateMode(strings.TrimSpace(*u.GateMode))
		if err != nil {
			return wholesale.Config{}, &ValidationError{
				Field:  KeyGateMode,
				Reason: "must be one of exact, at_least",
			}
		}
		values[KeyGateMode] = string(mode)
	}

	if len(values) > 0 {
		if err := s.options.SetOptions(ctx, values); err != nil {
			return wholesale.Config{}, errors.Wrap(err, "set options")
		}
	}

	return s.Load(ctx)
}

func (s *Service) validateRole(ctx context.Context, raw string) (wholesale.Role, error) {
	role, err := wholesale.ParseRole(raw)
	if err != nil {
		return "", &ValidationError{Field: KeyUserRole, Reason: "malformed role identifier"}
	}
	if role.Disabled() {
		return role, nil
	}

	roles, err := s.roles.ListRoles(ctx)
	if err != nil {
		return "", errors.Wrap(err, "list roles")
	}
	for _, r := range roles {
		if r.Key == role {
			return role, nil
		}
	}
	return "", &ValidationError{Field: KeyUserRole, Reason: "unknown role " + string(role)}
}

// Schema describes the admin settings form with the current values filled in.
func (s *Service) Schema(ctx context.Context) ([]Field, error) {
	cfg, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := s.roles.ListRoles(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list roles")
	}

	roleOptions := make([]FieldOption, 0, len(roles)+1)
	roleOptions = append(roleOptions, FieldOption{Value: "", Label: "Select User Role"})
	for _, r := range roles {
		roleOptions = append(roleOptions, FieldOption{Value: string(r.Key), Label: r.Name})
	}

	roleValue := ""
	if !cfg.EligibleRole.Disabled() {
		roleValue = string(cfg.EligibleRole)
	}

	return []Field{
		{
			ID:          KeyMinQuantity,
			Name:        "Minimum Wholesale Quantity",
			Type:        "number",
			Description: "Set the minimum quantity required for wholesale pricing.",
			Value:       strconv.Itoa(cfg.MinimumQuantity),
		},
		{
			ID:          KeyUserRole,
			Name:        "Wholesale User Role",
			Type:        "select",
			Description: "Select the user role that should have wholesale pricing.",
			Value:       roleValue,
			Options:     roleOptions,
		},
		{
			ID:          KeyGateMode,
			Name:        "Quantity Rule",
			Type:        "select",
			Description: "Whether the cart must contain exactly or at least the minimum quantity.",
			Value:       string(cfg.GateMode),
			Options: []FieldOption{
				{Value: string(wholesale.GateExact), Label: "Exactly the minimum quantity"},
				{Value: string(wholesale.GateAtLeast), Label: "At least the minimum quantity"},
			},
		},
	}, nil
}
