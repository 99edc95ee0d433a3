// Package handler serves the storefront and admin JSON API.
package handler

import (
	"context"
	"net/http"

	"github.com/xenking/kart-wholesale/internal/domain/order"
	"github.com/xenking/kart-wholesale/internal/domain/product"
	"github.com/xenking/kart-wholesale/internal/domain/settings"
	"github.com/xenking/kart-wholesale/internal/domain/wholesale"
)

// OrderService prices carts and places orders.
type OrderService interface {
	Quote(ctx context.Context, actor wholesale.Actor, items []order.Item) (*order.Quote, error)
	PlaceOrder(ctx context.Context, actor wholesale.Actor, items []order.Item) (*order.PlaceOrderResult, error)
}

// Settings is the wholesale configuration as seen by the API.
type Settings interface {
	Current() wholesale.Config
	Save(ctx context.Context, u settings.Update) (wholesale.Config, error)
	Schema(ctx context.Context) ([]settings.Field, error)
}

var _ Settings = (*settings.Provider)(nil)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// AdminRole is required for the admin endpoints.
	AdminRole wholesale.Role
	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64
}

// Handler implements the HTTP endpoints.
type Handler struct {
	products product.Repository
	orders   OrderService
	settings Settings
	policy   wholesale.PricingPolicy
	metrics  *Metrics

	adminRole    wholesale.Role
	maxBodyBytes int64
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg Config,
	products product.Repository,
	orders OrderService,
	settings Settings,
	policy wholesale.PricingPolicy,
	metrics *Metrics,
) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return &Handler{
		products:     products,
		orders:       orders,
		settings:     settings,
		policy:       policy,
		metrics:      metrics,
		adminRole:    cfg.AdminRole,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// Register adds the API routes to mux. Requests must already carry an actor,
// see Authenticator.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/product", h.ListProducts)
	mux.HandleFunc("GET /api/product/{productId}", h.GetProduct)

	mux.HandleFunc("POST /api/cart/validate", h.ValidateCart)
	mux.HandleFunc("POST /api/cart/quote", h.QuoteCart)
	mux.HandleFunc("POST /api/order", h.PlaceOrder)

	mux.Handle("GET /api/admin/wholesale/settings", h.admin(h.GetSettings))
	mux.Handle("PUT /api/admin/wholesale/settings", h.admin(h.UpdateSettings))
	mux.Handle("GET /api/admin/wholesale/schema", h.admin(h.GetSchema))
	mux.Handle("PUT /api/admin/product/{productId}/wholesale-price", h.admin(h.SetWholesalePrice))
}
