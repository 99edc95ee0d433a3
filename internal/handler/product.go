package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/xenking/kart-wholesale/internal/domain/product"
	"github.com/xenking/kart-wholesale/internal/domain/wholesale"
)

// productView is a product as shown to the requesting actor.
type productView struct {
	product.Product
	pricing    wholesale.ProductPricing
	Projection *wholesale.Projection
	// Quantity is the entered quantity, 0 when not given.
	Quantity int
}

func (h *Handler) view(actor wholesale.Actor, p product.Product, cfg wholesale.Config, quantity int) productView {
	v := productView{Product: p, pricing: p.Pricing(), Quantity: quantity}
	if proj, ok := h.policy.ProjectDisplay(actor, v.pricing, cfg); ok {
		v.Projection = &proj
	}
	return v
}

func (v productView) encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(v.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(v.Name) })
		e.Field("category", func(e *jx.Encoder) { e.Str(v.Category) })
		e.Field("price", func(e *jx.Encoder) { money(e, v.pricing.BasePrice()) })
		e.Field("regularPrice", func(e *jx.Encoder) { money(e, v.RegularPrice) })
		if v.pricing.OnSale() {
			e.Field("salePrice", func(e *jx.Encoder) { money(e, v.SalePrice.Decimal) })
		}
		if p := v.Projection; p != nil {
			e.Field("wholesale", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("price", func(e *jx.Encoder) { money(e, p.WholesalePrice) })
					e.Field("basePrice", func(e *jx.Encoder) { money(e, p.BasePrice) })
					e.Field("minimumQuantity", func(e *jx.Encoder) { e.Int(p.MinimumQuantity) })
					e.Field("gateMode", func(e *jx.Encoder) { e.Str(string(p.GateMode)) })
					e.Field("onSale", func(e *jx.Encoder) { e.Bool(p.OnSale) })
				})
			})
		}
		if v.Quantity > 0 {
			price := v.pricing.BasePrice()
			if v.Projection != nil {
				price = v.Projection.PriceFor(v.Quantity)
			}
			e.Field("quantity", func(e *jx.Encoder) { e.Int(v.Quantity) })
			e.Field("displayPrice", func(e *jx.Encoder) { money(e, price) })
		}
	})
}

// ListProducts returns the catalog with wholesale projections for eligible actors.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}

	actor := ActorFromContext(r.Context())
	cfg := h.settings.Current()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, p := range products {
				h.view(actor, p, cfg, 0).encode(e)
			}
		})
	})
}

// GetProduct returns one product. With ?quantity=N the response also carries
// the price shown for that quantity.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	quantity := 0
	if raw := r.URL.Query().Get("quantity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "quantity must be a positive integer")
			return
		}
		quantity = n
	}

	p, err := h.products.GetByID(r.Context(), r.PathValue("productId"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	v := h.view(ActorFromContext(r.Context()), *p, h.settings.Current(), quantity)
	writeJSON(w, http.StatusOK, v.encode)
}
