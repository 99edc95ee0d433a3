package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/kart-wholesale/internal/domain/order"
)

// PlaceOrder checks out the cart. A cart rejected by the quantity gate gets
// 422 with the shopper-facing message.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	items, err := h.readItems(w, r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	actor := ActorFromContext(r.Context())
	result, err := h.orders.PlaceOrder(r.Context(), actor, items)
	if err != nil {
		var admErr *order.AdmissionError
		if errors.As(err, &admErr) {
			h.metrics.recordRejection(r.Context(), h.settings.Current().GateMode)
		}
		writeDomainError(w, r, err)
		return
	}
	h.metrics.recordOrder(r.Context(), result.Order)

	cfg := h.settings.Current()
	o := result.Order
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
			e.Field("total", func(e *jx.Encoder) { money(e, o.Total) })
			e.Field("wholesale", func(e *jx.Encoder) { e.Bool(o.Wholesale) })
			e.Field("items", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, item := range o.Items {
						e.Obj(func(e *jx.Encoder) {
							e.Field("productId", func(e *jx.Encoder) { e.Str(item.ProductID) })
							e.Field("quantity", func(e *jx.Encoder) { e.Int(item.Quantity) })
							e.Field("unitPrice", func(e *jx.Encoder) { money(e, item.UnitPrice) })
							e.Field("wholesale", func(e *jx.Encoder) { e.Bool(item.Wholesale) })
						})
					}
				})
			})
			e.Field("products", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, p := range result.Products {
						h.view(actor, p, cfg, 0).encode(e)
					}
				})
			})
		})
	})
}
