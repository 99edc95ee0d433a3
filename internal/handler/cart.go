package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/kart-wholesale/internal/domain/order"
)

// decodeItems parses {"items": [{"productId": "...", "quantity": N}, ...]}.
func decodeItems(d *jx.Decoder) ([]order.Item, error) {
	var items []order.Item
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "items" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var item order.Item
			if err := d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "productId":
					item.ProductID, err = d.Str()
				case "quantity":
					item.Quantity, err = d.Int()
				default:
					err = d.Skip()
				}
				return err
			}); err != nil {
				return err
			}
			if item.ProductID == "" {
				return errors.New("productId required")
			}
			items = append(items, item)
			return nil
		})
	})
	return items, err
}

func (h *Handler) readItems(w http.ResponseWriter, r *http.Request) ([]order.Item, error) {
	var items []order.Item
	err := h.decodeBody(w, r, func(d *jx.Decoder) error {
		var err error
		items, err = decodeItems(d)
		return err
	})
	return items, err
}

// ValidateCart runs the quantity gate for the requesting actor.
func (h *Handler) ValidateCart(w http.ResponseWriter, r *http.Request) {
	q, ok := h.quote(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("admitted", func(e *jx.Encoder) { e.Bool(q.Gate.Admitted) })
			e.Field("quantity", func(e *jx.Encoder) { e.Int(q.Cart.AggregateQuantity()) })
			if !q.Gate.Admitted {
				e.Field("message", func(e *jx.Encoder) { e.Str(q.Gate.Message) })
			}
		})
	})
}

// QuoteCart prices the cart for the requesting actor without placing an order.
func (h *Handler) QuoteCart(w http.ResponseWriter, r *http.Request) {
	q, ok := h.quote(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeQuote(e, q) })
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) (*order.Quote, bool) {
	items, err := h.readItems(w, r)
	if err != nil {
		writeDomainError(w, r, err)
		return nil, false
	}
	q, err := h.orders.Quote(r.Context(), ActorFromContext(r.Context()), items)
	if err != nil {
		writeDomainError(w, r, err)
		return nil, false
	}
	h.metrics.recordQuote(r.Context(), q, h.settings.Current().GateMode)
	return q, true
}

func encodeQuote(e *jx.Encoder, q *order.Quote) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for i, line := range q.Cart.Lines {
					e.Obj(func(e *jx.Encoder) {
						e.Field("productId", func(e *jx.Encoder) { e.Str(line.ProductID) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(line.Quantity) })
						e.Field("unitPrice", func(e *jx.Encoder) { money(e, line.Price) })
						e.Field("total", func(e *jx.Encoder) { money(e, line.Total()) })
						e.Field("wholesale", func(e *jx.Encoder) { e.Bool(q.LineWholesale(i)) })
					})
				}
			})
		})
		e.Field("quantity", func(e *jx.Encoder) { e.Int(q.Cart.AggregateQuantity()) })
		e.Field("subtotal", func(e *jx.Encoder) { money(e, q.Subtotal) })
		e.Field("wholesaleApplied", func(e *jx.Encoder) { e.Bool(q.WholesaleApplied()) })
		e.Field("admitted", func(e *jx.Encoder) { e.Bool(q.Gate.Admitted) })
		if !q.Gate.Admitted {
			e.Field("message", func(e *jx.Encoder) { e.Str(q.Gate.Message) })
		}
	})
}
