package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/jx"

	"github.com/xenking/kart-wholesale/internal/domain/settings"
	"github.com/xenking/kart-wholesale/internal/domain/wholesale"
)

func encodeConfig(e *jx.Encoder, cfg wholesale.Config) {
	role := ""
	if !cfg.EligibleRole.Disabled() {
		role = string(cfg.EligibleRole)
	}
	e.Obj(func(e *jx.Encoder) {
		e.Field(settings.KeyMinQuantity, func(e *jx.Encoder) { e.Int(cfg.MinimumQuantity) })
		e.Field(settings.KeyUserRole, func(e *jx.Encoder) { e.Str(role) })
		e.Field(settings.KeyGateMode, func(e *jx.Encoder) { e.Str(string(cfg.GateMode)) })
	})
}

// GetSettings returns the current wholesale configuration.
func (h *Handler) GetSettings(w http.ResponseWriter, _ *http.Request) {
	cfg := h.settings.Current()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeConfig(e, cfg) })
}

// UpdateSettings saves the submitted fields. Omitted fields keep their value;
// null clears a field back to its default.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var u settings.Update
	err := h.decodeBody(w, r, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			var dst **string
			switch key {
			case settings.KeyMinQuantity:
				dst = &u.MinimumQuantity
			case settings.KeyUserRole:
				dst = &u.EligibleRole
			case settings.KeyGateMode:
				dst = &u.GateMode
			default:
				return d.Skip()
			}
			s, ok, err := scalar(d)
			if err != nil {
				return err
			}
			if !ok && key == settings.KeyMinQuantity {
				s = strconv.Itoa(wholesale.DefaultMinimumQuantity)
			}
			*dst = &s
			return nil
		})
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	cfg, err := h.settings.Save(r.Context(), u)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeConfig(e, cfg) })
}

// GetSchema describes the admin settings form.
func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	fields, err := h.settings.Schema(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, f := range fields {
				e.Obj(func(e *jx.Encoder) {
					e.Field("id", func(e *jx.Encoder) { e.Str(f.ID) })
					e.Field("name", func(e *jx.Encoder) { e.Str(f.Name) })
					e.Field("type", func(e *jx.Encoder) { e.Str(f.Type) })
					e.Field("description", func(e *jx.Encoder) { e.Str(f.Description) })
					e.Field("value", func(e *jx.Encoder) { e.Str(f.Value) })
					if len(f.Options) == 0 {
						return
					}
					e.Field("options", func(e *jx.Encoder) {
						e.Arr(func(e *jx.Encoder) {
							for _, o := range f.Options {
								e.Obj(func(e *jx.Encoder) {
									e.Field("value", func(e *jx.Encoder) { e.Str(o.Value) })
									e.Field("label", func(e *jx.Encoder) { e.Str(o.Label) })
								})
							}
						})
					})
				})
			}
		})
	})
}

// SetWholesalePrice stores a product's wholesale price as entered. Values
// that are not usable prices are kept but ignored when pricing.
func (h *Handler) SetWholesalePrice(w http.ResponseWriter, r *http.Request) {
	var raw string
	err := h.decodeBody(w, r, func(d *jx.Decoder) error {
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key != "wholesalePrice" {
				return d.Skip()
			}
			s, _, err := scalar(d)
			raw = s
			return err
		})
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	raw = strings.TrimSpace(raw)
	id := r.PathValue("productId")
	if err := h.products.SetWholesalePrice(r.Context(), id, raw); err != nil {
		writeDomainError(w, r, err)
		return
	}

	price, usable := wholesale.ParsePrice(raw)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("productId", func(e *jx.Encoder) { e.Str(id) })
			e.Field("wholesalePrice", func(e *jx.Encoder) {
				if raw == "" {
					e.Null()
					return
				}
				e.Str(raw)
			})
			e.Field("usable", func(e *jx.Encoder) { e.Bool(usable) })
			if usable {
				e.Field("price", func(e *jx.Encoder) { money(e, price) })
			}
		})
	})
}
