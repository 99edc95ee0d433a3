package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-wholesale/internal/domain/order"
	"github.com/xenking/kart-wholesale/internal/domain/product"
	"github.com/xenking/kart-wholesale/internal/domain/settings"
)

// writeDomainError maps domain errors to API error responses. Unknown errors
// become 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBadJSON) || errors.Is(err, order.ErrEmptyItems) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var iqErr *order.InvalidQuantityError
	if errors.As(err, &iqErr) {
		writeError(w, http.StatusBadRequest, iqErr.Error())
		return
	}

	if errors.Is(err, product.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	var pnfErr *order.ProductNotFoundError
	if errors.As(err, &pnfErr) {
		writeError(w, http.StatusUnprocessableEntity, pnfErr.Error())
		return
	}

	var admErr *order.AdmissionError
	if errors.As(err, &admErr) {
		writeError(w, http.StatusUnprocessableEntity, admErr.Message)
		return
	}

	var vErr *settings.ValidationError
	if errors.As(err, &vErr) {
		writeError(w, http.StatusBadRequest, vErr.Error())
		return
	}

	writeInternal(w, r, err)
}
