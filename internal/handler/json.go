package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	encode(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

// writeInternal logs err and hides it from the client.
func writeInternal(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// money encodes a price as a JSON number with two decimals.
func money(e *jx.Encoder, d decimal.Decimal) {
	e.RawStr(d.StringFixed(2))
}

// errBadJSON marks malformed request bodies.
var errBadJSON = errors.New("malformed JSON body")

// decodeBody reads the capped request body and passes it to fn.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, fn func(d *jx.Decoder) error) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		return errors.Wrap(errBadJSON, err.Error())
	}
	if err := fn(jx.DecodeBytes(data)); err != nil {
		return errors.Wrap(errBadJSON, err.Error())
	}
	return nil
}

// scalar reads a string, number or null as a string. ok is false for null.
func scalar(d *jx.Decoder) (s string, ok bool, err error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		return s, true, err
	case jx.Number:
		n, err := d.Num()
		return n.String(), true, err
	case jx.Null:
		return "", false, d.Null()
	default:
		return "", false, errors.Errorf("unexpected %s", d.Next())
	}
}
