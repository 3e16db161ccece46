package httpx

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type TaxService interface {
	GetRate(ctx context.Context) (float64, error)
	SetRate(ctx context.Context, rate float64) (float64, error)
}

type TaxHandler struct {
	Taxes TaxService
	Log   zerolog.Logger
}

// TaxBody carries the tax percentage. The field is named amount for
// compatibility with existing admin clients.
type TaxBody struct {
	Amount *float64 `json:"amount"`
}

func (h *TaxHandler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/tax", h.getTax)
		r.Put("/tax", h.putTax)
	})
}

func (h *TaxHandler) getTax(w http.ResponseWriter, r *http.Request) {
	rate, err := h.Taxes.GetRate(r.Context())
	if err != nil {
		h.Log.Error().Err(err).Msg("read tax rate")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, TaxBody{Amount: &rate})
}

func (h *TaxHandler) putTax(w http.ResponseWriter, r *http.Request) {
	var req TaxBody
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, "amount is required")
		return
	}
	rate, err := h.Taxes.SetRate(r.Context(), *req.Amount)
	if err != nil {
		h.Log.Error().Err(err).Msg("update tax rate")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.Log.Info().Float64("rate", rate).Msg("tax rate updated")
	writeJSON(w, http.StatusOK, TaxBody{Amount: &rate})
}
