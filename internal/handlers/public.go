package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/monroy-qms/api/internal/models"
	"github.com/monroy-qms/api/internal/services"
	pkghttp "github.com/monroy-qms/api/pkg/http"
)

// VerifyService resolves public verification codes
type VerifyService interface {
	Verify(ctx context.Context, code string) (*services.VerifyResult, error)
}

// PublicHandler serves unauthenticated endpoints
type PublicHandler struct {
	service VerifyService
}

func NewPublicHandler(service VerifyService) *PublicHandler {
	return &PublicHandler{service: service}
}

type verifyNotFoundResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error"`
}

// Verify handles GET /public/verify/{publicCode}
func (h *PublicHandler) Verify(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Verify(r.Context(), chi.URLParam(r, "publicCode"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteJSON(w, http.StatusNotFound, verifyNotFoundResponse{Valid: false, Error: "Code not found"})
			return
		}
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, res)
}
