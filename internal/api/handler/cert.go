package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/remiblancher/qcert/internal/api/dto"
	apierrors "github.com/remiblancher/qcert/internal/api/errors"
)

// CertService is the certificate backend used by CertHandler.
type CertService interface {
	Info(ctx context.Context) (*dto.CertificateInfo, error)
	PEM(ctx context.Context) ([]byte, error)
	Renew(ctx context.Context, req *dto.RenewRequest) (*dto.CertificateInfo, error)
}

// CertHandler handles certificate-related HTTP requests.
type CertHandler struct {
	service CertService
}

// NewCertHandler creates a new CertHandler.
func NewCertHandler(certService CertService) *CertHandler {
	return &CertHandler{service: certService}
}

// Get handles GET /api/v1/certificate
func (h *CertHandler) Get(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

// PEM handles GET /api/v1/certificate/pem
func (h *CertHandler) PEM(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.PEM(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-pem-file")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Renew handles POST /api/v1/certificate/renew
func (h *CertHandler) Renew(w http.ResponseWriter, r *http.Request) {
	var req dto.RenewRequest
	// An empty body keeps the current validity.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, apierrors.NewBadRequest("Invalid JSON request body"))
		return
	}

	info, err := h.service.Renew(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func handleServiceError(w http.ResponseWriter, err error) {
	status, apiErr := apierrors.MapError(err)
	respondError(w, status, apiErr)
}
