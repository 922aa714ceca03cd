package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"doulaBack/internal/models"
	"doulaBack/internal/services"
)

const maxDocumentSize = 10 << 20

type ContractHandler struct {
	Service *services.ContractService
}

func NewContractHandler(service *services.ContractService) *ContractHandler {
	return &ContractHandler{Service: service}
}

type createContractRequest struct {
	ClientID      string           `json:"client_id" validate:"required"`
	TotalAmount   *decimal.Decimal `json:"total_amount" validate:"required"`
	DepositAmount decimal.Decimal  `json:"deposit_amount"`
}

type contractStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft sent signed payment_completed"`
}

func (h *ContractHandler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req createContractRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	c, err := h.Service.CreateContract(r.Context(), services.CreateContractInput{
		ClientID:      req.ClientID,
		TotalAmount:   *req.TotalAmount,
		DepositAmount: req.DepositAmount,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *ContractHandler) GetContract(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.GetContract(r.Context(), getParam(r, "contractId"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ContractHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req contractStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	c, err := h.Service.UpdateContractStatus(r.Context(), getParam(r, "contractId"), models.ContractStatus(req.Status))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UploadDocument accepts the signed contract as a multipart "file" field.
func (h *ContractHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentSize+1<<20)
	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType != "application/pdf" && !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		writeError(w, http.StatusBadRequest, "only PDF documents are accepted")
		return
	}
	if contentType == "" {
		contentType = "application/pdf"
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	c, err := h.Service.UploadDocument(r.Context(), getParam(r, "contractId"), header.Filename, contentType, data)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
