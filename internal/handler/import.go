package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/noteport/internal/blobstore"
	"github.com/BuzzLyutic/noteport/internal/model"
	"github.com/BuzzLyutic/noteport/internal/normalize"
	"github.com/BuzzLyutic/noteport/internal/service"
	"github.com/BuzzLyutic/noteport/internal/store"
	"github.com/BuzzLyutic/noteport/pkg/respond"
)

type ImportHandler struct {
	service *service.ImportService
	logger  *zap.Logger
}

func NewImportHandler(srv *service.ImportService, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{
		service: srv,
		logger:  logger,
	}
}

type importRequest struct {
	Path    string             `json:"path"`
	Format  string             `json:"format"`
	Options model.ApplyOptions `json:"options"`
}

type attachmentRequest struct {
	Data      string `json:"data"` // base64
	MediaType string `json:"mediaType"`
	Name      string `json:"name"`
}

func (h *ImportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeImportRequest(w, r)
	if !ok {
		return
	}

	report, err := h.service.Preview(r.Context(), req.Format, req.Path)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, report)
}

func (h *ImportHandler) Apply(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeImportRequest(w, r)
	if !ok {
		return
	}

	result, err := h.service.Apply(r.Context(), req.Format, req.Path, req.Options)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, result)
}

func (h *ImportHandler) Export(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Export(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, snap)
}

func (h *ImportHandler) StoreAttachment(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return
	}

	var req attachmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return
	}

	data, err := blobstore.DecodeBase64(req.Data)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	locator, err := h.service.StoreAttachment(r.Context(), data, req.MediaType, req.Name)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusCreated, map[string]string{"url": locator})
}

func (h *ImportHandler) decodeImportRequest(w http.ResponseWriter, r *http.Request) (importRequest, bool) {
	var req importRequest

	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return req, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return req, false
	}
	if req.Path == "" || req.Format == "" {
		respond.Error(w, r, http.StatusBadRequest, "path and format are required")
		return req, false
	}
	return req, true
}

func (h *ImportHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, normalize.ErrEmptyInput),
		errors.Is(err, normalize.ErrNoRecords),
		errors.Is(err, normalize.ErrMalformedRecord),
		errors.Is(err, normalize.ErrDanglingReference),
		errors.Is(err, blobstore.ErrDecode):
		respond.Error(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, normalize.ErrNotImplemented):
		respond.Error(w, r, http.StatusNotImplemented, err.Error())
	case errors.Is(err, store.ErrUnavailable):
		h.logger.Error("store unavailable", zap.Error(err))
		respond.Error(w, r, http.StatusServiceUnavailable, "store unavailable", err.Error())
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrUnknownFormat):
		respond.Error(w, r, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("internal error", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}
