package handler

import (
	"net/http"

	"github.com/finlend/origination-engine/internal/domain"
	"github.com/finlend/origination-engine/internal/service"
	"github.com/finlend/origination-engine/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type QuotationHandler struct {
	service   *service.QuotationService
	validator *validator.Validate
}

func NewQuotationHandler(service *service.QuotationService) *QuotationHandler {
	return &QuotationHandler{
		service:   service,
		validator: validator.New(),
	}
}

// List handles GET /api/v1/quotations
func (h *QuotationHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.QuotationFilter{
		Status:  r.URL.Query().Get("status"),
		AgentID: r.URL.Query().Get("agentId"),
	}

	if hv := r.URL.Query().Get("isHighValue"); hv == "true" {
		t := true
		filter.IsHighValue = &t
	}

	quotations, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, quotations)
}

// Get handles GET /api/v1/quotations/{id}
func (h *QuotationHandler) Get(w http.ResponseWriter, r *http.Request) {
	quotation, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, quotation)
}

// Create handles POST /api/v1/quotations
func (h *QuotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, domain.RoleAgent, domain.RoleAdmin) {
		return
	}

	var req domain.CreateQuotationRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	quotation, err := h.service.Create(r.Context(), ActorFrom(r), &req)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Created(w, quotation)
}

// Update handles PATCH /api/v1/quotations/{id}
func (h *QuotationHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, domain.RoleAgent, domain.RoleAdmin) {
		return
	}

	var req domain.UpdateQuotationRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	quotation, err := h.service.Update(r.Context(), ActorFrom(r), mux.Vars(r)["id"], &req)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, quotation)
}

// UpdateStatus handles PATCH /api/v1/quotations/{id}/status
func (h *QuotationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, domain.RoleAgent, domain.RoleAdmin) {
		return
	}

	var req domain.UpdateQuotationStatusRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	quotation, err := h.service.UpdateStatus(r.Context(), ActorFrom(r), mux.Vars(r)["id"], req.Status)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, quotation)
}

// Delete handles DELETE /api/v1/quotations/{id}
func (h *QuotationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, domain.RoleAdmin) {
		return
	}

	if err := h.service.Delete(r.Context(), ActorFrom(r), mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, map[string]bool{"deleted": true})
}
