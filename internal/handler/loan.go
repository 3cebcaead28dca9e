package handler

import (
	"net/http"

	"github.com/finlend/origination-engine/internal/domain"
	"github.com/finlend/origination-engine/internal/service"
	"github.com/finlend/origination-engine/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type LoanHandler struct {
	service   *service.LoanService
	validator *validator.Validate
}

func NewLoanHandler(service *service.LoanService) *LoanHandler {
	return &LoanHandler{
		service:   service,
		validator: validator.New(),
	}
}

// List handles GET /api/v1/loans
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.LoanFilter{
		Status:   r.URL.Query().Get("status"),
		AgentID:  r.URL.Query().Get("agentId"),
		ClientID: r.URL.Query().Get("clientId"),
	}

	loans, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, loans)
}

// Get handles GET /api/v1/loans/{id}
func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	loan, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, loan)
}

// Create handles POST /api/v1/loans
func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, domain.RoleAdmin) {
		return
	}

	var req domain.CreateLoanRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	loan, err := h.service.Create(r.Context(), ActorFrom(r), &req)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Created(w, loan)
}

// UpdateStage handles PATCH /api/v1/loans/{id}/stage
func (h *LoanHandler) UpdateStage(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, domain.RoleAgent, domain.RoleAdmin) {
		return
	}

	var req domain.UpdateLoanStageRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	loan, err := h.service.UpdateStage(r.Context(), ActorFrom(r), mux.Vars(r)["id"], &req)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, loan)
}

// Disburse handles PATCH /api/v1/loans/{id}/disburse
func (h *LoanHandler) Disburse(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, domain.RoleAdmin) {
		return
	}

	var req domain.DisburseLoanRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	loan, err := h.service.Disburse(r.Context(), ActorFrom(r), mux.Vars(r)["id"], &req)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, loan)
}

// TopUpEligible handles GET /api/v1/loans/topup-eligible
func (h *LoanHandler) TopUpEligible(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListTopUpEligible(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, loans)
}
