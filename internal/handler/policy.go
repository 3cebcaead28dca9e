package handler

import (
	"net/http"

	"github.com/finlend/origination-engine/internal/domain"
	"github.com/finlend/origination-engine/internal/service"
	"github.com/finlend/origination-engine/pkg/response"

	"github.com/go-playground/validator/v10"
)

type PolicyHandler struct {
	service   *service.PolicyService
	validator *validator.Validate
}

func NewPolicyHandler(service *service.PolicyService) *PolicyHandler {
	return &PolicyHandler{
		service:   service,
		validator: validator.New(),
	}
}

// Get handles GET /api/v1/policy
func (h *PolicyHandler) Get(w http.ResponseWriter, r *http.Request) {
	policy, err := h.service.Get(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, policy)
}

// Update handles PATCH /api/v1/policy
func (h *PolicyHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, domain.RoleAdmin, domain.RoleMD) {
		return
	}

	var req domain.UpdatePolicyRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	policy, err := h.service.Update(r.Context(), ActorFrom(r), &req)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, policy)
}
