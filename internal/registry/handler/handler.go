// Package handler exposes the policy registry over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"policyregistry/internal/registry/models"
	"policyregistry/internal/registry/service"
	"policyregistry/pkg/domain"
	dErrors "policyregistry/pkg/domain-errors"
	"policyregistry/pkg/platform/httputil"
	authmw "policyregistry/pkg/platform/middleware/auth"
	request "policyregistry/pkg/platform/middleware/request"
)

// Registry is the registry service as seen by the transport.
type Registry interface {
	OpenPolicy(ctx context.Context, caller domain.Address, cmd service.OpenPolicyCommand) (*models.Policy, error)
	CancelPolicy(ctx context.Context, caller domain.Address, id domain.PolicyID) (*service.CancelResult, error)
	Withdraw(ctx context.Context, caller domain.Address) (domain.Amount, error)
	SetMinimumPremium(ctx context.Context, caller domain.Address, value domain.Amount) error
	Receive(ctx context.Context, sender domain.Address, value domain.Amount) error

	GetPolicyIDs(ctx context.Context, addr domain.Address) ([]domain.PolicyID, error)
	IsPolicyValid(ctx context.Context, id domain.PolicyID) (bool, error)
	GetPolicyDetails(ctx context.Context, id domain.PolicyID) (models.Details, error)
	GetPendingWithdrawal(ctx context.Context, addr domain.Address) (domain.Amount, error)
	CurrentPolicy(ctx context.Context, addr domain.Address) (*models.Policy, error)
	Summary(ctx context.Context) (models.Summary, error)
}

// Ownership manages the configurer role.
type Ownership interface {
	TransferOwnership(ctx context.Context, caller, next domain.Address) error
	RenounceOwnership(ctx context.Context, caller domain.Address) error
}

type Handler struct {
	registry     Registry
	ownership    Ownership
	jwtValidator authmw.JWTValidator
	logger       *slog.Logger
}

func New(registry Registry, ownership Ownership, jwtValidator authmw.JWTValidator, logger *slog.Logger) *Handler {
	return &Handler{
		registry:     registry,
		ownership:    ownership,
		jwtValidator: jwtValidator,
		logger:       logger,
	}
}

// Register mounts the registry routes. Reads are public; every state change
// needs a bearer token whose subject is the caller address.
func (h *Handler) Register(r chi.Router) {
	r.Get("/policies/{id}", h.handleGetPolicy)
	r.Get("/policies/{id}/validity", h.handleGetValidity)
	r.Get("/accounts/{address}/policies", h.handleListPolicies)
	r.Get("/accounts/{address}/pending-withdrawal", h.handleGetPendingWithdrawal)
	r.Get("/accounts/{address}/current-policy", h.handleGetCurrentPolicy)
	r.Get("/registry", h.handleGetSummary)

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(h.jwtValidator, h.logger))
		r.Post("/policies", h.handleOpenPolicy)
		r.Post("/policies/{id}/cancel", h.handleCancelPolicy)
		r.Post("/withdrawals", h.handleWithdraw)
		r.Post("/deposits", h.handleDeposit)
		r.Put("/admin/minimum-premium", h.handleSetMinimumPremium)
		r.Post("/admin/ownership", h.handleTransferOwnership)
		r.Delete("/admin/ownership", h.handleRenounceOwnership)
	})
}

func (h *Handler) handleOpenPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[OpenPolicyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	policy, err := h.registry.OpenPolicy(ctx, authmw.GetCaller(ctx), service.OpenPolicyCommand{
		Coverage:        req.coverage,
		DurationSeconds: req.DurationSeconds,
		Deposit:         req.deposit,
	})
	if err != nil {
		h.writeError(ctx, w, "failed to open policy", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, OpenPolicyResponse{
		PolicyID: policy.ID,
		Expiry:   policy.Expiry,
	})
}

func (h *Handler) handleCancelPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.policyID(w, r)
	if !ok {
		return
	}

	result, err := h.registry.CancelPolicy(ctx, authmw.GetCaller(ctx), id)
	if err != nil {
		h.writeError(ctx, w, "failed to cancel policy", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CancelPolicyResponse{
		PolicyID: result.Policy.ID,
		Active:   result.Policy.Active,
		Refund:   result.Refund,
	})
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	amount, err := h.registry.Withdraw(ctx, authmw.GetCaller(ctx))
	if err != nil {
		h.writeError(ctx, w, "failed to withdraw", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, WithdrawalResponse{Amount: amount})
}

func (h *Handler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[DepositRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.registry.Receive(ctx, authmw.GetCaller(ctx), req.value); err != nil {
		h.writeError(ctx, w, "failed to record deposit", err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, DepositResponse{Value: req.value})
}

func (h *Handler) handleSetMinimumPremium(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SetMinimumPremiumRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.registry.SetMinimumPremium(ctx, authmw.GetCaller(ctx), req.minimumPremium); err != nil {
		h.writeError(ctx, w, "failed to set minimum premium", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, MinimumPremiumResponse{MinimumPremium: req.minimumPremium})
}

func (h *Handler) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TransferOwnershipRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.ownership.TransferOwnership(ctx, authmw.GetCaller(ctx), req.newOwner); err != nil {
		h.writeError(ctx, w, "failed to transfer ownership", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, OwnershipResponse{Owner: req.newOwner})
}

func (h *Handler) handleRenounceOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.ownership.RenounceOwnership(ctx, authmw.GetCaller(ctx)); err != nil {
		h.writeError(ctx, w, "failed to renounce ownership", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.policyID(w, r)
	if !ok {
		return
	}
	details, err := h.registry.GetPolicyDetails(ctx, id)
	if err != nil {
		h.writeError(ctx, w, "failed to load policy", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PolicyDetailsResponse{PolicyID: id, Details: details})
}

func (h *Handler) handleGetValidity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.policyID(w, r)
	if !ok {
		return
	}
	valid, err := h.registry.IsPolicyValid(ctx, id)
	if err != nil {
		h.writeError(ctx, w, "failed to check policy validity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ValidityResponse{PolicyID: id, Valid: valid})
}

func (h *Handler) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.address(w, r)
	if !ok {
		return
	}
	ids, err := h.registry.GetPolicyIDs(ctx, addr)
	if err != nil {
		h.writeError(ctx, w, "failed to list policies", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PolicyIDsResponse{Address: addr, PolicyIDs: ids})
}

func (h *Handler) handleGetPendingWithdrawal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.address(w, r)
	if !ok {
		return
	}
	amount, err := h.registry.GetPendingWithdrawal(ctx, addr)
	if err != nil {
		h.writeError(ctx, w, "failed to load pending withdrawal", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PendingWithdrawalResponse{Address: addr, Amount: amount})
}

func (h *Handler) handleGetCurrentPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, ok := h.address(w, r)
	if !ok {
		return
	}
	policy, err := h.registry.CurrentPolicy(ctx, addr)
	if err != nil {
		h.writeError(ctx, w, "failed to load current policy", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CurrentPolicyResponse{Address: addr, Policy: policy})
}

func (h *Handler) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, err := h.registry.Summary(ctx)
	if err != nil {
		h.writeError(ctx, w, "failed to load registry summary", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) policyID(w http.ResponseWriter, r *http.Request) (domain.PolicyID, bool) {
	id, err := domain.ParsePolicyID(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(r.Context(), w, "invalid policy id", err)
		return 0, false
	}
	return id, true
}

func (h *Handler) address(w http.ResponseWriter, r *http.Request) (domain.Address, bool) {
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		h.writeError(r.Context(), w, "invalid address", err)
		return domain.ZeroAddress, false
	}
	return addr, true
}

// writeError logs client errors at warn and everything else at error.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	requestID := request.GetRequestID(ctx)
	if httputil.StatusFor(dErrors.CodeOf(err)) < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg,
			"error", err,
			"request_id", requestID,
		)
	} else {
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"request_id", requestID,
		)
	}
	httputil.WriteError(w, err)
}
