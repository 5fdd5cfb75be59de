package handler

import (
	"time"

	"policyregistry/internal/registry/models"
	"policyregistry/pkg/domain"
)

type OpenPolicyResponse struct {
	PolicyID domain.PolicyID `json:"policy_id"`
	Expiry   time.Time       `json:"expiry"`
}

type CancelPolicyResponse struct {
	PolicyID domain.PolicyID `json:"policy_id"`
	Active   bool            `json:"active"`
	Refund   domain.Amount   `json:"refund"`
}

type PolicyDetailsResponse struct {
	PolicyID domain.PolicyID `json:"policy_id"`
	models.Details
}

type ValidityResponse struct {
	PolicyID domain.PolicyID `json:"policy_id"`
	Valid    bool            `json:"valid"`
}

type PolicyIDsResponse struct {
	Address   domain.Address    `json:"address"`
	PolicyIDs []domain.PolicyID `json:"policy_ids"`
}

type PendingWithdrawalResponse struct {
	Address domain.Address `json:"address"`
	Amount  domain.Amount  `json:"amount"`
}

// CurrentPolicyResponse carries a null policy when the address has none.
type CurrentPolicyResponse struct {
	Address domain.Address `json:"address"`
	Policy  *models.Policy `json:"policy"`
}

type WithdrawalResponse struct {
	Amount domain.Amount `json:"amount"`
}

type DepositResponse struct {
	Value domain.Amount `json:"value"`
}

type MinimumPremiumResponse struct {
	MinimumPremium domain.Amount `json:"minimum_premium"`
}

type OwnershipResponse struct {
	Owner domain.Address `json:"owner"`
}
