package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"policyregistry/pkg/domain"
	dErrors "policyregistry/pkg/domain-errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseAmount(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("address", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseAddress(fl.Field().String())
		return err == nil
	})
	return v
}

// validateStruct reports the first failing field as an invalid_input error.
func validateStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid request")
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", fe.Field())
	case "amount":
		return dErrors.Newf(dErrors.CodeInvalidInput, "%s must be a base-10 amount no greater than %s", fe.Field(), domain.MaxAmount)
	case "address":
		return dErrors.Newf(dErrors.CodeInvalidInput, "%s must be a 0x-prefixed checksummed address", fe.Field())
	default:
		return dErrors.Newf(dErrors.CodeInvalidInput, "%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// OpenPolicyRequest carries amounts as decimal strings so values above 2^53
// survive JSON clients.
type OpenPolicyRequest struct {
	Coverage        string `json:"coverage" validate:"required,amount"`
	DurationSeconds uint64 `json:"duration_seconds"`
	Deposit         string `json:"deposit" validate:"required,amount"`

	coverage domain.Amount
	deposit  domain.Amount
}

func (r *OpenPolicyRequest) Normalize() {
	r.Coverage = strings.TrimSpace(r.Coverage)
	r.Deposit = strings.TrimSpace(r.Deposit)
}

// Validate checks the request shape. Business rules (minimum premium,
// positive coverage and duration) are enforced by the registry.
func (r *OpenPolicyRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	r.coverage, _ = domain.ParseAmount(r.Coverage)
	r.deposit, _ = domain.ParseAmount(r.Deposit)
	return nil
}

type DepositRequest struct {
	Value string `json:"value" validate:"required,amount"`

	value domain.Amount
}

func (r *DepositRequest) Normalize() {
	r.Value = strings.TrimSpace(r.Value)
}

func (r *DepositRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	r.value, _ = domain.ParseAmount(r.Value)
	return nil
}

type SetMinimumPremiumRequest struct {
	MinimumPremium string `json:"minimum_premium" validate:"required,amount"`

	minimumPremium domain.Amount
}

func (r *SetMinimumPremiumRequest) Normalize() {
	r.MinimumPremium = strings.TrimSpace(r.MinimumPremium)
}

func (r *SetMinimumPremiumRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	r.minimumPremium, _ = domain.ParseAmount(r.MinimumPremium)
	return nil
}

type TransferOwnershipRequest struct {
	NewOwner string `json:"new_owner" validate:"required,address"`

	newOwner domain.Address
}

func (r *TransferOwnershipRequest) Normalize() {
	r.NewOwner = strings.TrimSpace(r.NewOwner)
}

func (r *TransferOwnershipRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	addr, err := domain.ParseAddress(r.NewOwner)
	if err != nil {
		return fmt.Errorf("new_owner: %w", err)
	}
	r.newOwner = addr
	return nil
}
