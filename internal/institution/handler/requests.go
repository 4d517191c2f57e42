package handler

import (
	"strings"

	"github.com/asaskevich/govalidator"

	"credchain/internal/institution/models"
	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
)

// StatusRequest is the body of the approve and suspend endpoints.
type StatusRequest struct {
	InstitutionID string `json:"institutionId"`

	id domain.InstitutionID
}

func (r *StatusRequest) Validate() error {
	id, err := parseInstitutionID(r.InstitutionID)
	if err != nil {
		return err
	}
	r.id = id
	return nil
}

// WhitelistRequest grants or revokes a wallet's issuing right.
type WhitelistRequest struct {
	InstitutionID string `json:"institutionId"`
	Wallet        string `json:"wallet"`
	Allowed       *bool  `json:"allowed"`

	id domain.InstitutionID
}

func (r *WhitelistRequest) Validate() error {
	id, err := parseInstitutionID(r.InstitutionID)
	if err != nil {
		return err
	}
	r.id = id
	r.Wallet = strings.TrimSpace(r.Wallet)
	if r.Wallet == "" {
		return dErrors.New(dErrors.CodeValidation, "wallet is required")
	}
	if r.Allowed == nil {
		return dErrors.New(dErrors.CodeValidation, "allowed is required")
	}
	return nil
}

func parseInstitutionID(raw string) (domain.InstitutionID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.InstitutionID{}, dErrors.New(dErrors.CodeValidation, "institutionId is required")
	}
	if !govalidator.IsUUID(raw) {
		return domain.InstitutionID{}, dErrors.New(dErrors.CodeValidation, "institutionId must be a UUID")
	}
	id, err := domain.ParseInstitutionID(raw)
	if err != nil {
		return domain.InstitutionID{}, dErrors.Wrap(err, dErrors.CodeValidation, "institutionId must be a UUID")
	}
	return id, nil
}

type InstitutionResponse struct {
	OK          bool                `json:"ok"`
	Institution *models.Institution `json:"institution"`
}

type TxResult struct {
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
}

type WhitelistResponse struct {
	OK          bool                `json:"ok"`
	Result      TxResult            `json:"result"`
	Institution *models.Institution `json:"institution"`
}

type ListResponse struct {
	Institutions []*models.Institution `json:"institutions"`
}
