// ABOUTME: Fulfilment option and dispatch request models
// ABOUTME: Mirrors the case service fulfilment API contract

package models

// Fulfilment language tags as used by the case service.
const (
	FulfilmentLanguageEnglish = "eng"
	FulfilmentLanguageWelsh   = "wel"
)

// FulfilmentOption is one available fulfilment product for a case
// type/region/channel combination.
type FulfilmentOption struct {
	FulfilmentCode string `json:"fulfilmentCode"`
	Language       string `json:"language"`
}

// FulfilmentRequest is the body POSTed to the case service to dispatch
// an SMS fulfilment. Duplicate submissions are possible (browser back
// button); idempotency is the case service's concern.
type FulfilmentRequest struct {
	CaseID         string `json:"caseId" validate:"required,uuid4"`
	TelNo          string `json:"telNo" validate:"required,e164"`
	FulfilmentCode string `json:"fulfilmentCode" validate:"required"`
	DateTime       string `json:"dateTime" validate:"required"`
}
