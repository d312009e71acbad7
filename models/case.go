// ABOUTME: Case model as returned by the case service UAC claim endpoint
// ABOUTME: Cases are owned by the case service; this side only reads them

package models

import "strings"

// CaseType classifies the addressable unit a case refers to.
type CaseType string

const (
	CaseTypeHousehold    CaseType = "HH"
	CaseTypeIndividual   CaseType = "HI"
	CaseTypeContinuation CaseType = "CI"
)

// Case is the case service's view of one household or individual,
// keyed by CaseID. The workflow never mutates a case directly; it only
// reads it and triggers fulfilment actions against its ID.
type Case struct {
	CaseID               string   `json:"caseId"`
	CaseRef              string   `json:"caseRef"`
	CaseType             CaseType `json:"caseType"`
	Region               Region   `json:"region"`
	Active               bool     `json:"active"`
	QuestionnaireID      string   `json:"questionnaireId"`
	CollectionExerciseID string   `json:"collectionExerciseId"`
	UPRN                 string   `json:"uprn"`
	AddressLine1         string   `json:"addressLine1"`
	AddressLine2         string   `json:"addressLine2"`
	AddressLine3         string   `json:"addressLine3"`
	TownName             string   `json:"townName"`
	Postcode             string   `json:"postcode"`
}

// Linked reports whether the case is already tied to a physical
// address. Unlinked cases must go through the address-linking steps
// before launch.
func (c *Case) Linked() bool {
	return c.UPRN != ""
}

// DisplayAddress builds the single-line address shown to the
// respondent and carried into the EQ launch payload.
func (c *Case) DisplayAddress() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.AddressLine1, c.AddressLine2, c.TownName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
