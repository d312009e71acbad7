// ABOUTME: Server-side session model with typed workflow attributes
// ABOUTME: Attributes accumulate monotonically; flash messages drain once

package models

import "time"

// Attributes is everything learned about the current case/respondent
// across workflow steps. Fields are only ever added to within one run;
// nothing clears them except session expiry.
type Attributes struct {
	CaseID          string             `json:"case_id,omitempty"`
	CaseRef         string             `json:"case_ref,omitempty"`
	CaseType        CaseType           `json:"case_type,omitempty"`
	Region          Region             `json:"region,omitempty"`
	QuestionnaireID string             `json:"questionnaire_id,omitempty"`
	UACHash         string             `json:"uac_hash,omitempty"`
	Postcode        string             `json:"postcode,omitempty"`
	Candidates      []AddressCandidate `json:"candidates,omitempty"`
	UPRN            string             `json:"uprn,omitempty"`
	DisplayAddress  string             `json:"display_address,omitempty"`
	MobileNumber    string             `json:"mobile_number,omitempty"`
	FulfilmentCode  string             `json:"fulfilment_code,omitempty"`
	LanguageCode    string             `json:"language_code,omitempty"`
	Linked          bool               `json:"linked,omitempty"`
}

// MergeCase copies case fields into the attribute set.
func (a *Attributes) MergeCase(c *Case) {
	a.CaseID = c.CaseID
	a.CaseRef = c.CaseRef
	a.CaseType = c.CaseType
	a.Region = c.Region
	a.QuestionnaireID = c.QuestionnaireID
	a.Linked = c.Linked()
	if c.UPRN != "" {
		a.UPRN = c.UPRN
	}
	if da := c.DisplayAddress(); da != "" {
		a.DisplayAddress = da
	}
}

// HasCase reports whether the access-code (or UPRN) lookup has run.
func (a *Attributes) HasCase() bool {
	return a.CaseID != ""
}

// Session is the per-browser-session state, keyed by the opaque token
// stored in the session cookie.
type Session struct {
	ID         string         `json:"id"`
	Attributes Attributes     `json:"attributes"`
	Flash      []FlashMessage `json:"flash,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	LastSeen   time.Time      `json:"last_seen"`
}

// Clone returns a deep copy. Stores hand out clones so concurrent
// requests for one session never share mutable state.
func (s *Session) Clone() *Session {
	clone := *s
	if s.Attributes.Candidates != nil {
		clone.Attributes.Candidates = append([]AddressCandidate(nil), s.Attributes.Candidates...)
	}
	if s.Flash != nil {
		clone.Flash = append([]FlashMessage(nil), s.Flash...)
	}
	return &clone
}
