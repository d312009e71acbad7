// ABOUTME: Address candidate model returned by the address index
// ABOUTME: Candidates are ephemeral, held in session between entry and selection

package models

// NotListedUPRN is the sentinel value submitted when the respondent
// cannot find their address in the candidate list.
const NotListedUPRN = "xxxx"

// AddressCandidate is one postcode-lookup result.
type AddressCandidate struct {
	UPRN             string `json:"uprn"`
	FormattedAddress string `json:"formattedAddress"`
	Region           Region `json:"countryCode"`
}
